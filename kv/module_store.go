package kv

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/oshokin/xk6-kvarray/kv/store"
)

// testOpenKVStoreBarrier is a test hook invoked the moment a goroutine enters the
// store-creation path. It lets tests synchronize concurrent calls to OpenKv
// without impacting production behavior (nil in non-test builds).
//
//nolint:gochecknoglobals // this is a test hook.
var (
	testOpenKVStoreBarrier   func()
	testOpenKVStoreBarrierMu sync.RWMutex
)

// acquireStore returns the shared store, creating it on first use,
// and takes one reference on it.
func (rm *RootModule) acquireStore(options Options, logger logrus.FieldLogger) (store.Store, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.store != nil {
		if !rm.opts.Equal(options) {
			// Reject re-configuration attempts: VUs would otherwise disagree on limits.
			current := rm.opts.normalized()

			return nil, fmt.Errorf(
				"%w: initialCapacity=%d maxCapacity=%d maxBytes=%d",
				ErrKVOptionsConflict,
				current.InitialCapacity, current.MaxCapacity, current.maxBytes,
			)
		}

		rm.refs++

		return rm.store, nil
	}

	// Test hook: allows test code to synchronize concurrent OpenKv calls.
	// Production code sees nil and skips this entirely.
	testOpenKVStoreBarrierMu.RLock()

	barrier := testOpenKVStoreBarrier

	testOpenKVStoreBarrierMu.RUnlock()

	if barrier != nil {
		barrier()
	}

	memoryStore, err := store.NewMemoryStore(options.ToMemoryConfig(logger))
	if err != nil {
		return nil, err
	}

	rm.store = memoryStore
	rm.opts = options
	rm.refs = 1

	return rm.store, nil
}

// releaseStore drops one reference on candidate and destroys it when the last
// reference is gone. Releasing a store that is no longer the shared one is a no-op.
func (rm *RootModule) releaseStore(candidate store.Store) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.store == nil || rm.store != candidate {
		return
	}

	rm.refs--
	if rm.refs > 0 {
		return
	}

	rm.store.Destroy()
	rm.store = nil
	rm.opts = Options{}
	rm.refs = 0
}
