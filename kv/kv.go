package kv

import (
	"sync/atomic"

	"github.com/grafana/sobek"
	"go.k6.io/k6/js/modules"

	"github.com/oshokin/xk6-kvarray/kv/store"
)

// KV is the JavaScript-facing wrapper around the shared key-value store.
// Each exported method:
//
//   - Binds to the VU (virtual user) runtime via Sobek.
//   - Validates that the KV is still open.
//   - Executes the blocking store operation in a separate goroutine.
//   - Resolves/rejects a Sobek Promise back on the VU event loop.
//
// Threading model:
//
//   - All blocking store work occurs in a goroutine (off the VU event loop),
//     where it may wait on the store lock held by other VUs.
//   - Go results are converted to JavaScript values only inside callbacks
//     registered with the VU, i.e. on the event loop thread.
type KV struct {
	// store is the shared store every VU operates on.
	store store.Store

	// vu is the owning k6 VU that provides the Sobek runtime and event loop.
	vu modules.VU

	// release drops this KV's reference on the shared store.
	release func()

	// closed is set by the first Close.
	closed atomic.Bool
}

// NewKV constructs a new KV bound to the given VU and backing Store.
//
// release is called exactly once, by the first Close. It may be nil.
func NewKV(vu modules.VU, s store.Store, release func()) *KV {
	return &KV{
		vu:      vu,
		store:   s,
		release: release,
	}
}

// Close releases this KV's reference on the shared store. The last Close across
// all VUs destroys the store. It is synchronous and idempotent.
func (k *KV) Close() error {
	if k.store == nil {
		return k.databaseNotOpenError()
	}

	if k.closed.CompareAndSwap(false, true) && k.release != nil {
		k.release()
	}

	return nil
}

// isOpen reports whether the KV can still be used.
func (k *KV) isOpen() bool {
	return k.store != nil && !k.closed.Load()
}

// databaseNotOpenError produces a consistent error when the KV has no usable store.
func (k *KV) databaseNotOpenError() error {
	return NewError(DatabaseNotOpenError, "database is not open")
}

// runAsyncWithStore executes a blocking store operation on a worker goroutine
// and bridges its result back to JavaScript by resolving a Sobek promise on the
// VU's event loop. This indirection is required because:
//   - Sobek promises (rt.NewPromise) are not goroutine-safe; resolve/reject must
//     always run on the event loop thread.
//   - k6 extensions are responsible for scheduling their callbacks via
//     VU.RegisterCallback(), otherwise multiple goroutines will race inside the
//     VM and panic.
//   - Upserts may wait on the store lock while another VU relocates the store,
//     and the event loop must stay responsive meanwhile.
func (k *KV) runAsyncWithStore(
	operation func(store store.Store) (any, error),
	toJS func(rt *sobek.Runtime, result any) sobek.Value,
) *sobek.Promise {
	// Capture the VU runtime and create a promise whose resolve/reject
	// must run on the event loop thread.
	rt := k.vu.Runtime()
	promise, resolve, reject := rt.NewPromise()

	// Grab the VU's RegisterCallback hook so we can enqueue work back onto
	// the event loop after the store operation completes.
	callback := k.vu.RegisterCallback()

	go func() {
		if !k.isOpen() {
			callback(func() error {
				return reject(k.databaseNotOpenError())
			})

			return
		}

		goResult, err := operation(k.store)
		if err != nil {
			callback(func() error {
				return reject(classifyError(err))
			})

			return
		}

		callback(func() error {
			return resolve(toJS(rt, goResult))
		})
	}()

	return promise
}
