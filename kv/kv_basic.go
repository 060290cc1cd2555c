package kv

import (
	"github.com/grafana/sobek"
	"go.k6.io/k6/js/common"
	"go.k6.io/k6/js/promises"

	"github.com/oshokin/xk6-kvarray/kv/store"
)

// upsertResult is the JS-facing result of upsert().
type upsertResult struct {
	Created bool `js:"created"`
}

// Upsert returns a Promise that resolves to { created: boolean }.
//
// Behavior:
//   - creates the pair if the key is absent (created=true),
//   - replaces the value if the key is present (created=false).
//
// Rejection cases:
//   - database is not open,
//   - key or value is empty, null or undefined,
//   - the store cannot grow (CapacityExhaustedError),
//   - the pair does not fit maxBytes (MemoryBudgetExceededError).
func (k *KV) Upsert(key sobek.Value, value sobek.Value) *sobek.Promise {
	keyString, valueString := exportString(key), exportString(value)

	if keyString == "" || valueString == "" {
		// Reject synchronously-known argument errors without a worker goroutine.
		p, _, reject := promises.New(k.vu)
		reject(NewError(InvalidArgumentError, "key and value must be non-empty strings"))

		return p
	}

	return k.runAsyncWithStore(
		func(s store.Store) (any, error) {
			created, err := s.Upsert(keyString, valueString)
			if err != nil {
				return nil, err
			}

			return upsertResult{Created: created}, nil
		},
		func(rt *sobek.Runtime, result any) sobek.Value {
			return rt.ToValue(result)
		},
	)
}

// Lookup returns a Promise that resolves to the value stored under the provided key.
//
// Rejection cases:
//   - The database is not open.
//   - The key does not exist (KeyNotFoundError).
func (k *KV) Lookup(key sobek.Value) *sobek.Promise {
	keyString := exportString(key)

	return k.runAsyncWithStore(
		func(s store.Store) (any, error) {
			return s.Lookup(keyString)
		},
		func(rt *sobek.Runtime, result any) sobek.Value {
			return rt.ToValue(result)
		},
	)
}

// exportString converts a JS value to a Go string, mapping null and undefined to "".
func exportString(v sobek.Value) string {
	if common.IsNullish(v) {
		return ""
	}

	return v.String()
}
