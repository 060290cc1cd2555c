package kv

import (
	"github.com/grafana/sobek"

	"github.com/oshokin/xk6-kvarray/kv/store"
)

type (
	// statsResult is the JS-facing result of stats().
	statsResult struct {
		ID         string `js:"id"`
		Count      int    `js:"count"`
		Capacity   int    `js:"capacity"`
		AddCount   uint64 `js:"addCount"`
		Growths    uint64 `js:"growths"`
		BytesInUse uint64 `js:"bytesInUse"`
		Summary    string `js:"summary"`
	}

	// entryResult is the JS-facing element of entries().
	entryResult struct {
		Key   string `js:"key"`
		Value string `js:"value"`
	}
)

// AddCount returns a Promise that resolves to the number of successful upserts
// (inserts and updates) performed on the shared store by all VUs.
func (k *KV) AddCount() *sobek.Promise {
	return k.runAsyncWithStore(
		func(s store.Store) (any, error) {
			return s.AddCount(), nil
		},
		func(rt *sobek.Runtime, result any) sobek.Value {
			return rt.ToValue(result)
		},
	)
}

// Size returns a Promise that resolves to the number of pairs currently stored.
func (k *KV) Size() *sobek.Promise {
	return k.runAsyncWithStore(
		func(s store.Store) (any, error) {
			return s.Len(), nil
		},
		func(rt *sobek.Runtime, result any) sobek.Value {
			return rt.ToValue(result)
		},
	)
}

// Capacity returns a Promise that resolves to the number of allocated slots.
func (k *KV) Capacity() *sobek.Promise {
	return k.runAsyncWithStore(
		func(s store.Store) (any, error) {
			return s.Cap(), nil
		},
		func(rt *sobek.Runtime, result any) sobek.Value {
			return rt.ToValue(result)
		},
	)
}

// Stats returns a Promise that resolves to a diagnostic summary of the store:
// { id, count, capacity, addCount, growths, bytesInUse, summary }.
func (k *KV) Stats() *sobek.Promise {
	return k.runAsyncWithStore(
		func(s store.Store) (any, error) {
			stats := s.Stats()
			if stats.Destroyed {
				return nil, store.ErrStoreDestroyed
			}

			return statsResult{
				ID:         stats.ID,
				Count:      stats.Count,
				Capacity:   stats.Capacity,
				AddCount:   stats.AddCount,
				Growths:    stats.Growths,
				BytesInUse: stats.BytesInUse,
				Summary:    stats.String(),
			}, nil
		},
		func(rt *sobek.Runtime, result any) sobek.Value {
			return rt.ToValue(result)
		},
	)
}

// Entries returns a Promise that resolves to every pair in insertion order:
// [{ key, value }, ...].
func (k *KV) Entries() *sobek.Promise {
	return k.runAsyncWithStore(
		func(s store.Store) (any, error) {
			pairs, err := s.Snapshot()
			if err != nil {
				return nil, err
			}

			entries := make([]entryResult, 0, len(pairs))
			for _, pair := range pairs {
				entries = append(entries, entryResult(pair))
			}

			return entries, nil
		},
		func(rt *sobek.Runtime, result any) sobek.Value {
			return rt.ToValue(result)
		},
	)
}
