// Package kv provides a growable key-value store shared across all VUs (virtual users).
//
// High-level behavior:
//   - The first call to openKv() creates a single, shared store for all VUs.
//     The options of that first call (initial capacity, limits) apply to the
//     whole test run; later calls must pass equivalent options.
//   - VUs upsert and look up string pairs concurrently. Every call is serialized
//     by the store's lock; the store doubles its slot array when it fills up.
//   - Each openKv() takes a reference on the store. kv.close() drops it, and the
//     store is destroyed when the last reference is gone.
//   - The store is in-memory only; nothing persists across runs.
package kv
