package store

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// Store defines the operations of a growable key-value store.
//
// General notes:
//
//   - Keys and values are non-empty strings. Keys are compared byte-wise.
//   - Pairs keep their insertion order; a key is never removed once inserted,
//     only its value may be replaced.
//   - All methods are safe for concurrent use. Every call is linearized by a
//     single per-store lock.
//
// Error semantics:
//
//   - Methods return sentinel errors from this package (possibly wrapped);
//     inspect them with errors.Is.
//   - A failed Upsert leaves the item count, the capacity and every stored
//     pair unchanged.
type Store interface {
	// Upsert inserts key with value, or replaces the value of an existing key.
	// created reports whether a new pair was appended.
	Upsert(key, value string) (created bool, err error)

	// Lookup returns the current value stored under key.
	// ErrKeyNotFound is returned when no pair has the key.
	Lookup(key string) (string, error)

	// AddCount returns the number of successful Upsert calls (inserts and updates).
	AddCount() uint64

	// Len returns the number of live pairs.
	Len() int

	// Cap returns the number of allocated slots.
	Cap() int

	// Stats returns a point-in-time diagnostic view of the store.
	Stats() Stats

	// Snapshot returns copies of all live pairs in insertion order.
	Snapshot() ([]Pair, error)

	// Destroy releases every stored pair. Later calls fail with ErrStoreDestroyed.
	// Destroy is idempotent.
	Destroy()
}

// Pair is a single key-value pair.
type Pair struct {
	// Key is the immutable identifier of the pair.
	Key string
	// Value is the most recently upserted value for Key.
	Value string
}

// Stats is a point-in-time diagnostic view of a store.
type Stats struct {
	// ID identifies the store in logs.
	ID string
	// Count is the number of live pairs.
	Count int
	// Capacity is the number of allocated slots.
	Capacity int
	// AddCount is the number of successful upserts.
	AddCount uint64
	// Growths is the number of times the slot array was relocated.
	Growths uint64
	// BytesInUse is the number of bytes owned by stored keys and values.
	BytesInUse uint64
	// Destroyed reports whether Destroy has run.
	Destroyed bool
}

// String renders the stats in a human-readable form.
func (s Stats) String() string {
	return fmt.Sprintf(
		"store %s: %s/%s pairs, %s upserts, %d growths, %s in use, destroyed=%t",
		s.ID,
		humanize.Comma(int64(s.Count)),
		humanize.Comma(int64(s.Capacity)),
		humanize.Comma(int64(min(s.AddCount, math.MaxInt64))), //nolint:gosec // clamped to MaxInt64.
		s.Growths,
		humanize.IBytes(s.BytesInUse),
		s.Destroyed,
	)
}
