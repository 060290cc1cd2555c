package store

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore creates a MemoryStore with the given initial capacity and fails the test on error.
func newTestStore(t *testing.T, initialCapacity int) *MemoryStore {
	t.Helper()

	store, err := NewMemoryStore(&MemoryConfig{InitialCapacity: initialCapacity})
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Cleanup(store.Destroy)

	return store
}

// requireStoredValue verifies that the value stored for key equals expected.
func requireStoredValue(t *testing.T, store Store, key, expected string) {
	t.Helper()

	value, err := store.Lookup(key)
	require.NoError(t, err)
	assert.Equal(t, expected, value)
}

// requireUniqueKeys verifies that no two live pairs share a key.
func requireUniqueKeys(t *testing.T, store Store) {
	t.Helper()

	pairs, err := store.Snapshot()
	require.NoError(t, err)

	seen := make(map[string]struct{}, len(pairs))
	for _, pair := range pairs {
		_, duplicate := seen[pair.Key]
		require.Falsef(t, duplicate, "key %q stored twice", pair.Key)

		seen[pair.Key] = struct{}{}
	}
}

// workerKey builds the key used by the reference scenario for worker and index.
func workerKey(worker, index int) string {
	return fmt.Sprintf("key_t%d_i%d", worker, index)
}

// workerValue builds the value used by the reference scenario for worker.
func workerValue(worker int) string {
	return fmt.Sprintf("value_from_thread_%d", worker)
}
