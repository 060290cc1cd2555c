package store

// memorySlot is one allocated position of the slot array.
type memorySlot struct {
	// key is the owned key; empty for unused slots.
	key string
	// value is the owned value; empty for unused slots.
	value string
	// hash is the xxhash fingerprint of key, compared before the key bytes.
	hash uint64
}

// memoryTable is the relocatable backing storage of a MemoryStore: a fixed
// number of slots of which the first count are live.
//
// A table never grows in place. grow returns a new table and the caller swaps
// it in while holding the store lock, so the old table is simply dropped.
type memoryTable struct {
	// slots has length == capacity; only slots[:count] hold pairs.
	slots []memorySlot
	// count is the number of live pairs.
	count int
}

// newMemoryTable allocates a table with capacity slots.
func newMemoryTable(capacity int) *memoryTable {
	return &memoryTable{
		slots: make([]memorySlot, capacity),
	}
}

// capacity returns the number of allocated slots.
func (t *memoryTable) capacity() int {
	return len(t.slots)
}

// full reports whether every slot holds a pair.
func (t *memoryTable) full() bool {
	return t.count == len(t.slots)
}

// find returns the index of key, or -1 when absent.
// The scan is linear; fingerprints only short-circuit mismatches.
func (t *memoryTable) find(key string, hash uint64) int {
	for i := range t.count {
		if t.slots[i].hash == hash && t.slots[i].key == key {
			return i
		}
	}

	return -1
}

// append stores pair in the first free slot.
// Precondition: !t.full().
func (t *memoryTable) append(pair memorySlot) {
	t.slots[t.count] = pair
	t.count++
}

// grow copies the live pairs into a new table with newCapacity slots.
func (t *memoryTable) grow(newCapacity int) *memoryTable {
	grown := newMemoryTable(newCapacity)
	grown.count = copy(grown.slots, t.slots[:t.count])

	return grown
}

// release clears every slot so the strings they reference can be reclaimed.
func (t *memoryTable) release() {
	clear(t.slots)
	t.slots = nil
	t.count = 0
}
