// Package store provides the thread-safe, growable key-value store used by the
// xk6-kvarray module.
//
// A MemoryStore keeps its pairs in one contiguous slot array that doubles when
// full. The array is owned by a stable header (the MemoryStore itself), and a
// single mutex guards both the pairs and the array's location, so growth may
// relocate the storage without invalidating any caller's handle.
//
// Keys and values are strings. Values returned by Lookup are owned copies and
// remain valid after later updates, growth or Destroy.
package store
