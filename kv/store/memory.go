package store

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// MemoryStore is an in-memory key-value store backed by one contiguous slot array.
//
// It is safe for concurrent use. The MemoryStore value is the stable handle
// callers share; the slot array behind it is replaced with a twice-as-large
// copy whenever an insert finds it full. Both the pairs and the array's
// location are guarded by mu, so no caller ever observes a stale array.
type MemoryStore struct {
	// mu guards table, bytesInUse and the relocation of table.
	mu sync.Mutex
	// table is the current slot array; nil once the store is destroyed.
	table *memoryTable
	// bytesInUse counts the bytes owned by stored keys and values.
	bytesInUse uint64

	// addCount counts successful upserts. Diagnostics only.
	addCount atomic.Uint64
	// growths counts slot array relocations. Diagnostics only.
	growths atomic.Uint64

	maxCapacity int
	maxBytes    uint64

	id     string
	logger logrus.FieldLogger
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a new MemoryStore.
//
// A nil cfg or a zero InitialCapacity yields DefaultInitialCapacity slots.
// The store is returned only when it is fully constructed.
func NewMemoryStore(cfg *MemoryConfig) (*MemoryStore, error) {
	initialCapacity := cfg.GetInitialCapacity()
	if initialCapacity < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, initialCapacity)
	}

	maxCapacity := cfg.GetMaxCapacity()
	if initialCapacity > maxCapacity {
		return nil, fmt.Errorf(
			"%w: initial capacity %d exceeds max capacity %d",
			ErrCapacityExhausted, initialCapacity, maxCapacity,
		)
	}

	id := uuid.NewString()
	logger := cfg.GetLogger().WithField("store_id", id)

	s := &MemoryStore{
		table:       newMemoryTable(initialCapacity),
		maxCapacity: maxCapacity,
		maxBytes:    cfg.GetMaxBytes(),
		id:          id,
		logger:      logger,
	}

	logger.WithField("capacity", initialCapacity).Debug("store created")

	return s, nil
}

// ID returns the identifier used in log fields and Stats.
func (s *MemoryStore) ID() string {
	if s == nil {
		return ""
	}

	return s.id
}

// Upsert inserts key with value, or replaces the value of an existing key.
//
// The store keeps its own copies of key and value. created is true when a new
// pair was appended and false when an existing value was replaced. When the
// slot array is full, it is relocated to a new array of twice the capacity
// before the append.
func (s *MemoryStore) Upsert(key, value string) (bool, error) {
	if s == nil {
		return false, ErrNilStore
	}

	if key == "" {
		return false, ErrEmptyKey
	}

	if value == "" {
		return false, ErrEmptyValue
	}

	hash := xxhash.Sum64String(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.table == nil {
		return false, ErrStoreDestroyed
	}

	// Update path: the key is kept, only the value is swapped.
	if idx := s.table.find(key, hash); idx >= 0 {
		slot := &s.table.slots[idx]
		remaining := s.bytesInUse - uint64(len(slot.value))

		if err := s.checkBudgetLocked(remaining, uint64(len(value))); err != nil {
			return false, err
		}

		slot.value = strings.Clone(value)
		s.bytesInUse = remaining + uint64(len(value))
		s.addCount.Add(1)

		return false, nil
	}

	// The budget is checked before growing so a rejected insert leaves the capacity unchanged.
	required := uint64(len(key)) + uint64(len(value))
	if err := s.checkBudgetLocked(s.bytesInUse, required); err != nil {
		return false, err
	}

	if s.table.full() {
		if err := s.growLocked(); err != nil {
			return false, err
		}
	}

	s.table.append(memorySlot{
		key:   strings.Clone(key),
		value: strings.Clone(value),
		hash:  hash,
	})

	s.bytesInUse += required
	s.addCount.Add(1)

	return true, nil
}

// Lookup returns the current value stored under key.
//
// The returned string is independent of the store: later updates, growth or
// Destroy never change it.
func (s *MemoryStore) Lookup(key string) (string, error) {
	if s == nil {
		return "", ErrNilStore
	}

	if key == "" {
		return "", ErrEmptyKey
	}

	hash := xxhash.Sum64String(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.table == nil {
		return "", ErrStoreDestroyed
	}

	idx := s.table.find(key, hash)
	if idx < 0 {
		return "", fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}

	return s.table.slots[idx].value, nil
}

// AddCount returns the number of successful Upsert calls.
func (s *MemoryStore) AddCount() uint64 {
	if s == nil {
		return 0
	}

	return s.addCount.Load()
}

// Len returns the number of live pairs. It is 0 after Destroy.
func (s *MemoryStore) Len() int {
	if s == nil {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.table == nil {
		return 0
	}

	return s.table.count
}

// Cap returns the number of allocated slots. It is 0 after Destroy.
func (s *MemoryStore) Cap() int {
	if s == nil {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.table == nil {
		return 0
	}

	return s.table.capacity()
}

// Stats returns a point-in-time diagnostic view of the store.
func (s *MemoryStore) Stats() Stats {
	if s == nil {
		return Stats{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{
		ID:         s.id,
		AddCount:   s.addCount.Load(),
		Growths:    s.growths.Load(),
		BytesInUse: s.bytesInUse,
		Destroyed:  s.table == nil,
	}

	if s.table != nil {
		stats.Count = s.table.count
		stats.Capacity = s.table.capacity()
	}

	return stats
}

// Snapshot returns copies of all live pairs in insertion order.
func (s *MemoryStore) Snapshot() ([]Pair, error) {
	if s == nil {
		return nil, ErrNilStore
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.table == nil {
		return nil, ErrStoreDestroyed
	}

	pairs := make([]Pair, 0, s.table.count)
	for _, slot := range s.table.slots[:s.table.count] {
		pairs = append(pairs, Pair{Key: slot.key, Value: slot.value})
	}

	return pairs, nil
}

// Destroy releases every stored pair and the slot array.
//
// It is a no-op on a nil handle and on a destroyed store. Callers must make
// sure no other goroutine still depends on the store; operations that run
// after Destroy fail with ErrStoreDestroyed.
func (s *MemoryStore) Destroy() {
	if s == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.table == nil {
		return
	}

	count, released := s.table.count, s.bytesInUse

	s.table.release()
	s.table = nil
	s.bytesInUse = 0

	s.logger.WithFields(logrus.Fields{
		"pairs":    count,
		"released": humanize.IBytes(released),
		"upserts":  s.addCount.Load(),
	}).Debug("store destroyed")
}

// growLocked relocates the pairs into a slot array of twice the capacity.
// Precondition: s.mu must be held by caller and s.table must be non-nil.
func (s *MemoryStore) growLocked() error {
	oldCapacity := s.table.capacity()

	if oldCapacity > s.maxCapacity/growthFactor {
		s.logger.WithFields(logrus.Fields{
			"capacity":     oldCapacity,
			"max_capacity": s.maxCapacity,
		}).Warn("store growth rejected")

		return fmt.Errorf(
			"%w: cannot grow %d slots by a factor of %d (max %d)",
			ErrCapacityExhausted, oldCapacity, growthFactor, s.maxCapacity,
		)
	}

	newCapacity := oldCapacity * growthFactor
	s.table = s.table.grow(newCapacity)
	s.growths.Add(1)

	s.logger.WithFields(logrus.Fields{
		"old_capacity": oldCapacity,
		"new_capacity": newCapacity,
		"in_use":       humanize.IBytes(s.bytesInUse),
	}).Debug("store relocated")

	return nil
}

// checkBudgetLocked verifies that adding required bytes to inUse stays within MaxBytes.
// Precondition: s.mu must be held by caller.
func (s *MemoryStore) checkBudgetLocked(inUse, required uint64) error {
	if required <= s.maxBytes && inUse <= s.maxBytes-required {
		return nil
	}

	s.logger.WithFields(logrus.Fields{
		"in_use":    humanize.IBytes(inUse),
		"required":  humanize.IBytes(required),
		"max_bytes": humanize.IBytes(s.maxBytes),
	}).Warn("store memory budget exceeded")

	return fmt.Errorf(
		"%w: %s in use, %s required, limit %s",
		ErrMemoryBudgetExceeded,
		humanize.IBytes(inUse), humanize.IBytes(required), humanize.IBytes(s.maxBytes),
	)
}
