package store

import "errors"

var (
	// ErrCapacityExhausted is returned when the slot array cannot grow any further.
	ErrCapacityExhausted = errors.New("store capacity exhausted")
	// ErrEmptyKey is returned when an operation is invoked with an empty key.
	ErrEmptyKey = errors.New("key must not be empty")
	// ErrEmptyValue is returned when Upsert is invoked with an empty value.
	ErrEmptyValue = errors.New("value must not be empty")
	// ErrInvalidCapacity is returned when a negative capacity is configured.
	ErrInvalidCapacity = errors.New("invalid store capacity")
	// ErrKeyNotFound is returned by Lookup when no pair has the requested key.
	ErrKeyNotFound = errors.New("key not found")
	// ErrMemoryBudgetExceeded is returned when storing a key or value would exceed MaxBytes.
	ErrMemoryBudgetExceeded = errors.New("store memory budget exceeded")
	// ErrNilStore is returned when an operation is invoked on a nil store handle.
	ErrNilStore = errors.New("store handle is nil")
	// ErrStoreDestroyed is returned when an operation is invoked after Destroy.
	ErrStoreDestroyed = errors.New("store is destroyed")
)
