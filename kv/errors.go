package kv

import (
	"errors"

	"github.com/oshokin/xk6-kvarray/kv/store"
)

var _ error = (*Error)(nil)

var (
	// ErrKVOptionsConflict is returned when openKv() is called with options that
	// differ from the ones the shared store was created with.
	ErrKVOptionsConflict = errors.New("kv options conflict with the already opened store")
	// ErrKVOptionsInvalid is returned when openKv() options cannot be decoded or validated.
	ErrKVOptionsInvalid = errors.New("invalid kv options")
)

// ErrorName represents the name of an error.
type ErrorName string

const (
	// CapacityExhaustedError is emitted when the store cannot grow any further.
	CapacityExhaustedError ErrorName = "CapacityExhaustedError"

	// DatabaseNotOpenError is emitted when the database is accessed before it is opened
	// or after it is closed.
	DatabaseNotOpenError ErrorName = "DatabaseNotOpenError"

	// InvalidArgumentError is emitted when a key or value is empty.
	InvalidArgumentError ErrorName = "InvalidArgumentError"

	// InvalidOptionsError is emitted when openKv() options are invalid or conflicting.
	InvalidOptionsError ErrorName = "InvalidOptionsError"

	// KeyNotFoundError is emitted when lookup() finds no pair for the key.
	KeyNotFoundError ErrorName = "KeyNotFoundError"

	// MemoryBudgetExceededError is emitted when an upsert would exceed maxBytes.
	MemoryBudgetExceededError ErrorName = "MemoryBudgetExceededError"

	// StoreDestroyedError is emitted when the shared store was destroyed underneath a KV.
	StoreDestroyedError ErrorName = "StoreDestroyedError"
)

// Error represents a custom error emitted by the kv module.
type Error struct {
	// Name contains one of the strings associated with an error name.
	Name ErrorName `js:"name"`

	// Message represents message or description associated with the given error name.
	Message string `js:"message"`
}

// NewError returns a new Error instance.
func NewError(name ErrorName, message string) *Error {
	return &Error{
		Name:    name,
		Message: message,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return string(e.Name) + ": " + e.Message
}

// classifyError downgrades internal Go errors to structured kv errors for JS.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var kvErr *Error
	if errors.As(err, &kvErr) {
		return kvErr
	}

	switch {
	case errors.Is(err, store.ErrKeyNotFound):
		return NewError(KeyNotFoundError, err.Error())
	case errors.Is(err, store.ErrEmptyKey),
		errors.Is(err, store.ErrEmptyValue):
		return NewError(InvalidArgumentError, err.Error())
	case errors.Is(err, store.ErrCapacityExhausted):
		return NewError(CapacityExhaustedError, err.Error())
	case errors.Is(err, store.ErrMemoryBudgetExceeded):
		return NewError(MemoryBudgetExceededError, err.Error())
	case errors.Is(err, store.ErrStoreDestroyed):
		return NewError(StoreDestroyedError, err.Error())
	case errors.Is(err, store.ErrNilStore):
		return NewError(DatabaseNotOpenError, err.Error())
	case errors.Is(err, ErrKVOptionsConflict),
		errors.Is(err, ErrKVOptionsInvalid),
		errors.Is(err, store.ErrInvalidCapacity):
		return NewError(InvalidOptionsError, err.Error())
	}

	return err
}
