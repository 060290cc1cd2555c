package kv

import (
	"fmt"

	"github.com/grafana/sobek"
	"github.com/sirupsen/logrus"
	"go.k6.io/k6/js/common"
	"go.k6.io/k6/js/modules"

	"github.com/oshokin/xk6-kvarray/kv/store"
)

// Options controls how the shared store is created on the first call to openKv().
type Options struct {
	// InitialCapacity is the number of slots allocated when the store is created.
	// When 0, store.DefaultInitialCapacity is used.
	InitialCapacity int `js:"initialCapacity"`

	// MaxCapacity caps the number of slots. Growth that would double the
	// capacity past it fails with CapacityExhaustedError. 0 means unbounded.
	MaxCapacity int `js:"maxCapacity"`

	// MaxBytes caps the bytes owned by stored keys and values. 0 means unbounded.
	//
	// Accepted types:
	//   - number: bytes.
	//   - string: size, e.g. "64MB", "1GiB".
	MaxBytes any `js:"maxBytes"`

	// maxBytes is MaxBytes after parsing.
	maxBytes uint64
}

// NewOptionsFrom converts a Sobek (JS) value into an Options instance, applying defaults
// and validating user input. It's intentionally strict to fail fast on invalid configs.
func NewOptionsFrom(vu modules.VU, options sobek.Value) (Options, error) {
	var opts Options

	if common.IsNullish(options) {
		return opts.normalized(), nil
	}

	if err := vu.Runtime().ExportTo(options, &opts); err != nil {
		return opts, fmt.Errorf("%w: %w", ErrKVOptionsInvalid, err)
	}

	if err := opts.Validate(); err != nil {
		return opts, err
	}

	return opts.normalized(), nil
}

// Validate checks the option values and parses MaxBytes.
func (o *Options) Validate() error {
	if o.InitialCapacity < 0 {
		return fmt.Errorf("%w: initialCapacity must not be negative: %d", ErrKVOptionsInvalid, o.InitialCapacity)
	}

	if o.MaxCapacity < 0 {
		return fmt.Errorf("%w: maxCapacity must not be negative: %d", ErrKVOptionsInvalid, o.MaxCapacity)
	}

	initialCapacity := (&store.MemoryConfig{InitialCapacity: o.InitialCapacity}).GetInitialCapacity()
	if o.MaxCapacity > 0 && initialCapacity > o.MaxCapacity {
		return fmt.Errorf(
			"%w: initialCapacity %d exceeds maxCapacity %d",
			ErrKVOptionsInvalid, initialCapacity, o.MaxCapacity,
		)
	}

	if o.MaxBytes != nil {
		size, err := parseSizeValue(o.MaxBytes)
		if err != nil {
			return fmt.Errorf("%w: maxBytes: %w", ErrKVOptionsInvalid, err)
		}

		o.maxBytes = size
	}

	return nil
}

// Equal checks if two Options describe the same store.
func (o Options) Equal(other Options) bool {
	left, right := o.normalized(), other.normalized()

	return left.InitialCapacity == right.InitialCapacity &&
		left.MaxCapacity == right.MaxCapacity &&
		left.maxBytes == right.maxBytes
}

// ToMemoryConfig converts Options into a store-level MemoryConfig.
func (o Options) ToMemoryConfig(logger logrus.FieldLogger) *store.MemoryConfig {
	normalized := o.normalized()

	return &store.MemoryConfig{
		InitialCapacity: normalized.InitialCapacity,
		MaxCapacity:     normalized.MaxCapacity,
		MaxBytes:        normalized.maxBytes,
		Logger:          logger,
	}
}

// normalized collapses automatic values into a single comparable form.
func (o Options) normalized() Options {
	o.InitialCapacity = (&store.MemoryConfig{InitialCapacity: o.InitialCapacity}).GetInitialCapacity()

	if o.MaxCapacity < 0 {
		o.MaxCapacity = 0
	}

	if o.maxBytes == 0 && o.MaxBytes != nil {
		if size, err := parseSizeValue(o.MaxBytes); err == nil {
			o.maxBytes = size
		}
	}

	return o
}
