package store

import (
	"io"
	"math"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultInitialCapacity is the slot count used when no initial capacity is configured.
	DefaultInitialCapacity = 8

	// growthFactor is the fixed multiplier applied to the capacity on growth.
	growthFactor = 2
)

// MemoryConfig holds memory-store-specific configuration.
type MemoryConfig struct {
	// InitialCapacity is the number of slots allocated up front.
	// If 0, DefaultInitialCapacity is used. Negative values are rejected.
	InitialCapacity int
	// MaxCapacity caps the number of slots the store may ever hold.
	// If <= 0, growth is bounded only by the platform.
	MaxCapacity int
	// MaxBytes caps the bytes owned by stored keys and values.
	// If 0, no budget is enforced.
	MaxBytes uint64
	// Logger receives lifecycle and growth events. If nil, events are discarded.
	Logger logrus.FieldLogger
}

// GetInitialCapacity returns the initial capacity, substituting the default for 0.
func (cfg *MemoryConfig) GetInitialCapacity() int {
	if cfg == nil || cfg.InitialCapacity == 0 {
		return DefaultInitialCapacity
	}

	return cfg.InitialCapacity
}

// GetMaxCapacity returns the effective slot cap.
func (cfg *MemoryConfig) GetMaxCapacity() int {
	if cfg == nil || cfg.MaxCapacity <= 0 {
		return math.MaxInt
	}

	return cfg.MaxCapacity
}

// GetMaxBytes returns the effective byte budget.
func (cfg *MemoryConfig) GetMaxBytes() uint64 {
	if cfg == nil || cfg.MaxBytes == 0 {
		return math.MaxUint64
	}

	return cfg.MaxBytes
}

// GetLogger returns the configured logger or one that discards everything.
func (cfg *MemoryConfig) GetLogger() logrus.FieldLogger {
	if cfg != nil && cfg.Logger != nil {
		return cfg.Logger
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return logger
}
