package kv

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// parseSizeValue parses a size value that can be either a number (bytes) or a string like "64mb".
// Caller is responsible for wrapping the error, if it's used in JS code.
func parseSizeValue(v any) (uint64, error) {
	switch x := v.(type) {
	case int64:
		if x < 0 {
			return 0, fmt.Errorf("negative size: %d", x)
		}

		return uint64(x), nil
	case int:
		if x < 0 {
			return 0, fmt.Errorf("negative size: %d", x)
		}

		return uint64(x), nil
	case int32:
		if x < 0 {
			return 0, fmt.Errorf("negative size: %d", x)
		}

		return uint64(x), nil
	case uint64:
		return x, nil
	case uint:
		return uint64(x), nil
	case uint32:
		return uint64(x), nil
	case float64:
		if x < 0 {
			return 0, fmt.Errorf("negative size: %f", x)
		}

		if math.Trunc(x) != x {
			return 0, fmt.Errorf("size must be a whole number of bytes: %f", x)
		}

		if x >= math.MaxUint64 {
			return 0, fmt.Errorf("size too large: %f", x)
		}

		return uint64(x), nil
	case string:
		size, err := humanize.ParseBytes(x)
		if err != nil {
			return 0, fmt.Errorf("invalid size string %q: %w", x, err)
		}

		return size, nil
	default:
		return 0, fmt.Errorf("unsupported size type: %T", x)
	}
}
