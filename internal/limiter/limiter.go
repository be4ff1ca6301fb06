// Package limiter cuts a record set down before it is paged: skip the first
// N records, keep at most N, or keep only the last N.
package limiter

import (
	"errors"
	"fmt"
)

// Config holds the record-limiting parameters.
type Config struct {
	Limit  int // keep at most this many records (0 = unlimited)
	Offset int // skip the first N records (0 = no skip)
	Tail   int // keep only the last N records (0 = disabled); excludes Limit
}

// Validate rejects negative values and Limit combined with Tail. Offset is
// ignored when Tail is set.
func (c Config) Validate() error {
	var errs []error
	if c.Limit < 0 {
		errs = append(errs, fmt.Errorf("--limit must be non-negative, got %d", c.Limit))
	}
	if c.Offset < 0 {
		errs = append(errs, fmt.Errorf("--offset must be non-negative, got %d", c.Offset))
	}
	if c.Tail < 0 {
		errs = append(errs, fmt.Errorf("--tail must be non-negative, got %d", c.Tail))
	}
	if c.Limit > 0 && c.Tail > 0 {
		errs = append(errs, errors.New("--limit and --tail are mutually exclusive"))
	}
	return errors.Join(errs...)
}

// IsActive reports whether any limiting is configured.
func (c Config) IsActive() bool {
	return c.Limit > 0 || c.Offset > 0 || c.Tail > 0
}

// Bounds returns the half-open range of a length-n slice that survives c.
func (c Config) Bounds(n int) (start, end int) {
	if c.Tail > 0 {
		return max(n-c.Tail, 0), n
	}
	start = min(max(c.Offset, 0), n)
	end = n
	if c.Limit > 0 {
		end = min(start+c.Limit, n)
	}
	return start, end
}

// Apply returns the records of items that survive c. The result shares the
// backing array of items.
func Apply[T any](c Config, items []T) []T {
	if !c.IsActive() {
		return items
	}
	start, end := c.Bounds(len(items))
	return items[start:end]
}
