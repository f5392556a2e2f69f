// Package shard partitions a fixed number of items into contiguous index ranges.
package shard

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument indicates a shard plan was requested with unusable inputs.
var ErrInvalidArgument = errors.New("invalid argument")

// MaxShards is the largest shard count Plan accepts.
const MaxShards = 10000

// Range is a half-open interval [start, end) of item indexes owned by one shard.
type Range struct {
	index int
	start int
	end   int
}

// NewRange creates a Range.
func NewRange(index, start, end int) Range {
	return Range{index: index, start: start, end: end}
}

// Index returns the zero-based shard index.
func (r Range) Index() int { return r.index }

// Start returns the first item index in the shard.
func (r Range) Start() int { return r.start }

// End returns the index after the last item in the shard.
func (r Range) End() int { return r.end }

// Len returns the number of items in the shard.
func (r Range) Len() int { return r.end - r.start }

// IsEmpty reports whether the shard owns no items.
func (r Range) IsEmpty() bool { return r.end == r.start }

// String returns a readable representation, e.g. "shard 3 [300, 400)".
func (r Range) String() string {
	return fmt.Sprintf("shard %d [%d, %d)", r.index, r.start, r.end)
}

// Plan splits totalItems into numShards contiguous ranges. Every shard gets
// totalItems/numShards items and the last shard also takes the remainder, so
// the ranges cover [0, totalItems) exactly once.
func Plan(totalItems, numShards int) ([]Range, error) {
	if numShards < 1 {
		return nil, fmt.Errorf("%w: shard count must be at least 1, got %d", ErrInvalidArgument, numShards)
	}
	if numShards > MaxShards {
		return nil, fmt.Errorf("%w: shard count must be at most %d, got %d", ErrInvalidArgument, MaxShards, numShards)
	}
	if totalItems < 0 {
		return nil, fmt.Errorf("%w: total items must not be negative, got %d", ErrInvalidArgument, totalItems)
	}

	base := totalItems / numShards
	ranges := make([]Range, numShards)
	for i := range numShards - 1 {
		ranges[i] = NewRange(i, i*base, (i+1)*base)
	}
	last := numShards - 1
	ranges[last] = NewRange(last, last*base, totalItems)

	return ranges, nil
}

// Validate checks that ranges are indexed in order and cover [0, totalItems)
// with no gap or overlap.
func Validate(ranges []Range, totalItems int) error {
	if len(ranges) == 0 {
		return fmt.Errorf("%w: no shard ranges", ErrInvalidArgument)
	}

	next := 0
	for i, r := range ranges {
		if r.index != i {
			return fmt.Errorf("%w: range at position %d has index %d", ErrInvalidArgument, i, r.index)
		}
		if r.start != next {
			return fmt.Errorf("%w: %s does not start at %d", ErrInvalidArgument, r, next)
		}
		if r.end < r.start {
			return fmt.Errorf("%w: %s ends before it starts", ErrInvalidArgument, r)
		}
		next = r.end
	}
	if next != totalItems {
		return fmt.Errorf("%w: ranges end at %d, want %d", ErrInvalidArgument, next, totalItems)
	}
	return nil
}

// EmptyCount returns how many ranges own no items.
func EmptyCount(ranges []Range) int {
	n := 0
	for _, r := range ranges {
		if r.IsEmpty() {
			n++
		}
	}
	return n
}
