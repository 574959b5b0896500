package core

import (
	"fmt"
	"math"
)

// Range is a closed interval of call counts, optionally unbounded above.
type Range struct {
	Lower   int
	Upper   int
	Bounded bool
}

// AtLeast returns a range with no upper bound.
func AtLeast(lower int) Range {
	mustBeValidRange(lower, math.MaxInt)

	return Range{Lower: lower, Upper: math.MaxInt}
}

// AtMost returns the range 0...upper.
func AtMost(upper int) Range {
	return Between(0, upper)
}

// Between returns the closed range lower...upper.
func Between(lower, upper int) Range {
	mustBeValidRange(lower, upper)

	return Range{Lower: lower, Upper: upper, Bounded: true}
}

// Exactly returns the range n...n.
func Exactly(n int) Range {
	return Between(n, n)
}

// HalfOpen returns the range lower..<upper.
func HalfOpen(lower, upper int) Range {
	return Between(lower, upper-1)
}

// Contains reports whether count lies within the range.
func (r Range) Contains(count int) bool {
	if count < r.Lower {
		return false
	}

	return !r.Bounded || count <= r.Upper
}

// Exceeded reports whether count lies above a bounded range.
func (r Range) Exceeded(count int) bool {
	return r.Bounded && count > r.Upper
}

// String renders the range as "2...4" or "2...".
func (r Range) String() string {
	if !r.Bounded {
		return fmt.Sprintf("%d...", r.Lower)
	}

	return fmt.Sprintf("%d...%d", r.Lower, r.Upper)
}

func mustBeValidRange(lower, upper int) {
	if lower < 0 || upper < lower {
		panic(fmt.Sprintf("invalid call count range: lower %d, upper %d", lower, upper))
	}
}
