package types

import "math"

// Interval is a closed range [Min, Max] along a single axis. An interval
// with Min > Max contains nothing.
type Interval struct {
	Min, Max float32
}

var (
	// The empty interval; it is the identity element for Union.
	EmptyInterval = Interval{Min: float32(math.Inf(1)), Max: float32(math.Inf(-1))}

	// An interval that contains every finite value.
	UniverseInterval = Interval{Min: float32(math.Inf(-1)), Max: float32(math.Inf(1))}
)

// Create the smallest interval containing both intervals.
func (i Interval) Union(other Interval) Interval {
	out := i
	if other.Min < out.Min {
		out.Min = other.Min
	}
	if other.Max > out.Max {
		out.Max = other.Max
	}
	return out
}

// Returns Max - Min. Empty intervals report a negative size.
func (i Interval) Size() float32 {
	return i.Max - i.Min
}

// Returns true if x lies inside the closed interval.
func (i Interval) Contains(x float32) bool {
	return x >= i.Min && x <= i.Max
}

// Returns true if x lies strictly inside the interval.
func (i Interval) Surrounds(x float32) bool {
	return x > i.Min && x < i.Max
}

// Returns true if other lies completely inside this interval. The empty
// interval is contained by every interval.
func (i Interval) ContainsInterval(other Interval) bool {
	if other.IsEmpty() {
		return true
	}
	return other.Min >= i.Min && other.Max <= i.Max
}

// Returns true if the interval contains no values.
func (i Interval) IsEmpty() bool {
	return i.Min > i.Max
}

// Pad the interval by delta, split evenly between both ends.
func (i Interval) Expand(delta float32) Interval {
	padding := delta / 2
	return Interval{Min: i.Min - padding, Max: i.Max + padding}
}
