package avstream

import (
	"fmt"
	"math"
)

// NoPTS marks a packet without a presentation timestamp.
const NoPTS int64 = math.MinInt64

// Rational is a time base: one tick lasts Num/Den seconds.
type Rational struct {
	Num int
	Den int
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// IsZero reports whether the time base is unset.
func (r Rational) IsZero() bool {
	return r.Num == 0 || r.Den == 0
}

// Float returns the duration of one tick in seconds.
func (r Rational) Float() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// Seconds converts ts ticks to seconds.
func (r Rational) Seconds(ts int64) float64 {
	return float64(ts) * r.Float()
}

// Ticks converts seconds to ticks of r, truncating toward zero. Results
// outside the int64 range saturate at math.MaxInt64 or -math.MaxInt64, so
// they never collide with NoPTS. An unset time base or NaN yields 0.
func (r Rational) Ticks(seconds float64) int64 {
	if r.IsZero() || math.IsNaN(seconds) {
		return 0
	}
	v := seconds * float64(r.Den) / float64(r.Num)
	switch {
	case v >= math.MaxInt64:
		return math.MaxInt64
	case v <= -math.MaxInt64:
		return -math.MaxInt64
	}
	return int64(v)
}
