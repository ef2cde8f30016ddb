package clock

import "time"

// Clock supplies the current instant. Booking classification depends on
// "now", so callers inject a Clock instead of reading the wall clock inline;
// tests substitute a fixed instant to pin boundary behavior.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// System returns a Clock backed by the wall clock in UTC.
func System() Clock {
	return systemClock{}
}

// Fixed is a Clock frozen at a single instant.
type Fixed struct {
	Instant time.Time
}

func (f Fixed) Now() time.Time {
	return f.Instant
}
