package data

import "time"

// TimeProvider abstracts the clock so repository tests can control time.
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider implements TimeProvider using the system clock.
type RealTimeProvider struct{}

// Now returns the current system time.
func (r *RealTimeProvider) Now() time.Time {
	return time.Now()
}

// FixedTimeProvider implements TimeProvider with a settable fixed time.
type FixedTimeProvider struct {
	fixedTime time.Time
}

// NewFixedTimeProvider creates a FixedTimeProvider pinned to t.
func NewFixedTimeProvider(t time.Time) *FixedTimeProvider {
	return &FixedTimeProvider{fixedTime: t}
}

// Now returns the fixed time.
func (f *FixedTimeProvider) Now() time.Time {
	return f.fixedTime
}

// SetTime moves the fixed clock to t.
func (f *FixedTimeProvider) SetTime(t time.Time) {
	f.fixedTime = t
}

// AddTime advances the fixed clock by d.
func (f *FixedTimeProvider) AddTime(d time.Duration) {
	f.fixedTime = f.fixedTime.Add(d)
}
