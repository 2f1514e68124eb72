// Package clock abstracts wall-clock time so that time-dependent
// rules (booking cutoffs, cancellation cutoffs) can be tested with
// a fixed clock.
package clock

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// Real reads the system clock in UTC.
type Real struct{}

func NewReal() Clock {
	return Real{}
}

func (Real) Now() time.Time {
	return time.Now().UTC()
}

// Mock is a settable clock for tests.
type Mock struct {
	current time.Time
}

func NewMock(t time.Time) *Mock {
	return &Mock{current: t}
}

func (m *Mock) Now() time.Time {
	return m.current
}

// Set moves the clock to t.
func (m *Mock) Set(t time.Time) {
	m.current = t
}

// Add advances the clock by d.
func (m *Mock) Add(d time.Duration) {
	m.current = m.current.Add(d)
}
