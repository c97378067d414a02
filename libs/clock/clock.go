// Package clock abstracts time for code that needs to be tested against a
// controlled clock, such as debounce timers and persistence timestamps.
package clock

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type clock struct{}

// New returns a Clock backed by the system time.
func New() Clock {
	return &clock{}
}

func (c *clock) Now() time.Time {
	return time.Now()
}

// ManagedClock is a Clock whose time only moves when told to. Intended for
// tests.
type ManagedClock struct {
	startTime time.Time
	offset    time.Duration
}

// NewManaged returns a ManagedClock frozen at startTime.
func NewManaged(startTime time.Time) *ManagedClock {
	return &ManagedClock{startTime: startTime}
}

// Now returns the managed time.
func (c *ManagedClock) Now() time.Time {
	return c.startTime.Add(c.offset)
}

// WarpForward advances the managed time by offset and returns the new time.
// There is deliberately no way to move time backwards.
func (c *ManagedClock) WarpForward(offset time.Duration) time.Time {
	c.offset += offset
	return c.startTime.Add(c.offset)
}
