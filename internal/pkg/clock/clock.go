// Package clock abstracts the time source so validity and approval
// decisions can be replayed at a fixed instant in tests.
package clock

import "time"

// Clock supplies the current instant. Code that evaluates validity windows
// takes one instead of calling time.Now directly.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func NewRealClock() Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now() }

// MockClock reports a fixed instant that tests move explicitly.
type MockClock struct {
	current time.Time
}

func NewMockClock(t time.Time) *MockClock {
	return &MockClock{current: t}
}

func (c *MockClock) Now() time.Time { return c.current }

// Set jumps the clock to t.
func (c *MockClock) Set(t time.Time) { c.current = t }

// Add advances the clock by d.
func (c *MockClock) Add(d time.Duration) { c.current = c.current.Add(d) }
