package core

import "time"

// Clock is the trusted time source. All "is this date writable" checks go
// through it instead of client-supplied timestamps to prevent clock-skew abuse.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a plain function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// RealClock returns the wall clock in UTC.
func RealClock() Clock {
	return ClockFunc(func() time.Time { return time.Now().UTC() })
}

// FixedClock returns a Clock frozen at t; for tests.
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}
