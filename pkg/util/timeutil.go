package util

import "time"

// Clock yields the current time. Stores take one so tests can pin time.
type Clock func() time.Time

// NowUTC is the production Clock.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// OrNow falls back to NowUTC when clock is nil.
func (c Clock) OrNow() Clock {
	if c == nil {
		return NowUTC
	}
	return c
}
