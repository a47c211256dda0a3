package domain

import "github.com/jonboulle/clockwork"

// orRealClock returns c, or the wall clock when c is nil. Components take the
// clock as a constructor argument so tests can freeze time with a fake.
func orRealClock(c clockwork.Clock) clockwork.Clock {
	if c == nil {
		return clockwork.NewRealClock()
	}
	return c
}
