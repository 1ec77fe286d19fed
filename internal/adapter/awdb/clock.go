package awdb

import "github.com/jonboulle/clockwork"

// clock supplies the current time for lookback window computation. Tests pin
// it with SetClock.
var clock = clockwork.NewRealClock()

// SetClock replaces the package clock. Passing nil restores the real clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
