package motion

import (
	"runtime"
	"time"
)

// Clock is the time source used for pacing
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
	// Yield gives up the processor without blocking.
	Yield()
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }
func (systemClock) Yield()                { runtime.Gosched() }

// SystemClock returns the wall clock. time.Now carries a monotonic reading, so
// deadlines computed from it are unaffected by wall-clock adjustments.
func SystemClock() Clock {
	return systemClock{}
}
