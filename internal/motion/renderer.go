// Package motion renders a per-interval displacement as a paced sequence of
// integer pointer deltas.
package motion

import (
	"fmt"
	"math"
	"time"

	"glide/internal/input"
)

// DefaultRateHz is the micro-step rate used when none is configured
const DefaultRateHz = 240

// MaxIntervalMs bounds a single render so Interval and the step count stay in
// range for callers that do not clamp their parameters
const MaxIntervalMs = 60000.0

const (
	// coarseSleep is the pacing sleep used while the deadline is still far away
	coarseSleep = 1500 * time.Microsecond
	// fineThreshold is the remaining time below which pacing only yields
	fineThreshold = 2 * time.Millisecond
)

// Request is the displacement to spread over one interval
type Request struct {
	DX         float64
	DY         float64
	IntervalMs float64
}

// Sanitize treats non-finite displacement as no motion and clamps the interval
// to [1, MaxIntervalMs] milliseconds.
func (r Request) Sanitize() Request {
	if !finite(r.DX) {
		r.DX = 0
	}
	if !finite(r.DY) {
		r.DY = 0
	}
	if !finite(r.IntervalMs) || r.IntervalMs < 1 {
		r.IntervalMs = 1
	}
	if r.IntervalMs > MaxIntervalMs {
		r.IntervalMs = MaxIntervalMs
	}
	return r
}

// Interval returns the request interval as a duration
func (r Request) Interval() time.Duration {
	return time.Duration(r.IntervalMs * float64(time.Millisecond))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Canceller is polled at every step and every pacing wait
type Canceller interface {
	IsCancelled() bool
}

// Result describes one render call
type Result struct {
	// Steps is the number of micro-steps planned for the interval
	Steps int
	// Run is the number of micro-steps actually executed
	Run int
	// Calls is the number of injection calls issued
	Calls int
	// Failures is the number of injection calls that returned an error
	Failures int
	// LastErr is the most recent injection error, if any
	LastErr error
	SumX    int
	SumY    int
	// Cancelled is set when the render stopped before its last step
	Cancelled bool
	// MaxOvershoot is the worst amount a pacing wait ended past its deadline
	MaxOvershoot time.Duration
}

// Options configures a Renderer
type Options struct {
	// RateHz is the micro-step rate. Zero means DefaultRateHz.
	RateHz int
	// Clock is the pacing time source. Nil means SystemClock.
	Clock Clock
}

// Renderer emits paced micro-steps through an injector. A Renderer is not safe
// for concurrent Render calls; the arbiter never overlaps them.
type Renderer struct {
	injector input.Injector
	rateHz   int
	clock    Clock
}

// NewRenderer creates a renderer writing to inj
func NewRenderer(inj input.Injector, opts Options) *Renderer {
	if inj == nil {
		inj = input.Discard{}
	}
	if opts.RateHz <= 0 {
		opts.RateHz = DefaultRateHz
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	return &Renderer{
		injector: inj,
		rateHz:   opts.RateHz,
		clock:    opts.Clock,
	}
}

// RateHz returns the configured micro-step rate
func (r *Renderer) RateHz() int {
	return r.rateHz
}

// Steps returns the micro-step count for an interval of intervalMs
func (r *Renderer) Steps(intervalMs float64) int {
	return StepCount(intervalMs, r.rateHz)
}

// StepCount returns max(1, floor(intervalMs/1000 * rateHz))
func StepCount(intervalMs float64, rateHz int) int {
	steps := int(math.Floor(intervalMs * float64(rateHz) / 1000))
	if steps < 1 {
		return 1
	}
	return steps
}

// Render spreads req over its interval. It returns once every step is emitted
// and paced, or as soon as cancel is observed. Emitted steps are never undone.
func (r *Renderer) Render(req Request, cancel Canceller) Result {
	req = req.Sanitize()
	steps := r.Steps(req.IntervalMs)
	res := Result{Steps: steps}

	if steps == 1 {
		if isCancelled(cancel) {
			res.Cancelled = true
			return res
		}
		res.Run = 1
		r.emit(Round(req.DX), Round(req.DY), &res)
		return res
	}

	stepper := NewStepper(req.DX, req.DY, steps)
	interval := req.Interval()
	start := r.clock.Now()

	for i := 1; i <= steps; i++ {
		if isCancelled(cancel) {
			res.Cancelled = true
			return res
		}

		moveX, moveY := stepper.Next()
		res.Run++
		r.emit(moveX, moveY, &res)

		due := start.Add(interval * time.Duration(i) / time.Duration(steps))
		overshoot, ok := r.waitUntil(due, cancel)
		if !ok {
			res.Cancelled = i < steps
			return res
		}
		if overshoot > res.MaxOvershoot {
			res.MaxOvershoot = overshoot
		}
	}
	return res
}

// waitUntil sleeps in short increments until due, then reports how far past due
// it returned. It reports false if cancel is observed first.
func (r *Renderer) waitUntil(due time.Time, cancel Canceller) (time.Duration, bool) {
	for {
		if isCancelled(cancel) {
			return 0, false
		}
		remaining := due.Sub(r.clock.Now())
		if remaining <= 0 {
			return -remaining, true
		}
		if remaining > fineThreshold {
			r.clock.Sleep(coarseSleep)
		} else {
			r.clock.Yield()
		}
	}
}

func (r *Renderer) emit(moveX, moveY int, res *Result) {
	if moveX == 0 && moveY == 0 {
		return
	}
	res.Calls++
	res.SumX += moveX
	res.SumY += moveY
	if err := r.inject(moveX, moveY); err != nil {
		res.Failures++
		res.LastErr = err
	}
}

// inject swallows panics from the platform primitive so one bad call cannot end
// the session.
func (r *Renderer) inject(dx, dy int) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("injector panic: %v", p)
		}
	}()
	return r.injector.InjectMouseMove(dx, dy)
}

func isCancelled(c Canceller) bool {
	return c != nil && c.IsCancelled()
}
