// Package trigger decides, from the arm and fire buttons, when the motion
// renderer runs.
package trigger

import (
	"time"

	"glide/internal/gate"
	"glide/internal/motion"
	"glide/internal/params"
)

// State is the arbiter's position in the arm/fire state machine
type State int32

const (
	Idle State = iota
	Armed
	Firing
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Firing:
		return "firing"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Poll periods for the waiting states and the cadence wait after a render
const (
	IdlePoll    = 4 * time.Millisecond
	ArmedPoll   = 2 * time.Millisecond
	CadencePoll = 1500 * time.Microsecond
)

// ParamSource supplies the latest motion parameters
type ParamSource interface {
	Params() params.Params
}

// Renderer runs one interval of motion
type Renderer interface {
	Render(req motion.Request, cancel motion.Canceller) motion.Result
}

// Observer receives arbiter events. Callbacks run on the arbiter goroutine and
// must return quickly.
type Observer struct {
	OnTransition func(from, to State)
	OnRender     func(req motion.Request, res motion.Result)
}

// Arbiter is the polling state machine over the arm and fire signals
type Arbiter struct {
	signals  *gate.Signals
	token    *gate.Token
	params   ParamSource
	renderer Renderer
	clock    motion.Clock
	observer Observer
	state    State
}

// NewArbiter creates an arbiter in the Idle state
func NewArbiter(signals *gate.Signals, token *gate.Token, src ParamSource, r Renderer, clock motion.Clock, obs Observer) *Arbiter {
	if clock == nil {
		clock = motion.SystemClock()
	}
	return &Arbiter{
		signals:  signals,
		token:    token,
		params:   src,
		renderer: r,
		clock:    clock,
		observer: obs,
		state:    Idle,
	}
}

// State returns the current state. Only meaningful on the arbiter goroutine or
// after Run returns; the engine mirrors it through OnTransition.
func (a *Arbiter) State() State {
	return a.state
}

// Run drives the state machine until the token is cancelled. It always returns
// in the Stopped state; running it again starts over from Idle.
func (a *Arbiter) Run() {
	if a.state == Stopped {
		a.transition(Idle)
	}
	for {
		if a.token.IsCancelled() {
			a.transition(Stopped)
			return
		}

		next := a.decide()
		if next != a.state {
			a.transition(next)
			continue
		}

		switch a.state {
		case Idle:
			a.clock.Sleep(IdlePoll)
		case Armed:
			a.clock.Sleep(ArmedPoll)
		case Firing:
			a.fire()
		}
	}
}

// decide reads both signals fresh and returns the state they call for
func (a *Arbiter) decide() State {
	armed := a.signals.Armed()
	switch {
	case !armed:
		return Idle
	case a.state == Idle:
		return Armed
	case a.signals.Firing():
		return Firing
	default:
		return Armed
	}
}

// fire renders one interval with a fresh parameter snapshot, then sleeps out
// whatever is left of the interval while both buttons stay held.
func (a *Arbiter) fire() {
	req := a.request()
	started := a.clock.Now()

	res := a.renderer.Render(req, a.token)
	if a.observer.OnRender != nil {
		a.observer.OnRender(req, res)
	}

	interval := req.Interval()
	for a.clock.Now().Sub(started) < interval &&
		a.signals.Armed() && a.signals.Firing() && !a.token.IsCancelled() {
		a.clock.Sleep(CadencePoll)
	}
}

// request snapshots parameters once per interval. A missing source means no
// motion for the interval.
func (a *Arbiter) request() motion.Request {
	if a.params == nil {
		return motion.Request{IntervalMs: params.DefaultIntervalMs}
	}
	p := a.params.Params()
	return motion.Request{DX: p.X, DY: p.Y, IntervalMs: p.IntervalMs}.Sanitize()
}

func (a *Arbiter) transition(to State) {
	from := a.state
	a.state = to
	if a.observer.OnTransition != nil {
		a.observer.OnTransition(from, to)
	}
}
