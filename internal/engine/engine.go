// Package engine wires the trigger arbiter, the motion renderer and the shared
// gate state into a service that can be enabled and disabled at runtime.
package engine

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"glide/internal/gate"
	"glide/internal/input"
	"glide/internal/metrics"
	"glide/internal/motion"
	"glide/internal/params"
	"glide/internal/trigger"
)

// stopWarnAfter is how long Disable waits before logging a slow stop
const stopWarnAfter = 300 * time.Millisecond

// EventType identifies what changed
type EventType string

const (
	EventState   EventType = "state"
	EventEnabled EventType = "enabled"
	EventParams  EventType = "params"
)

// Event is delivered to subscribers. State events are published from the motion
// goroutine, so subscribers must not block or call Enable/Disable inline.
type Event struct {
	Type    EventType
	From    trigger.State
	State   trigger.State
	Enabled bool
	Params  params.Params
	Time    time.Time
}

// Options configures an Engine
type Options struct {
	// Injector receives the pointer moves. Nil discards them.
	Injector input.Injector
	// RateHz is the micro-step rate. Zero means motion.DefaultRateHz.
	RateHz int
	// Params are the initial motion parameters
	Params params.Params
	// Metrics, if set, receives render and state observations
	Metrics *metrics.Metrics
	// Clock drives pacing and polling. Nil means the system clock.
	Clock motion.Clock
}

// Engine owns one motion loop
type Engine struct {
	// mu serializes Enable and Disable
	mu      sync.Mutex
	running atomic.Bool
	done    chan struct{}

	signals  *gate.Signals
	token    *gate.Token
	params   *params.Source
	renderer *motion.Renderer
	clock    motion.Clock
	metrics  *metrics.Metrics

	state atomic.Int32

	subsMu sync.RWMutex
	subs   []func(Event)

	// session bookkeeping, touched only on the motion goroutine
	sessionStart     time.Time
	sessionIntervals int
	sessionFailed    bool
}

// New creates a disabled engine
func New(opts Options) *Engine {
	clock := opts.Clock
	if clock == nil {
		clock = motion.SystemClock()
	}
	e := &Engine{
		signals:  gate.NewSignals(),
		token:    gate.NewToken(),
		params:   params.NewSource(opts.Params),
		renderer: motion.NewRenderer(opts.Injector, motion.Options{RateHz: opts.RateHz, Clock: clock}),
		clock:    clock,
		metrics:  opts.Metrics,
	}
	e.state.Store(int32(trigger.Stopped))
	return e
}

// Signals returns the arm/fire state the button listener writes to
func (e *Engine) Signals() *gate.Signals {
	return e.signals
}

// Enable starts the motion loop. It is a no-op if the loop is already running.
func (e *Engine) Enable() {
	if !e.start() {
		return
	}

	log.Printf("Engine: Enabled (%d Hz micro-steps, %s)", e.renderer.RateHz(), e.params.Params())
	if e.metrics != nil {
		e.metrics.SetEnabled(true)
	}
	e.publish(Event{Type: EventEnabled, Enabled: true, State: e.State()})
}

func (e *Engine) start() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running.Load() {
		return false
	}

	e.token.Clear()
	arb := trigger.NewArbiter(e.signals, e.token, e.params, e.renderer, e.clock, trigger.Observer{
		OnTransition: e.onTransition,
		OnRender:     e.onRender,
	})
	e.state.Store(int32(trigger.Idle))

	done := make(chan struct{})
	e.done = done
	e.running.Store(true)
	go func() {
		defer close(done)
		arb.Run()
	}()
	return true
}

// Disable cancels the motion loop, waits for it to unwind and releases both
// signals.
func (e *Engine) Disable() {
	if !e.stop() {
		return
	}

	log.Printf("Engine: Disabled")
	if e.metrics != nil {
		e.metrics.SetEnabled(false)
	}
	e.publish(Event{Type: EventEnabled, Enabled: false, State: trigger.Stopped})
}

func (e *Engine) stop() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running.Load() {
		return false
	}

	e.token.Cancel()
	select {
	case <-e.done:
	case <-time.After(stopWarnAfter):
		log.Printf("Engine: Motion loop slow to stop, still waiting")
		<-e.done
	}

	e.running.Store(false)
	e.signals.Reset()
	e.state.Store(int32(trigger.Stopped))
	return true
}

// Toggle flips the enabled state and returns the new value
func (e *Engine) Toggle() bool {
	if e.Enabled() {
		e.Disable()
		return false
	}
	e.Enable()
	return true
}

// Enabled reports whether the motion loop is running
func (e *Engine) Enabled() bool {
	return e.running.Load()
}

// State returns the latest arbiter state
func (e *Engine) State() trigger.State {
	return trigger.State(e.state.Load())
}

// RateHz returns the micro-step rate
func (e *Engine) RateHz() int {
	return e.renderer.RateHz()
}

// Params returns the live motion parameters
func (e *Engine) Params() params.Params {
	return e.params.Params()
}

// SetParams clamps and stores new parameters. They take effect at the next
// interval boundary.
func (e *Engine) SetParams(p params.Params) params.Params {
	p = p.Clamp()
	e.params.Set(p)
	e.publish(Event{Type: EventParams, Params: p, State: e.State(), Enabled: e.Enabled()})
	return p
}

// PatchParams applies a partial parameter update
func (e *Engine) PatchParams(fields map[string]interface{}) (params.Params, error) {
	p, err := e.params.Patch(fields)
	if err != nil {
		return params.Params{}, err
	}
	e.publish(Event{Type: EventParams, Params: p, State: e.State(), Enabled: e.Enabled()})
	return p, nil
}

// Subscribe registers fn for every engine event
func (e *Engine) Subscribe(fn func(Event)) {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	e.subs = append(e.subs, fn)
}

func (e *Engine) publish(ev Event) {
	ev.Time = time.Now()

	e.subsMu.RLock()
	defer e.subsMu.RUnlock()
	for _, fn := range e.subs {
		fn(ev)
	}
}

func (e *Engine) onTransition(from, to trigger.State) {
	e.state.Store(int32(to))
	if e.metrics != nil {
		e.metrics.ObserveTransition(from, to)
	}

	switch {
	case to == trigger.Firing:
		e.sessionStart = e.clock.Now()
		e.sessionIntervals = 0
		e.sessionFailed = false
	case from == trigger.Firing:
		log.Printf("Engine: Session ended after %d interval(s) in %s (%s)",
			e.sessionIntervals, e.clock.Now().Sub(e.sessionStart).Round(time.Millisecond), to)
	}

	e.publish(Event{Type: EventState, From: from, State: to, Enabled: to != trigger.Stopped})
}

func (e *Engine) onRender(req motion.Request, res motion.Result) {
	e.sessionIntervals++
	if e.metrics != nil {
		e.metrics.ObserveRender(res)
	}
	if res.Failures > 0 && !e.sessionFailed {
		e.sessionFailed = true
		log.Printf("Engine: Pointer injection failing (%d of %d calls this interval): %v",
			res.Failures, res.Calls, res.LastErr)
	}
}
