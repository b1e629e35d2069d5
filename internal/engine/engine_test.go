package engine

import (
	"sync"
	"testing"
	"time"

	"glide/internal/input"
	"glide/internal/metrics"
	"glide/internal/params"
	"glide/internal/trigger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) add(ev Event) {
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
}

func (l *eventLog) states() []trigger.State {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []trigger.State
	for _, ev := range l.events {
		if ev.Type == EventState {
			out = append(out, ev.State)
		}
	}
	return out
}

func newTestEngine(rec *input.Recorder) *Engine {
	return New(Options{
		Injector: rec,
		RateHz:   240,
		Params:   params.Params{X: 0, Y: -10, IntervalMs: 20},
		Metrics:  metrics.New(),
	})
}

func TestEngineSession(t *testing.T) {
	rec := input.NewRecorder()
	e := newTestEngine(rec)
	log := &eventLog{}
	e.Subscribe(log.add)

	assert.False(t, e.Enabled())
	assert.Equal(t, trigger.Stopped, e.State())

	e.Enable()
	defer e.Disable()
	assert.True(t, e.Enabled())
	assert.Equal(t, trigger.Idle, e.State())

	e.Signals().SetArmed(true)
	require.Eventually(t, func() bool { return e.State() == trigger.Armed }, time.Second, time.Millisecond)
	assert.Empty(t, rec.Moves())

	e.Signals().SetFiring(true)
	require.Eventually(t, func() bool {
		_, y := rec.Sum()
		return y <= -30
	}, 2*time.Second, time.Millisecond)

	e.Signals().SetFiring(false)
	require.Eventually(t, func() bool { return e.State() == trigger.Armed }, time.Second, time.Millisecond)

	_, y := rec.Sum()
	assert.Zero(t, y%10, "intervals complete even when fire releases mid-render")

	e.Signals().SetArmed(false)
	require.Eventually(t, func() bool { return e.State() == trigger.Idle }, time.Second, time.Millisecond)

	assert.Equal(t, []trigger.State{trigger.Armed, trigger.Firing, trigger.Armed, trigger.Idle}, log.states())
}

func TestEngineDisableStopsMotion(t *testing.T) {
	rec := input.NewRecorder()
	e := newTestEngine(rec)

	e.Enable()
	e.Signals().SetArmed(true)
	e.Signals().SetFiring(true)
	require.Eventually(t, func() bool { return len(rec.Moves()) > 0 }, time.Second, time.Millisecond)

	start := time.Now()
	e.Disable()
	assert.Less(t, time.Since(start), 50*time.Millisecond)

	assert.False(t, e.Enabled())
	assert.Equal(t, trigger.Stopped, e.State())
	assert.False(t, e.Signals().Armed())
	assert.False(t, e.Signals().Firing())

	n := len(rec.Moves())
	time.Sleep(30 * time.Millisecond)
	assert.Len(t, rec.Moves(), n)
}

func TestEngineEnableIsIdempotent(t *testing.T) {
	e := newTestEngine(input.NewRecorder())
	var mu sync.Mutex
	enabledEvents := 0
	e.Subscribe(func(ev Event) {
		if ev.Type == EventEnabled {
			mu.Lock()
			enabledEvents++
			mu.Unlock()
		}
	})

	e.Enable()
	e.Enable()
	e.Disable()
	e.Disable()

	mu.Lock()
	assert.Equal(t, 2, enabledEvents)
	mu.Unlock()

	assert.True(t, e.Toggle())
	assert.False(t, e.Toggle())
}

func TestEngineParams(t *testing.T) {
	e := newTestEngine(input.NewRecorder())
	var got []Event
	e.Subscribe(func(ev Event) { got = append(got, ev) })

	p := e.SetParams(params.Params{X: 500, Y: -20, IntervalMs: 0})
	assert.Equal(t, params.Params{X: 200, Y: -20, IntervalMs: 1}, p)
	assert.Equal(t, p, e.Params())

	p, err := e.PatchParams(map[string]interface{}{"interval_ms": 250})
	require.NoError(t, err)
	assert.Equal(t, 250.0, p.IntervalMs)

	_, err = e.PatchParams(map[string]interface{}{"bogus": 1})
	assert.Error(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, EventParams, got[0].Type)
}

func TestEngineRestartAfterDisable(t *testing.T) {
	rec := input.NewRecorder()
	e := newTestEngine(rec)

	e.Enable()
	e.Disable()
	e.Enable()
	defer e.Disable()

	e.Signals().SetArmed(true)
	e.Signals().SetFiring(true)
	require.Eventually(t, func() bool { return len(rec.Moves()) > 0 }, time.Second, time.Millisecond)
}
