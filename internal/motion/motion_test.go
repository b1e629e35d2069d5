package motion

import (
	"errors"
	"math"
	"testing"
	"time"

	"glide/internal/gate"
	"glide/internal/input"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances only when the renderer sleeps or yields
type fakeClock struct {
	now    time.Time
	sleeps int
	yields int
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps++
	c.now = c.now.Add(d)
}

func (c *fakeClock) Yield() {
	c.yields++
	c.now = c.now.Add(100 * time.Microsecond)
}

func newTestRenderer(inj input.Injector, clock Clock) *Renderer {
	return NewRenderer(inj, Options{RateHz: 240, Clock: clock})
}

func TestStepCount(t *testing.T) {
	tests := []struct {
		intervalMs float64
		rate       int
		want       int
	}{
		{120, 240, 28},
		{1000, 240, 240},
		{3, 240, 1},
		{1, 240, 1},
		{8.4, 240, 2},
		{100, 60, 6},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StepCount(tt.intervalMs, tt.rate), "interval=%v rate=%v", tt.intervalMs, tt.rate)
	}
}

func TestRenderScenario(t *testing.T) {
	rec := input.NewRecorder()
	clock := newFakeClock()
	r := newTestRenderer(rec, clock)
	start := clock.Now()

	res := r.Render(Request{DX: 0, DY: -50, IntervalMs: 120}, nil)

	require.Equal(t, 28, res.Steps)
	assert.Equal(t, 28, res.Run)
	assert.False(t, res.Cancelled)

	moves := rec.Moves()
	require.Len(t, moves, 28)
	seen := map[int]bool{}
	for _, m := range moves {
		assert.Equal(t, 0, m.DX)
		assert.Contains(t, []int{-2, -1}, m.DY)
		seen[m.DY] = true
	}
	assert.True(t, seen[-1] && seen[-2], "expected both -1 and -2 steps")

	x, y := rec.Sum()
	assert.Equal(t, 0, x)
	assert.Equal(t, -50, y)
	assert.Equal(t, -50, res.SumY)

	elapsed := clock.Now().Sub(start)
	assert.GreaterOrEqual(t, elapsed, 120*time.Millisecond)
	assert.Less(t, elapsed, 121*time.Millisecond)
	assert.Less(t, res.MaxOvershoot, 200*time.Microsecond)
}

func TestRenderSumConvergence(t *testing.T) {
	tests := []struct {
		dx, dy, intervalMs float64
	}{
		{37.3, -12.7, 120},
		{0.4, -0.6, 120},
		{199.9, 199.9, 2000},
		{-3.2, 88.8, 4.2},
		{5, -5, 33},
		{-141.1, 0, 777},
	}

	for _, tt := range tests {
		rec := input.NewRecorder()
		r := newTestRenderer(rec, newFakeClock())
		res := r.Render(Request{DX: tt.dx, DY: tt.dy, IntervalMs: tt.intervalMs}, nil)

		x, y := rec.Sum()
		assert.Equal(t, int(math.Round(tt.dx)), x, "dx=%v interval=%v", tt.dx, tt.intervalMs)
		assert.Equal(t, int(math.Round(tt.dy)), y, "dy=%v interval=%v", tt.dy, tt.intervalMs)
		assert.Equal(t, res.Steps, res.Run)
	}
}

func TestStepperResidualBound(t *testing.T) {
	cases := []struct {
		dx, dy float64
		steps  int
	}{
		{0, -50, 28},
		{37.3, -12.7, 28},
		{199.9, -0.3, 480},
		{-7, 3.5, 3},
	}

	for _, c := range cases {
		s := NewStepper(c.dx, c.dy, c.steps)
		var sumX, sumY int
		for i := 1; i <= c.steps; i++ {
			mx, my := s.Next()
			sumX += mx
			sumY += my
			idealX := float64(i) / float64(c.steps) * c.dx
			idealY := float64(i) / float64(c.steps) * c.dy
			assert.Less(t, math.Abs(float64(sumX)-idealX), 1.0, "x step %d", i)
			assert.Less(t, math.Abs(float64(sumY)-idealY), 1.0, "y step %d", i)
			assert.LessOrEqual(t, math.Abs(float64(sumX)-idealX), 0.5+1e-9)
		}
	}
}

func TestRoundHalfAwayFromZero(t *testing.T) {
	assert.Equal(t, 3, Round(2.5))
	assert.Equal(t, -3, Round(-2.5))
	assert.Equal(t, 2, Round(2.49))
	assert.Equal(t, 0, Round(-0.4))
}

func TestRenderSkipsZeroSteps(t *testing.T) {
	rec := input.NewRecorder()
	r := newTestRenderer(rec, newFakeClock())

	res := r.Render(Request{DX: 3, DY: 0, IntervalMs: 120}, nil)

	assert.Equal(t, 28, res.Run)
	assert.Equal(t, 3, res.Calls)
	assert.Equal(t, []input.Move{{DX: 1, DY: 0}, {DX: 1, DY: 0}, {DX: 1, DY: 0}}, rec.Moves())
}

func TestRenderZeroMotionIssuesNoCalls(t *testing.T) {
	rec := input.NewRecorder()
	clock := newFakeClock()
	r := newTestRenderer(rec, clock)
	start := clock.Now()

	res := r.Render(Request{DX: 0, DY: 0, IntervalMs: 50}, nil)

	assert.Zero(t, res.Calls)
	assert.Empty(t, rec.Moves())
	assert.GreaterOrEqual(t, clock.Now().Sub(start), 50*time.Millisecond)
}

func TestRenderSingleStep(t *testing.T) {
	rec := input.NewRecorder()
	clock := newFakeClock()
	r := newTestRenderer(rec, clock)

	res := r.Render(Request{DX: 2.6, DY: -7.4, IntervalMs: 3}, nil)

	assert.Equal(t, 1, res.Steps)
	assert.Equal(t, []input.Move{{DX: 3, DY: -7}}, rec.Moves())
	assert.Zero(t, clock.sleeps)
	assert.Zero(t, clock.yields)
}

func TestRenderCancellationTruncates(t *testing.T) {
	rec := input.NewRecorder()
	tok := gate.NewToken()
	rec.OnMove = func(n int, m input.Move) {
		if n == 5 {
			tok.Cancel()
		}
	}
	r := newTestRenderer(rec, newFakeClock())

	res := r.Render(Request{DX: 0, DY: -50, IntervalMs: 120}, tok)

	assert.True(t, res.Cancelled)
	assert.Equal(t, 5, res.Calls)
	assert.Less(t, res.Calls, res.Steps)
	assert.Len(t, rec.Moves(), 5)
}

func TestRenderCancelledBeforeStart(t *testing.T) {
	rec := input.NewRecorder()
	tok := gate.NewToken()
	tok.Cancel()
	r := newTestRenderer(rec, newFakeClock())

	res := r.Render(Request{DX: 10, DY: 10, IntervalMs: 120}, tok)
	assert.True(t, res.Cancelled)
	assert.Empty(t, rec.Moves())

	res = r.Render(Request{DX: 10, DY: 10, IntervalMs: 2}, tok)
	assert.True(t, res.Cancelled)
	assert.Empty(t, rec.Moves())
}

func TestRenderLateStepDoesNotShiftSchedule(t *testing.T) {
	rec := input.NewRecorder()
	clock := newFakeClock()
	rec.OnMove = func(n int, m input.Move) {
		if n == 3 {
			clock.now = clock.now.Add(10 * time.Millisecond)
		}
	}
	r := newTestRenderer(rec, clock)
	start := clock.Now()

	res := r.Render(Request{DX: 0, DY: -50, IntervalMs: 120}, nil)

	elapsed := clock.Now().Sub(start)
	assert.Less(t, elapsed, 121*time.Millisecond)
	assert.Greater(t, res.MaxOvershoot, 5*time.Millisecond)
	assert.Equal(t, -50, res.SumY)
}

type failingInjector struct {
	calls int
	panic bool
}

func (f *failingInjector) InjectMouseMove(dx, dy int) error {
	f.calls++
	if f.panic {
		panic("device gone")
	}
	return errors.New("injection refused")
}

func TestRenderSwallowsInjectionErrors(t *testing.T) {
	for _, panics := range []bool{false, true} {
		inj := &failingInjector{panic: panics}
		r := newTestRenderer(inj, newFakeClock())

		res := r.Render(Request{DX: 0, DY: -50, IntervalMs: 120}, nil)

		assert.Equal(t, 28, res.Run)
		assert.Equal(t, 28, inj.calls)
		assert.Equal(t, 28, res.Failures)
		assert.Error(t, res.LastErr)
	}
}

func TestRenderSanitizesRequest(t *testing.T) {
	rec := input.NewRecorder()
	r := newTestRenderer(rec, newFakeClock())

	res := r.Render(Request{DX: math.NaN(), DY: math.Inf(-1), IntervalMs: -10}, nil)

	assert.Equal(t, 1, res.Steps)
	assert.Empty(t, rec.Moves())
}

func TestRequestSanitizeCapsInterval(t *testing.T) {
	req := Request{DX: 1, DY: 1, IntervalMs: 1e300}.Sanitize()
	assert.Equal(t, MaxIntervalMs, req.IntervalMs)
	assert.Equal(t, time.Minute, req.Interval())
	assert.Equal(t, 14400, StepCount(req.IntervalMs, 240))

	req = Request{IntervalMs: math.Inf(1)}.Sanitize()
	assert.Equal(t, 1.0, req.IntervalMs)

	req = Request{IntervalMs: 120}.Sanitize()
	assert.Equal(t, 120.0, req.IntervalMs)
}

func TestRenderWithSystemClock(t *testing.T) {
	if testing.Short() {
		t.Skip("timing test")
	}
	rec := input.NewRecorder()
	r := NewRenderer(rec, Options{RateHz: 240})

	start := time.Now()
	res := r.Render(Request{DX: 10, DY: -20, IntervalMs: 50}, nil)
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	assert.Less(t, elapsed, 100*time.Millisecond)
	assert.Equal(t, 10, res.SumX)
	assert.Equal(t, -20, res.SumY)
}
