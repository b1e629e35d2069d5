package params

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name string
		in   Params
		want Params
	}{
		{"in range", Params{X: 3, Y: -50, IntervalMs: 120}, Params{X: 3, Y: -50, IntervalMs: 120}},
		{"too large", Params{X: 500, Y: -900, IntervalMs: 10000}, Params{X: 200, Y: -200, IntervalMs: 2000}},
		{"negative interval", Params{X: 0, Y: 0, IntervalMs: -5}, Params{X: 0, Y: 0, IntervalMs: 1}},
		{"non-finite", Params{X: math.NaN(), Y: math.Inf(1), IntervalMs: math.NaN()}, Default()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Clamp())
		})
	}
}

func TestSourceSetAndRead(t *testing.T) {
	s := NewSource(Default())
	assert.Equal(t, Default(), s.Params())

	s.SetX(1.5)
	s.SetY(-2.25)
	s.SetIntervalMs(300)
	assert.Equal(t, Params{X: 1.5, Y: -2.25, IntervalMs: 300}, s.Params())
}

func TestSourcePatch(t *testing.T) {
	s := NewSource(Default())

	got, err := s.Patch(map[string]interface{}{"y": "-30", "interval_ms": 80})
	require.NoError(t, err)
	assert.Equal(t, Params{X: 0, Y: -30, IntervalMs: 80}, got)
	assert.Equal(t, got, s.Params())

	got, err = s.Patch(map[string]interface{}{"x": 999.0})
	require.NoError(t, err)
	assert.Equal(t, 200.0, got.X)
}

func TestSourcePatchRejectsUnknownKeys(t *testing.T) {
	s := NewSource(Default())
	_, err := s.Patch(map[string]interface{}{"speed": 3})
	assert.Error(t, err)
	assert.Equal(t, Default(), s.Params())
}

func TestSourceNoTornReads(t *testing.T) {
	s := NewSource(Params{X: 1, Y: 1, IntervalMs: 1})
	values := []float64{1, -123.456, 1e9, 0.1}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 10000; i++ {
			s.SetY(values[i%len(values)])
		}
	}()

	for i := 0; i < 10000; i++ {
		y := s.Params().Y
		assert.Contains(t, values, y)
	}
	wg.Wait()
}
