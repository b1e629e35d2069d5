// Package params holds the live motion parameters shared between the control
// surfaces and the motion loop.
package params

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/mitchellh/mapstructure"
)

// Control-surface ranges and defaults
const (
	DefaultX          = 0.0
	DefaultY          = -50.0
	DefaultIntervalMs = 120.0

	MinDisplacement = -200.0
	MaxDisplacement = 200.0
	MinIntervalMs   = 1.0
	MaxIntervalMs   = 2000.0
)

// Params is the displacement requested per interval
type Params struct {
	// X is the horizontal displacement per interval in device units
	X float64 `json:"x" yaml:"x" mapstructure:"x"`

	// Y is the vertical displacement per interval in device units
	Y float64 `json:"y" yaml:"y" mapstructure:"y"`

	// IntervalMs is the interval length in milliseconds
	IntervalMs float64 `json:"interval_ms" yaml:"interval_ms" mapstructure:"interval_ms"`
}

// Default returns the parameters a fresh preset starts with
func Default() Params {
	return Params{X: DefaultX, Y: DefaultY, IntervalMs: DefaultIntervalMs}
}

// Clamp limits every field to the control-surface range. Non-finite values fall
// back to the defaults.
func (p Params) Clamp() Params {
	return Params{
		X:          clampField(p.X, MinDisplacement, MaxDisplacement, DefaultX),
		Y:          clampField(p.Y, MinDisplacement, MaxDisplacement, DefaultY),
		IntervalMs: clampField(p.IntervalMs, MinIntervalMs, MaxIntervalMs, DefaultIntervalMs),
	}
}

func (p Params) String() string {
	return fmt.Sprintf("x=%g y=%g interval=%gms", p.X, p.Y, p.IntervalMs)
}

func clampField(v, lo, hi, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return math.Max(lo, math.Min(hi, v))
}

// Source stores each field in its own atomic word so a reader never sees a torn
// value. The three fields are not updated as one transaction.
type Source struct {
	x        atomic.Uint64
	y        atomic.Uint64
	interval atomic.Uint64
}

// NewSource creates a Source holding p
func NewSource(p Params) *Source {
	s := &Source{}
	s.Set(p)
	return s
}

// Params returns the latest values
func (s *Source) Params() Params {
	return Params{
		X:          math.Float64frombits(s.x.Load()),
		Y:          math.Float64frombits(s.y.Load()),
		IntervalMs: math.Float64frombits(s.interval.Load()),
	}
}

// Set stores all three fields
func (s *Source) Set(p Params) {
	s.SetX(p.X)
	s.SetY(p.Y)
	s.SetIntervalMs(p.IntervalMs)
}

// SetX stores the horizontal displacement
func (s *Source) SetX(v float64) {
	s.x.Store(math.Float64bits(v))
}

// SetY stores the vertical displacement
func (s *Source) SetY(v float64) {
	s.y.Store(math.Float64bits(v))
}

// SetIntervalMs stores the interval length
func (s *Source) SetIntervalMs(v float64) {
	s.interval.Store(math.Float64bits(v))
}

// Patch applies a partial update decoded from a loosely typed map (JSON body,
// WebSocket payload). Only keys present in the map are changed; the result is
// clamped before it is stored.
func (s *Source) Patch(fields map[string]interface{}) (Params, error) {
	next := s.Params()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &next,
	})
	if err != nil {
		return Params{}, err
	}
	if err := decoder.Decode(fields); err != nil {
		return Params{}, fmt.Errorf("invalid parameter update: %w", err)
	}

	next = next.Clamp()
	s.Set(next)
	return next, nil
}
