package motion

import "math"

// Stepper splits a displacement into a fixed number of integer micro-steps using
// a DDA accumulator: each step's rounding error is carried into the next, so the
// emitted sequence sums to round(dx), round(dy) and the running sum never strays
// more than 0.5 from the ideal proportional target.
type Stepper struct {
	incX, incY float64
	accX, accY float64
}

// NewStepper prepares a Stepper distributing (dx, dy) over steps micro-steps
func NewStepper(dx, dy float64, steps int) *Stepper {
	if steps < 1 {
		steps = 1
	}
	return &Stepper{
		incX: dx / float64(steps),
		incY: dy / float64(steps),
	}
}

// Next returns the integer delta for the next micro-step
func (s *Stepper) Next() (int, int) {
	s.accX += s.incX
	s.accY += s.incY
	moveX := Round(s.accX)
	moveY := Round(s.accY)
	s.accX -= float64(moveX)
	s.accY -= float64(moveY)
	return moveX, moveY
}

// Residual returns the fractional remainder not yet emitted
func (s *Stepper) Residual() (float64, float64) {
	return s.accX, s.accY
}

// Round converts to the nearest integer, ties away from zero.
func Round(v float64) int {
	return int(math.Round(v))
}
