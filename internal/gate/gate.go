// Package gate holds the shared, lock-free state the button listener writes and
// the motion loop reads: the arm/fire signals and the cancellation token.
package gate

import "sync/atomic"

// Signals holds the two physical gating inputs.
// The listener writes, the arbiter only reads. Each value is re-read at every
// decision point.
type Signals struct {
	armed  atomic.Bool
	firing atomic.Bool
}

// NewSignals creates a Signals with both inputs released
func NewSignals() *Signals {
	return &Signals{}
}

// Armed reports whether the arm button is held
func (s *Signals) Armed() bool {
	return s.armed.Load()
}

// Firing reports whether the fire button is held
func (s *Signals) Firing() bool {
	return s.firing.Load()
}

// SetArmed updates the arm button state
func (s *Signals) SetArmed(down bool) {
	s.armed.Store(down)
}

// SetFiring updates the fire button state
func (s *Signals) SetFiring(down bool) {
	s.firing.Store(down)
}

// Reset releases both inputs
func (s *Signals) Reset() {
	s.armed.Store(false)
	s.firing.Store(false)
}

// Token is a cooperative cancellation flag. Once cancelled it stays cancelled
// until its owner calls Clear.
type Token struct {
	cancelled atomic.Bool
}

// NewToken creates a cleared token
func NewToken() *Token {
	return &Token{}
}

// Cancel sets the token
func (t *Token) Cancel() {
	t.cancelled.Store(true)
}

// IsCancelled reports whether the token is set
func (t *Token) IsCancelled() bool {
	return t.cancelled.Load()
}

// Clear resets the token before a new session starts
func (t *Token) Clear() {
	t.cancelled.Store(false)
}
