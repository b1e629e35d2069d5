// Package input provides relative pointer injection for the supported platforms.
package input

import "sync"

// Injector performs a single relative pointer move
type Injector interface {
	InjectMouseMove(dx, dy int) error
}

// Move is one recorded pointer delta
type Move struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
}

// Recorder is an Injector that keeps every move instead of sending it.
// Used for dry runs.
type Recorder struct {
	mu    sync.Mutex
	moves []Move
	// OnMove, if set, runs after each recorded move with its 1-based index.
	OnMove func(n int, m Move)
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// InjectMouseMove records the move
func (r *Recorder) InjectMouseMove(dx, dy int) error {
	r.mu.Lock()
	m := Move{DX: dx, DY: dy}
	r.moves = append(r.moves, m)
	n := len(r.moves)
	hook := r.OnMove
	r.mu.Unlock()

	if hook != nil {
		hook(n, m)
	}
	return nil
}

// Moves returns a copy of the recorded moves
func (r *Recorder) Moves() []Move {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Move, len(r.moves))
	copy(out, r.moves)
	return out
}

// Sum returns the total recorded displacement
func (r *Recorder) Sum() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var x, y int
	for _, m := range r.moves {
		x += m.DX
		y += m.DY
	}
	return x, y
}

// Reset drops all recorded moves
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.moves = nil
	r.mu.Unlock()
}

// Discard is an Injector that drops every move
type Discard struct{}

// InjectMouseMove does nothing
func (Discard) InjectMouseMove(dx, dy int) error {
	return nil
}
