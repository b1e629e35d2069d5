//go:build !darwin && !windows

package input

import (
	"fmt"
	"runtime"
)

// Stub implementation for platforms without an injection backend

// Platform represents a stub injector
type Platform struct{}

// NewPlatform creates a new stub injector
func NewPlatform() *Platform {
	return &Platform{}
}

// InjectMouseMove injects a relative mouse movement (stub)
func (p *Platform) InjectMouseMove(dx, dy int) error {
	return fmt.Errorf("input injection not supported on %s", runtime.GOOS)
}
