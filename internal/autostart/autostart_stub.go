//go:build !darwin && !windows

package autostart

import (
	"fmt"
	"runtime"
)

func enable(execPath string) error {
	return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
}

func disable() error {
	return nil
}

func isEnabled() bool {
	return false
}
