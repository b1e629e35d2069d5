//go:build windows

package input

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Windows implementation of pointer injection using SendInput

var (
	user32        = windows.NewLazySystemDLL("user32.dll")
	procSendInput = user32.NewProc("SendInput")
)

const (
	INPUT_MOUSE      = 0
	MOUSEEVENTF_MOVE = 0x0001
)

type MOUSEINPUT struct {
	Dx          int32
	Dy          int32
	MouseData   uint32
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
}

// INPUT mirrors the Win32 INPUT struct for the mouse case. MOUSEINPUT is the
// largest union member, so Go's field alignment matches the C layout.
type INPUT struct {
	Type uint32
	Mi   MOUSEINPUT
}

// Platform represents a Windows pointer injector
type Platform struct{}

// NewPlatform creates a new pointer injector for Windows
func NewPlatform() *Platform {
	return &Platform{}
}

// InjectMouseMove injects a relative mouse movement
func (p *Platform) InjectMouseMove(dx, dy int) error {
	in := INPUT{
		Type: INPUT_MOUSE,
		Mi: MOUSEINPUT{
			Dx:      int32(dx),
			Dy:      int32(dy),
			DwFlags: MOUSEEVENTF_MOVE,
		},
	}

	n, _, err := procSendInput.Call(1, uintptr(unsafe.Pointer(&in)), unsafe.Sizeof(in))
	if n != 1 {
		return fmt.Errorf("SendInput failed: %v", err)
	}
	return nil
}
