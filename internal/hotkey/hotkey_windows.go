//go:build windows

package hotkey

import (
	"fmt"
	"log"
	"runtime"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procSetWindowsHookEx    = user32.NewProc("SetWindowsHookExW")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procGetMessage          = user32.NewProc("GetMessageW")
	procTranslateMessage    = user32.NewProc("TranslateMessage")
	procDispatchMessage     = user32.NewProc("DispatchMessageW")
	kernel32                = windows.NewLazySystemDLL("kernel32.dll")
	procGetModuleHandle     = kernel32.NewProc("GetModuleHandleW")
)

const (
	WH_KEYBOARD_LL = 13
	WH_MOUSE_LL    = 14
	WM_KEYDOWN     = 0x0100
	WM_KEYUP       = 0x0101
	WM_SYSKEYDOWN  = 0x0104
	WM_SYSKEYUP    = 0x0105

	WM_LBUTTONDOWN = 0x0201
	WM_LBUTTONUP   = 0x0202
	WM_RBUTTONDOWN = 0x0204
	WM_RBUTTONUP   = 0x0205
	WM_MBUTTONDOWN = 0x0207
	WM_MBUTTONUP   = 0x0208
	WM_XBUTTONDOWN = 0x020B
	WM_XBUTTONUP   = 0x020C

	// LLMHF_INJECTED marks events synthesized by SendInput
	LLMHF_INJECTED = 0x00000001
)

type KBDLLHOOKSTRUCT struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type MSLLHOOKSTRUCT struct {
	Point       struct{ X, Y int32 }
	MouseData   uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type buttonEdge struct {
	name string
	down bool
}

// mouseEdges maps button messages to the configured names. X buttons are
// resolved from MouseData.
var mouseEdges = map[uintptr]buttonEdge{
	WM_LBUTTONDOWN: {"MOUSE1", true},
	WM_LBUTTONUP:   {"MOUSE1", false},
	WM_RBUTTONDOWN: {"MOUSE3", true},
	WM_RBUTTONUP:   {"MOUSE3", false},
	WM_MBUTTONDOWN: {"MOUSE2", true},
	WM_MBUTTONUP:   {"MOUSE2", false},
	WM_XBUTTONDOWN: {"", true},
	WM_XBUTTONUP:   {"", false},
}

var (
	instanceManager *Manager
	keyboardHook    uintptr
	mouseHook       uintptr
)

func (m *Manager) startPlatform() error {
	instanceManager = m
	started := make(chan error, 1)

	// Hooks must be registered in the same thread that runs the message loop
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		hMod, _, _ := procGetModuleHandle.Call(0)

		var err error
		keyboardHook, _, err = procSetWindowsHookEx.Call(WH_KEYBOARD_LL, syscall.NewCallback(keyboardHookProc), hMod, 0)
		if keyboardHook == 0 {
			started <- fmt.Errorf("set keyboard hook: %v", err)
			return
		}
		mouseHook, _, err = procSetWindowsHookEx.Call(WH_MOUSE_LL, syscall.NewCallback(mouseHookProc), hMod, 0)
		if mouseHook == 0 {
			procUnhookWindowsHookEx.Call(keyboardHook)
			started <- fmt.Errorf("set mouse hook: %v", err)
			return
		}

		log.Println("Hotkey Engine: Windows Global Hooks started.")
		started <- nil

		var msg struct {
			Hwnd    syscall.Handle
			Message uint32
			Wparam  uintptr
			Lparam  uintptr
			Time    uint32
			Pt      struct{ X, Y int32 }
		}
		for {
			ret, _, _ := procGetMessage.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
			if int32(ret) <= 0 {
				break
			}
			procTranslateMessage.Call(uintptr(unsafe.Pointer(&msg)))
			procDispatchMessage.Call(uintptr(unsafe.Pointer(&msg)))
		}

		procUnhookWindowsHookEx.Call(keyboardHook)
		procUnhookWindowsHookEx.Call(mouseHook)
	}()

	return <-started
}

func keyboardHookProc(nCode int, wParam uintptr, lParam uintptr) uintptr {
	if nCode == 0 {
		kbd := (*KBDLLHOOKSTRUCT)(unsafe.Pointer(lParam))
		if name := vkCodeToName(kbd.VkCode); name != "" {
			instanceManager.UpdateState(name, wParam == WM_KEYDOWN || wParam == WM_SYSKEYDOWN)
		}
	}
	ret, _, _ := procCallNextHookEx.Call(keyboardHook, uintptr(nCode), wParam, lParam)
	return ret
}

func mouseHookProc(nCode int, wParam uintptr, lParam uintptr) uintptr {
	if nCode == 0 {
		ms := (*MSLLHOOKSTRUCT)(unsafe.Pointer(lParam))
		if edge, ok := mouseEdges[wParam]; ok && ms.Flags&LLMHF_INJECTED == 0 {
			if edge.name == "" {
				edge.name = "MOUSE5"
				if ms.MouseData>>16 == 1 {
					edge.name = "MOUSE4"
				}
			}
			instanceManager.UpdateState(edge.name, edge.down)
		}
	}
	ret, _, _ := procCallNextHookEx.Call(mouseHook, uintptr(nCode), wParam, lParam)
	return ret
}

var vkNames = map[uint32]string{
	0x11: "CTRL", 0xA2: "CTRL", 0xA3: "CTRL",
	0x12: "ALT", 0xA4: "ALT", 0xA5: "ALT",
	0x10: "SHIFT", 0xA0: "SHIFT", 0xA1: "SHIFT",
	0x5B: "CMD", 0x5C: "CMD",
	0x20: "SPACE", 0x0D: "ENTER", 0x1B: "ESC", 0x09: "TAB",
	0x2D: "INSERT", 0x2E: "DELETE", 0x24: "HOME", 0x23: "END",
	0x21: "PAGEUP", 0x22: "PAGEDOWN", 0x13: "PAUSE", 0x91: "SCROLLLOCK",
}

func vkCodeToName(vk uint32) string {
	if name, ok := vkNames[vk]; ok {
		return name
	}
	// Letters A-Z and digits 0-9 share their ASCII codes
	if (vk >= 0x41 && vk <= 0x5A) || (vk >= 0x30 && vk <= 0x39) {
		return string(rune(vk))
	}
	// F1-F12
	if vk >= 0x70 && vk <= 0x7B {
		return fmt.Sprintf("F%d", vk-0x6F)
	}
	return ""
}
