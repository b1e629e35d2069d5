//go:build darwin

package hotkey

/*
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation -framework ApplicationServices
#include <CoreGraphics/CoreGraphics.h>
#include <CoreFoundation/CoreFoundation.h>
#include <stdint.h>
#include <stdio.h>

CGEventRef buttonCallback(CGEventTapProxy proxy, CGEventType type, CGEventRef event, void *refcon);

// Keys, modifiers and button edges only. Pointer motion is left out so the tap
// does not wake up for every injected move.
static inline CGEventMask buttonMask() {
    return CGEventMaskBit(kCGEventKeyDown) | CGEventMaskBit(kCGEventKeyUp) |
           CGEventMaskBit(kCGEventFlagsChanged) |
           CGEventMaskBit(kCGEventLeftMouseDown) | CGEventMaskBit(kCGEventLeftMouseUp) |
           CGEventMaskBit(kCGEventRightMouseDown) | CGEventMaskBit(kCGEventRightMouseUp) |
           CGEventMaskBit(kCGEventOtherMouseDown) | CGEventMaskBit(kCGEventOtherMouseUp);
}

static inline int runButtonTap(uintptr_t refcon) {
    CFMachPortRef tap = CGEventTapCreate(
        kCGSessionEventTap,
        kCGHeadInsertEventTap,
        kCGEventTapOptionListenOnly,
        buttonMask(),
        buttonCallback,
        (void*)refcon
    );
    if (!tap) {
        return 0;
    }

    CFRunLoopSourceRef source = CFMachPortCreateRunLoopSource(kCFAllocatorDefault, tap, 0);
    CFRunLoopAddSource(CFRunLoopGetCurrent(), source, kCFRunLoopCommonModes);
    CGEventTapEnable(tap, true);
    CFRunLoopRun();
    return 1;
}
*/
import "C"
import (
	"log"
	"runtime"
	"runtime/cgo"
	"strconv"
	"unsafe"
)

//export buttonCallback
func buttonCallback(proxy C.CGEventTapProxy, eventType C.CGEventType, event C.CGEventRef, refcon unsafe.Pointer) C.CGEventRef {
	m := cgo.Handle(uintptr(refcon)).Value().(*Manager)

	switch eventType {
	case C.kCGEventKeyDown, C.kCGEventKeyUp:
		keyCode := uint16(C.CGEventGetIntegerValueField(event, C.kCGKeyboardEventKeycode))
		if name, ok := macKeyNames[keyCode]; ok {
			m.UpdateState(name, eventType == C.kCGEventKeyDown)
		}

	case C.kCGEventFlagsChanged:
		flags := C.CGEventGetFlags(event)
		keyCode := uint16(C.CGEventGetIntegerValueField(event, C.kCGKeyboardEventKeycode))
		switch keyCode {
		case 55, 54:
			m.UpdateState("CMD", flags&C.kCGEventFlagMaskCommand != 0)
		case 56, 60:
			m.UpdateState("SHIFT", flags&C.kCGEventFlagMaskShift != 0)
		case 58, 61:
			m.UpdateState("ALT", flags&C.kCGEventFlagMaskAlternate != 0)
		case 59, 62:
			m.UpdateState("CTRL", flags&C.kCGEventFlagMaskControl != 0)
		}

	case C.kCGEventLeftMouseDown, C.kCGEventRightMouseDown, C.kCGEventOtherMouseDown:
		m.UpdateState(macButtonName(int64(C.CGEventGetIntegerValueField(event, C.kCGMouseEventButtonNumber))), true)

	case C.kCGEventLeftMouseUp, C.kCGEventRightMouseUp, C.kCGEventOtherMouseUp:
		m.UpdateState(macButtonName(int64(C.CGEventGetIntegerValueField(event, C.kCGMouseEventButtonNumber))), false)
	}

	return event
}

// macButtonName maps CoreGraphics button numbers to the Windows-style names
// used in configuration (MOUSE2 is middle, MOUSE3 is right)
func macButtonName(n int64) string {
	switch n {
	case 0:
		return "MOUSE1"
	case 1:
		return "MOUSE3"
	case 2:
		return "MOUSE2"
	default:
		return "MOUSE" + strconv.FormatInt(n+1, 10)
	}
}

func (m *Manager) startPlatform() error {
	handle := cgo.NewHandle(m)
	go func() {
		runtime.LockOSThread()
		log.Println("Hotkey Engine: macOS CGEventTap starting.")
		if C.runButtonTap(C.uintptr_t(handle)) == 0 {
			log.Println("Hotkey Engine: ERROR! Failed to create CGEventTap. Accessibility permissions missing?")
			handle.Delete()
		}
	}()
	return nil
}

var macKeyNames = map[uint16]string{
	49: "SPACE", 36: "ENTER", 53: "ESC", 48: "TAB",

	0: "A", 11: "B", 8: "C", 2: "D", 14: "E", 3: "F", 5: "G", 4: "H", 34: "I",
	38: "J", 40: "K", 37: "L", 46: "M", 45: "N", 31: "O", 35: "P", 12: "Q",
	15: "R", 1: "S", 17: "T", 32: "U", 9: "V", 13: "W", 7: "X", 16: "Y", 6: "Z",

	29: "0", 18: "1", 19: "2", 20: "3", 21: "4", 23: "5", 22: "6", 26: "7",
	28: "8", 25: "9",

	122: "F1", 120: "F2", 99: "F3", 118: "F4", 96: "F5", 97: "F6",
	98: "F7", 100: "F8", 101: "F9", 109: "F10", 103: "F11", 111: "F12",
}
