//go:build darwin

package input

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation -framework ApplicationServices

#include <CoreGraphics/CoreGraphics.h>
#include <CoreFoundation/CoreFoundation.h>
#include <ApplicationServices/ApplicationServices.h>

bool hasAccessibilityPermissions() {
    return AXIsProcessTrusted();
}

// Relative move from the current cursor position. The delta fields are set so
// games reading raw deltas see the motion too.
void injectRelativeMove(int dx, int dy) {
    CGEventRef cur = CGEventCreate(NULL);
    CGPoint pos = CGEventGetLocation(cur);
    CFRelease(cur);

    CGPoint next = CGPointMake(pos.x + dx, pos.y + dy);
    CGEventRef event = CGEventCreateMouseEvent(NULL, kCGEventMouseMoved, next, kCGMouseButtonLeft);
    CGEventSetIntegerValueField(event, kCGMouseEventDeltaX, dx);
    CGEventSetIntegerValueField(event, kCGMouseEventDeltaY, dy);
    CGEventPost(kCGSessionEventTap, event);
    CFRelease(event);
}
*/
import "C"
import "errors"

// macOS implementation of pointer injection using CoreGraphics

var errNoAccessibility = errors.New("accessibility permission not granted")

// Platform represents a macOS pointer injector
type Platform struct {
	trusted bool
}

// NewPlatform creates a new pointer injector for macOS
func NewPlatform() *Platform {
	return &Platform{trusted: bool(C.hasAccessibilityPermissions())}
}

// InjectMouseMove injects a relative mouse movement
func (p *Platform) InjectMouseMove(dx, dy int) error {
	if !p.trusted {
		return errNoAccessibility
	}
	C.injectRelativeMove(C.int(dx), C.int(dy))
	return nil
}
