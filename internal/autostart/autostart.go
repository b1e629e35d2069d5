// Package autostart provides auto-start functionality.
package autostart

import (
	"fmt"
	"io"
	"log"
	"os"
	"text/template"
)

// Label identifies the login item on every platform
const Label = "com.glide.agent"

const macLaunchAgentPlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>{{.Label}}</string>
    <key>ProgramArguments</key>
    <array>
        <string>{{.ExecutablePath}}</string>
        <string>run</string>
    </array>
    <key>RunAtLoad</key>
    <true/>
    <key>KeepAlive</key>
    <false/>
</dict>
</plist>`

var plistTemplate = template.Must(template.New("plist").Parse(macLaunchAgentPlist))

// Enable enables auto-start on login
func Enable() error {
	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}
	return enable(execPath)
}

// Disable disables auto-start on login
func Disable() error {
	return disable()
}

// IsEnabled checks if auto-start is enabled
func IsEnabled() bool {
	return isEnabled()
}

// Sync makes the login item match want. Errors are logged, not returned, since
// a missing login item never stops the service.
func Sync(want bool) {
	if want == IsEnabled() {
		return
	}
	var err error
	if want {
		err = Enable()
	} else {
		err = Disable()
	}
	if err != nil {
		log.Printf("Autostart: Failed to set start on boot to %v: %v", want, err)
		return
	}
	log.Printf("Autostart: Start on boot set to %v", want)
}

func writePlist(w io.Writer, execPath string) error {
	return plistTemplate.Execute(w, struct{ Label, ExecutablePath string }{Label, execPath})
}

// runCommand is the command line registered with the Windows Run key
func runCommand(execPath string) string {
	return fmt.Sprintf("\"%s\" run", execPath)
}
