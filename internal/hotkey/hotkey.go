// Package hotkey provides global keyboard and mouse button monitoring: combo
// hotkeys with callbacks, and level bindings that follow a single button.
package hotkey

import (
	"log"
	"strings"
	"sync"
)

// Manager handles global hotkey and mouse button registration and matching
type Manager struct {
	mu           sync.RWMutex
	hotkeys      []*registeredHotkey
	levels       map[string][]func(down bool)
	currentState map[string]bool // map of current keys/buttons pressed
}

type registeredHotkey struct {
	parts    []string // e.g., ["CTRL", "ALT", "G"]
	original string
	callback func()
}

// NewManager creates a new hotkey manager
func NewManager() *Manager {
	return &Manager{
		levels:       make(map[string][]func(down bool)),
		currentState: make(map[string]bool),
	}
}

// Register registers a hotkey string (e.g. "Ctrl+Alt+G", "Mouse4+Mouse5") and a
// callback that runs when the combination is completed.
func (m *Manager) Register(hotkeyStr string, callback func()) (int, error) {
	if hotkeyStr == "" {
		return 0, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	parts := strings.Split(strings.ToUpper(hotkeyStr), "+")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}

	m.hotkeys = append(m.hotkeys, &registeredHotkey{
		parts:    parts,
		original: hotkeyStr,
		callback: callback,
	})

	return len(m.hotkeys) - 1, nil
}

// BindLevel calls fn with the button's state on every press and release of key.
// fn runs on the hook thread and must return immediately.
func (m *Manager) BindLevel(key string, fn func(down bool)) {
	key = strings.ToUpper(strings.TrimSpace(key))
	if key == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.levels[key] = append(m.levels[key], fn)
}

// Clear removes all registered hotkeys and level bindings
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hotkeys = nil
	m.levels = make(map[string][]func(down bool))
}

// IsDown reports whether key is currently held
func (m *Manager) IsDown(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentState[strings.ToUpper(key)]
}

// UpdateState updates the internal state of a key or button, notifies level
// bindings and checks for completed combinations. Auto-repeat key-downs do not
// retrigger combinations.
func (m *Manager) UpdateState(key string, isDown bool) {
	m.mu.Lock()
	key = strings.ToUpper(key)
	wasDown := m.currentState[key]
	if isDown {
		m.currentState[key] = true
	} else {
		delete(m.currentState, key)
	}
	levels := m.levels[key]
	m.mu.Unlock()

	for _, fn := range levels {
		fn(isDown)
	}

	if isDown && !wasDown {
		m.checkMatches(key)
	}
}

func (m *Manager) checkMatches(pressed string) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, hk := range m.hotkeys {
		match := false
		// All parts of the hotkey must be held, and the key just pressed must be
		// one of them
		for _, part := range hk.parts {
			if part == pressed {
				match = true
			}
			if !m.currentState[part] {
				match = false
				break
			}
		}

		if match {
			log.Printf("Hotkey triggered: %s", hk.original)
			go hk.callback()
		}
	}
}

// Start initiates the platform-specific global hooks.
// This is implemented in platform-specific files (hotkey_windows.go, hotkey_darwin.go).
func (m *Manager) Start() error {
	return m.startPlatform()
}
