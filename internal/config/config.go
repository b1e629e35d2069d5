// Package config provides configuration management for glide.
package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"glide/internal/motion"
	"glide/internal/params"
)

// Config represents the application configuration
type Config struct {
	// Buttons maps the gating inputs to physical buttons
	Buttons ButtonConfig `json:"buttons"`

	// Motion contains renderer settings and the last-used parameters
	Motion MotionConfig `json:"motion"`

	// General contains general application settings
	General GeneralConfig `json:"general"`
}

// ButtonConfig maps arm and fire to button names as reported by the hook
// engine ("MOUSE1" left, "MOUSE3" right, "MOUSE2" middle, "MOUSE4"/"MOUSE5" side)
type ButtonConfig struct {
	// Arm is the button that must be held for motion to be possible
	Arm string `json:"arm"`

	// Fire is the button that starts motion while Arm is held
	Fire string `json:"fire"`

	// ToggleHotkey enables or disables the engine (e.g. "Ctrl+Alt+G")
	ToggleHotkey string `json:"toggle_hotkey,omitempty"`
}

// MotionConfig contains renderer settings
type MotionConfig struct {
	// MicrostepRateHz is the micro-step rate (default: 240)
	MicrostepRateHz int `json:"microstep_rate_hz"`

	// Params are the parameters restored on start
	Params params.Params `json:"params"`

	// CurrentPreset is the name of the last loaded or saved preset
	CurrentPreset string `json:"current_preset,omitempty"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	// EnableOnStart enables the engine as soon as the service starts
	EnableOnStart bool `json:"enable_on_start"`

	// StartOnBoot determines if app starts on system boot
	StartOnBoot bool `json:"start_on_boot"`

	// APIEnabled enables the local HTTP control API
	APIEnabled bool `json:"api_enabled"`

	// APIPort is the port for the API server (default: 18090)
	APIPort int `json:"api_port"`

	// APIToken is an optional authentication token for API requests
	APIToken string `json:"api_token,omitempty"`

	// PresetDir overrides where presets are stored
	PresetDir string `json:"preset_dir,omitempty"`
}

// DefaultConfig returns a new Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Buttons: ButtonConfig{
			Arm:          "MOUSE3",
			Fire:         "MOUSE1",
			ToggleHotkey: "Ctrl+Alt+G",
		},
		Motion: MotionConfig{
			MicrostepRateHz: motion.DefaultRateHz,
			Params:          params.Default(),
		},
		General: GeneralConfig{
			APIEnabled: true,
			APIPort:    18090,
		},
	}
}

// Validate replaces missing or out-of-range values with defaults
func (c *Config) Validate() {
	def := DefaultConfig()

	c.Buttons.Arm = strings.ToUpper(strings.TrimSpace(c.Buttons.Arm))
	c.Buttons.Fire = strings.ToUpper(strings.TrimSpace(c.Buttons.Fire))
	if c.Buttons.Arm == "" {
		c.Buttons.Arm = def.Buttons.Arm
	}
	if c.Buttons.Fire == "" {
		c.Buttons.Fire = def.Buttons.Fire
	}
	if c.Motion.MicrostepRateHz <= 0 || c.Motion.MicrostepRateHz > 8000 {
		c.Motion.MicrostepRateHz = def.Motion.MicrostepRateHz
	}
	if c.Motion.Params.IntervalMs == 0 {
		c.Motion.Params = def.Motion.Params
	}
	c.Motion.Params = c.Motion.Params.Clamp()
	if c.General.APIPort <= 0 || c.General.APIPort > 65535 {
		c.General.APIPort = def.General.APIPort
	}
}

// Manager handles loading and saving configuration
type Manager struct {
	mu         sync.Mutex
	configPath string
	config     *Config
	onChanged  func()
}

// NewManager creates a new configuration manager using the per-user config dir
func NewManager() (*Manager, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return NewManagerAt(filepath.Join(dir, "config.json")), nil
}

// NewManagerAt creates a manager backed by an explicit file
func NewManagerAt(path string) *Manager {
	return &Manager{
		configPath: path,
		config:     DefaultConfig(),
	}
}

// Dir returns the per-user application directory, creating it if needed
func Dir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "glide")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		configDir = filepath.Join(appData, "glide")
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, ".config", "glide")
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}

	return configDir, nil
}

// Path returns the configuration file path
func (m *Manager) Path() string {
	return m.configPath
}

// PresetDir returns where presets live: the override if set, otherwise a
// presets directory next to the config file
func (m *Manager) PresetDir() string {
	cfg := m.Get()
	if cfg.General.PresetDir != "" {
		return cfg.General.PresetDir
	}
	return filepath.Join(filepath.Dir(m.configPath), "presets")
}

// Load reads the configuration from disk
func (m *Manager) Load() error {
	m.mu.Lock()

	data, err := os.ReadFile(m.configPath)
	if os.IsNotExist(err) {
		// No config file, use defaults
		m.mu.Unlock()
		return nil
	}
	if err != nil {
		m.mu.Unlock()
		return err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		m.mu.Unlock()
		return err
	}
	cfg.Validate()
	m.config = cfg
	onChanged := m.onChanged
	m.mu.Unlock()

	if onChanged != nil {
		onChanged()
	}
	return nil
}

// Save writes the configuration to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(m.configPath), 0755); err != nil {
		return err
	}

	log.Printf("Config: Saving configuration to %s (%d bytes)", m.configPath, len(data))
	return os.WriteFile(m.configPath, data, 0644)
}

// Get returns a copy of the current configuration
func (m *Manager) Get() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.config
}

// Set replaces the configuration
func (m *Manager) Set(config Config) {
	config.Validate()
	m.mu.Lock()
	m.config = &config
	onChanged := m.onChanged
	m.mu.Unlock()
	if onChanged != nil {
		onChanged()
	}
}

// Update applies fn to the configuration under the lock
func (m *Manager) Update(fn func(*Config)) {
	m.mu.Lock()
	fn(m.config)
	m.config.Validate()
	onChanged := m.onChanged
	m.mu.Unlock()
	if onChanged != nil {
		onChanged()
	}
}

// RegisterChangeCallback registers a function to be called when config changes
func (m *Manager) RegisterChangeCallback(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChanged = fn
}
