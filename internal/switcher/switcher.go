// Package switcher coordinates preset switching between the preset store, the
// running engine and the persisted configuration.
package switcher

import (
	"fmt"
	"log"
	"sync"

	"glide/internal/config"
	"glide/internal/engine"
	"glide/internal/params"
	"glide/internal/preset"
)

// Switcher applies presets and keeps the configuration in step with the engine
type Switcher struct {
	mu        sync.Mutex
	configMgr *config.Manager
	engine    *engine.Engine
	presets   *preset.Store

	// Callbacks for UI notifications
	onSwitch func(presetName string)
	onChange func()
}

// New creates a new Switcher instance
func New(configMgr *config.Manager, eng *engine.Engine, presets *preset.Store) *Switcher {
	return &Switcher{
		configMgr: configMgr,
		engine:    eng,
		presets:   presets,
	}
}

// SetOnSwitch sets the callback for preset switch events
func (s *Switcher) SetOnSwitch(callback func(presetName string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSwitch = callback
}

// SetOnChange sets the callback run after a preset is saved or deleted
func (s *Switcher) SetOnChange(callback func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = callback
}

func (s *Switcher) notifyChange() {
	s.mu.Lock()
	callback := s.onChange
	s.mu.Unlock()
	if callback != nil {
		callback()
	}
}

// Presets returns the preset store
func (s *Switcher) Presets() *preset.Store {
	return s.presets
}

// CurrentPreset returns the name of the active preset, if any
func (s *Switcher) CurrentPreset() string {
	return s.configMgr.Get().Motion.CurrentPreset
}

// SwitchToPreset loads a preset into the engine and remembers it as current.
// The new parameters apply from the next interval.
func (s *Switcher) SwitchToPreset(name string) (params.Params, error) {
	s.mu.Lock()
	p, err := s.presets.Load(name)
	if err != nil {
		s.mu.Unlock()
		return params.Params{}, err
	}

	safe := preset.Sanitize(name)
	p = s.engine.SetParams(p)
	s.persist(p, safe)
	callback := s.onSwitch
	s.mu.Unlock()

	log.Printf("Switcher: Switched to preset '%s' (%s)", safe, p)
	if callback != nil {
		callback(safe)
	}
	return p, nil
}

// SaveCurrent stores the engine's live parameters as a preset
func (s *Switcher) SaveCurrent(name string) (string, error) {
	s.mu.Lock()
	p := s.engine.Params()
	safe, err := s.presets.Save(name, p)
	if err != nil {
		s.mu.Unlock()
		return "", err
	}
	s.persist(p, safe)
	s.mu.Unlock()

	log.Printf("Switcher: Saved preset '%s' (%s)", safe, p)
	s.notifyChange()
	return safe, nil
}

// SavePreset stores p under name without touching the engine
func (s *Switcher) SavePreset(name string, p params.Params) (string, error) {
	safe, err := s.presets.Save(name, p)
	if err != nil {
		return "", err
	}
	log.Printf("Switcher: Saved preset '%s' (%s)", safe, p.Clamp())
	s.notifyChange()
	return safe, nil
}

// DeletePreset removes a preset and forgets it as current if it was
func (s *Switcher) DeletePreset(name string) error {
	s.mu.Lock()
	safe := preset.Sanitize(name)
	if err := s.presets.Delete(safe); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("delete preset %q: %w", safe, err)
	}
	if s.configMgr.Get().Motion.CurrentPreset == safe {
		s.configMgr.Update(func(c *config.Config) { c.Motion.CurrentPreset = "" })
		s.save()
	}
	s.mu.Unlock()

	log.Printf("Switcher: Deleted preset '%s'", safe)
	s.notifyChange()
	return nil
}

// SetParams updates the live parameters and persists them as last-used
func (s *Switcher) SetParams(p params.Params) params.Params {
	s.mu.Lock()
	defer s.mu.Unlock()

	p = s.engine.SetParams(p)
	s.persist(p, s.configMgr.Get().Motion.CurrentPreset)
	return p
}

// PatchParams applies a partial update and persists the result
func (s *Switcher) PatchParams(fields map[string]interface{}) (params.Params, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.engine.PatchParams(fields)
	if err != nil {
		return params.Params{}, err
	}
	s.persist(p, s.configMgr.Get().Motion.CurrentPreset)
	return p, nil
}

func (s *Switcher) persist(p params.Params, current string) {
	s.configMgr.Update(func(c *config.Config) {
		c.Motion.Params = p
		c.Motion.CurrentPreset = current
	})
	s.save()
}

func (s *Switcher) save() {
	if err := s.configMgr.Save(); err != nil {
		log.Printf("Switcher: Failed to save config: %v", err)
	}
}
