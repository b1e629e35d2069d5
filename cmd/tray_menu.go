package main

import (
	"log"
	"sync"
	"time"

	"glide/internal/switcher"
	"glide/internal/tray"
)

// presetRefreshEvery picks up presets written by another glide process
const presetRefreshEvery = 5 * time.Second

// presetMenu keeps the tray's Presets submenu in step with the preset store.
// systray cannot remove items, so deleted presets are hidden and shown again if
// they come back.
type presetMenu struct {
	mu     sync.Mutex
	tray   *tray.Tray
	parent int
	items  map[string]int
	load   func(name string)
}

func newPresetMenu(t *tray.Tray, parent int, load func(name string)) *presetMenu {
	return &presetMenu{
		tray:   t,
		parent: parent,
		items:  make(map[string]int),
		load:   load,
	}
}

// sync adds missing presets, hides removed ones and checks current
func (pm *presetMenu) sync(names []string, current string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	present := make(map[string]bool, len(names))
	for _, name := range names {
		present[name] = true
		if id, ok := pm.items[name]; ok {
			pm.tray.SetItemVisible(id, true)
			continue
		}
		presetName := name
		pm.items[name] = pm.tray.AddSubMenuItem(pm.parent, presetName, func() {
			pm.load(presetName)
		})
	}

	for name, id := range pm.items {
		if !present[name] {
			pm.tray.SetItemVisible(id, false)
		}
		pm.tray.SetItemChecked(id, present[name] && name == current)
	}
}

func (pm *presetMenu) refresh(sw *switcher.Switcher) {
	names, err := sw.Presets().List()
	if err != nil {
		log.Printf("Tray: Failed to list presets: %v", err)
		return
	}
	pm.sync(names, sw.CurrentPreset())
}

// watch refreshes on every switcher change and periodically until stop closes
func (pm *presetMenu) watch(sw *switcher.Switcher, stop <-chan struct{}) {
	sw.SetOnSwitch(func(string) { pm.refresh(sw) })
	sw.SetOnChange(func() { pm.refresh(sw) })

	ticker := time.NewTicker(presetRefreshEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			pm.refresh(sw)
		case <-stop:
			return
		}
	}
}
