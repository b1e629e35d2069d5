package main

import (
	"path/filepath"
	"testing"
	"time"

	"glide/internal/config"
	"glide/internal/engine"
	"glide/internal/params"
	"glide/internal/preset"
	"glide/internal/switcher"
	"glide/internal/tray"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func menuState(t *testing.T, tr *tray.Tray, pm *presetMenu, name string) (visible, checked bool) {
	t.Helper()
	pm.mu.Lock()
	id, ok := pm.items[name]
	pm.mu.Unlock()
	require.True(t, ok, "no item for %s", name)
	mi, ok := tr.Item(id)
	require.True(t, ok)
	return !mi.Hidden, mi.Checked
}

func TestPresetMenuSync(t *testing.T) {
	tr := tray.New("glide", "glide")
	parent := tr.AddMenuItem("Presets", nil)
	pm := newPresetMenu(tr, parent, func(string) {})

	pm.sync([]string{"a", "b"}, "a")
	visible, checked := menuState(t, tr, pm, "a")
	assert.True(t, visible)
	assert.True(t, checked)
	_, checked = menuState(t, tr, pm, "b")
	assert.False(t, checked)

	pm.sync([]string{"b", "c"}, "c")
	visible, checked = menuState(t, tr, pm, "a")
	assert.False(t, visible)
	assert.False(t, checked)
	visible, checked = menuState(t, tr, pm, "c")
	assert.True(t, visible)
	assert.True(t, checked)

	// A preset that comes back reuses its hidden item
	pm.sync([]string{"a", "b", "c"}, "")
	visible, _ = menuState(t, tr, pm, "a")
	assert.True(t, visible)
	assert.Len(t, pm.items, 3)

	mi, _ := tr.Item(pm.items["c"])
	assert.Equal(t, parent, mi.Parent)
}

func TestPresetMenuFollowsSwitcher(t *testing.T) {
	dir := t.TempDir()
	cfgMgr := config.NewManagerAt(filepath.Join(dir, "config.json"))
	store, err := preset.NewStore(filepath.Join(dir, "presets"))
	require.NoError(t, err)
	eng := engine.New(engine.Options{Params: params.Default()})
	sw := switcher.New(cfgMgr, eng, store)

	tr := tray.New("glide", "glide")
	parent := tr.AddMenuItem("Presets", nil)
	pm := newPresetMenu(tr, parent, func(string) {})
	pm.refresh(sw)
	assert.Empty(t, pm.items)

	stop := make(chan struct{})
	defer close(stop)
	go pm.watch(sw, stop)

	has := func(name string) func() bool {
		return func() bool {
			pm.mu.Lock()
			defer pm.mu.Unlock()
			_, ok := pm.items[name]
			return ok
		}
	}

	// Saves keep arriving until watch has installed its callbacks
	assert.Eventually(t, func() bool {
		if _, err := sw.SavePreset("rifle", params.Default()); err != nil {
			return false
		}
		return has("rifle")()
	}, 2*time.Second, 10*time.Millisecond)

	_, err = sw.SwitchToPreset("rifle")
	require.NoError(t, err)
	_, checked := menuState(t, tr, pm, "rifle")
	assert.True(t, checked)

	require.NoError(t, sw.DeletePreset("rifle"))
	visible, _ := menuState(t, tr, pm, "rifle")
	assert.False(t, visible)
}
