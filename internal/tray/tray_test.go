package tray

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMenuBookkeepingBeforeRun(t *testing.T) {
	tr := New("glide", "glide")

	status := tr.AddLabel("Status: off")
	toggle := tr.AddMenuItem("Toggle on/off", func() {})
	tr.AddSeparator()
	presets := tr.AddMenuItem("Presets", nil)
	child := tr.AddSubMenuItem(presets, "rifle", func() {})

	assert.Equal(t, 0, status)
	assert.Equal(t, 1, toggle)
	assert.Equal(t, 3, presets)
	assert.Equal(t, 4, child)
	assert.True(t, tr.items[status].Disabled)
	assert.Equal(t, presets, tr.items[child].Parent)
	assert.Equal(t, -1, tr.items[toggle].Parent)

	tr.SetItemTitle(status, "Status: on")
	tr.SetItemChecked(child, true)
	assert.Equal(t, "Status: on", tr.items[status].Title)
	assert.True(t, tr.items[child].Checked)

	// Out of range and separators are ignored
	tr.SetItemTitle(2, "x")
	tr.SetItemTitle(99, "x")
	tr.SetItemChecked(-1, true)
	tr.SetTooltip("glide (on)")
	assert.Equal(t, "glide (on)", tr.tooltip)
}

func TestIconHeader(t *testing.T) {
	icon := getIcon()
	assert.Len(t, icon, 1118)
	assert.Equal(t, []byte{0x00, 0x00, 0x01, 0x00, 0x01, 0x00}, icon[0:6])
}

func TestItemVisibilityAndSnapshot(t *testing.T) {
	tr := New("glide", "glide")
	parent := tr.AddMenuItem("Presets", nil)
	id := tr.AddSubMenuItem(parent, "rifle", func() {})

	tr.SetItemVisible(id, false)
	mi, ok := tr.Item(id)
	assert.True(t, ok)
	assert.True(t, mi.Hidden)
	assert.Equal(t, "rifle", mi.Title)

	tr.SetItemVisible(id, true)
	mi, _ = tr.Item(id)
	assert.False(t, mi.Hidden)

	tr.AddSeparator()
	_, ok = tr.Item(id + 1)
	assert.False(t, ok)
}
