// Package tray provides system tray functionality using getlantern/systray.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// MenuItem represents a menu item
type MenuItem struct {
	ID       int
	Parent   int // -1 for top level
	Title    string
	Callback func()
	Disabled bool
	Checked  bool
	Hidden   bool
	item     *systray.MenuItem
}

// Tray manages the system tray icon and menu
type Tray struct {
	mu      sync.Mutex
	title   string
	tooltip string
	items   []*MenuItem
	readyCh chan struct{}
	quitCh  chan struct{}
}

// New creates a new system tray
func New(title, tooltip string) *Tray {
	return &Tray{
		title:   title,
		tooltip: tooltip,
		items:   make([]*MenuItem, 0),
		readyCh: make(chan struct{}),
		quitCh:  make(chan struct{}),
	}
}

// AddMenuItem adds a menu item to the tray
func (t *Tray) AddMenuItem(title string, callback func()) int {
	return t.add(-1, title, callback)
}

// AddSubMenuItem adds an item under parent. parent must be a top-level item.
// Items added after Run appear immediately.
func (t *Tray) AddSubMenuItem(parent int, title string, callback func()) int {
	return t.add(parent, title, callback)
}

// AddLabel adds a disabled item used to show status text
func (t *Tray) AddLabel(title string) int {
	id := t.add(-1, title, nil)
	t.mu.Lock()
	t.items[id].Disabled = true
	t.mu.Unlock()
	return id
}

func (t *Tray) add(parent int, title string, callback func()) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := len(t.items)
	mi := &MenuItem{
		ID:       id,
		Parent:   parent,
		Title:    title,
		Callback: callback,
	}
	t.items = append(t.items, mi)
	if t.ready() {
		t.materialize(mi)
	}
	return id
}

func (t *Tray) ready() bool {
	select {
	case <-t.readyCh:
		return true
	default:
		return false
	}
}

// AddSeparator adds a separator to the menu
func (t *Tray) AddSeparator() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = append(t.items, nil) // nil indicates separator
}

func (t *Tray) get(id int) *MenuItem {
	if id >= 0 && id < len(t.items) {
		return t.items[id]
	}
	return nil
}

// Item returns a snapshot of a menu item
func (t *Tray) Item(id int) (MenuItem, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	mi := t.get(id)
	if mi == nil {
		return MenuItem{}, false
	}
	return *mi, true
}

// SetItemChecked sets the checked state of a menu item
func (t *Tray) SetItemChecked(id int, checked bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	mi := t.get(id)
	if mi == nil {
		return
	}
	mi.Checked = checked
	if mi.item != nil {
		if checked {
			mi.item.Check()
		} else {
			mi.item.Uncheck()
		}
	}
}

// SetItemVisible shows or hides a menu item
func (t *Tray) SetItemVisible(id int, visible bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	mi := t.get(id)
	if mi == nil {
		return
	}
	mi.Hidden = !visible
	if mi.item != nil {
		if visible {
			mi.item.Show()
		} else {
			mi.item.Hide()
		}
	}
}

// SetItemTitle changes the text of a menu item. Safe to call before Run.
func (t *Tray) SetItemTitle(id int, title string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	mi := t.get(id)
	if mi == nil {
		return
	}
	mi.Title = title
	if mi.item != nil {
		mi.item.SetTitle(title)
	}
}

// SetTooltip changes the icon tooltip
func (t *Tray) SetTooltip(tooltip string) {
	t.mu.Lock()
	t.tooltip = tooltip
	t.mu.Unlock()

	if t.ready() {
		systray.SetTooltip(tooltip)
	}
}

// Run starts the tray event loop (blocks)
func (t *Tray) Run() {
	systray.Run(t.setupMenu, t.onExit)
}

func (t *Tray) onExit() {
	close(t.quitCh)
}

// setupMenu is called when systray is ready
func (t *Tray) setupMenu() {
	t.mu.Lock()
	defer t.mu.Unlock()

	systray.SetTitle(t.title)
	systray.SetTooltip(t.tooltip)
	systray.SetIcon(getIcon())

	for _, menuItem := range t.items {
		if menuItem == nil {
			systray.AddSeparator()
			continue
		}
		t.materialize(menuItem)
	}

	close(t.readyCh)
}

// materialize creates the systray item for mi and starts its click handler.
// Callers hold t.mu.
func (t *Tray) materialize(mi *MenuItem) {
	if parent := t.get(mi.Parent); parent != nil && parent.item != nil {
		mi.item = parent.item.AddSubMenuItem(mi.Title, "")
	} else {
		mi.item = systray.AddMenuItem(mi.Title, "")
	}
	if mi.Disabled {
		mi.item.Disable()
	}
	if mi.Checked {
		mi.item.Check()
	}
	if mi.Hidden {
		mi.item.Hide()
	}

	// Handle clicks in goroutine
	if mi.Callback != nil {
		go func(mi *MenuItem, clicked chan struct{}) {
			for {
				select {
				case <-clicked:
					mi.Callback()
				case <-t.quitCh:
					return
				}
			}
		}(mi, mi.item.ClickedCh)
	}
}

// Stop stops the tray
func (t *Tray) Stop() {
	systray.Quit()
}

// getIcon returns a placeholder icon (valid 16x16 ICO)
func getIcon() []byte {
	icon := make([]byte, 1118)
	// ICO Header
	copy(icon[0:6], []byte{0x00, 0x00, 0x01, 0x00, 0x01, 0x00})
	// Icon Directory
	copy(icon[6:22], []byte{
		0x10, 0x10, 0x00, 0x00, 0x01, 0x00, 0x20, 0x00,
		0x48, 0x04, 0x00, 0x00, // 1024 pixels + 40 header + 32 mask
		0x16, 0x00, 0x00, 0x00, // Offset
	})
	// DIB Header
	copy(icon[22:62], []byte{
		0x28, 0x00, 0x00, 0x00, // Size
		0x10, 0x00, 0x00, 0x00, // Width
		0x20, 0x00, 0x00, 0x00, // Height (16 * 2 for icon)
		0x01, 0x00, // Planes
		0x20, 0x00, // BPP
		0x00, 0x00, 0x00, 0x00, // Compression
		0x00, 0x04, 0x00, 0x00, // Image Size
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
	})
	// Pixels and mask stay 0 (transparent); the accent stripe marks it as ours
	for row := 6; row < 10; row++ {
		for col := 2; col < 14; col++ {
			off := 62 + (row*16+col)*4
			copy(icon[off:off+4], []byte{0xE0, 0x90, 0x30, 0xFF}) // BGRA
		}
	}
	return icon
}
