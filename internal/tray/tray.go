// Package tray provides a system tray menu with a check item per feature kind.
package tray

import (
	"sync"

	"github.com/ayusman/peekaboo/internal/app"
	"github.com/ayusman/peekaboo/internal/catalog"
	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	title    string
	features []app.FeatureStatus
	onToggle func(kind catalog.Kind)
	onOpen   func()
	onQuit   func()
	checked  map[catalog.Kind]bool
	mu       sync.RWMutex

	// Menu items stored for later updates
	items map[catalog.Kind]*systray.MenuItem
}

// New creates a tray listing features in the given order.
func New(title string, features []app.FeatureStatus) *Tray {
	t := &Tray{
		title:    title,
		features: features,
		checked:  make(map[catalog.Kind]bool, len(features)),
	}
	for _, f := range features {
		t.checked[f.Kind] = f.Enabled
	}
	return t
}

// OnToggle sets the callback invoked when a feature item is clicked. The
// check mark is updated by SetChecked once the toggle has been applied.
func (t *Tray) OnToggle(fn func(kind catalog.Kind)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnOpen sets the callback for the "Open Preview..." item. The item is only
// shown when a callback is set before Run.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit removes the tray icon and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle(t.title)
	systray.SetTooltip(t.title + " feature overlays")

	items := make(map[catalog.Kind]*systray.MenuItem, len(t.features))
	for _, f := range t.features {
		item := systray.AddMenuItem(string(f.Kind)+" ("+f.Key+")", "Toggle "+string(f.Kind))
		items[f.Kind] = item
	}

	t.mu.Lock()
	t.items = items
	for kind, item := range items {
		if t.checked[kind] {
			item.Check()
		}
	}
	hasOpen := t.onOpen != nil
	t.mu.Unlock()

	systray.AddSeparator()

	var openCh chan struct{}
	if hasOpen {
		openCh = systray.AddMenuItem("Open Preview...", "Open the preview stream in a browser").ClickedCh
	}
	menuQuit := systray.AddMenuItem("Quit", "Quit "+t.title)

	for kind, item := range items {
		go t.watch(kind, item.ClickedCh)
	}

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-openCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) watch(kind catalog.Kind, clicked chan struct{}) {
	for range clicked {
		t.handleToggle(kind)
	}
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

// handleToggle forwards a feature item click.
func (t *Tray) handleToggle(kind catalog.Kind) {
	t.mu.RLock()
	callback := t.onToggle
	t.mu.RUnlock()

	if callback != nil {
		callback(kind)
	}
}

// handleOpen handles the preview menu item click.
func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// SetChecked updates the check mark of kind. It is safe to call before the
// menu exists; the state is applied when the menu is built.
func (t *Tray) SetChecked(kind catalog.Kind, enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.checked[kind] = enabled

	item, ok := t.items[kind]
	if !ok {
		return
	}
	if enabled {
		item.Check()
	} else {
		item.Uncheck()
	}
}

// IsChecked returns the last state set for kind.
func (t *Tray) IsChecked(kind catalog.Kind) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.checked[kind]
}
