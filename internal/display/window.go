package display

import (
	"time"

	"gocv.io/x/gocv"
)

// NoKey is what highgui reports when no key was pressed.
const NoKey = -1

// Window is a highgui window. It is both a Display and a KeySource, and must
// be used from the goroutine that created it.
type Window struct {
	name   string
	window *gocv.Window
}

// NewWindow opens a highgui window titled name.
func NewWindow(name string) *Window {
	return &Window{name: name, window: gocv.NewWindow(name)}
}

// Name returns the window title.
func (w *Window) Name() string {
	return w.name
}

// Show draws frame in the window.
func (w *Window) Show(frame gocv.Mat) error {
	w.window.IMShow(frame)
	return nil
}

// PollKey waits for a key press. Durations under a millisecond are rounded
// up, since a zero delay would block forever.
func (w *Window) PollKey(timeout time.Duration) (int, bool) {
	ms := int(timeout / time.Millisecond)
	if ms < 1 {
		ms = 1
	}

	key := w.window.WaitKey(ms)
	if key == NoKey {
		return 0, false
	}
	return key & 0xff, true
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.window.Close()
}
