// Package app runs the capture, detect, render and display loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ayusman/peekaboo/internal/capture"
	"github.com/ayusman/peekaboo/internal/catalog"
	"github.com/ayusman/peekaboo/internal/display"
	"github.com/ayusman/peekaboo/internal/store"
	"github.com/ayusman/peekaboo/internal/toggle"
	"github.com/google/uuid"
)

// DefaultPollInterval bounds each key poll and so paces the loop.
const DefaultPollInterval = 15 * time.Millisecond

var (
	// ErrUnknownKind is returned when a toggle names a kind not in the catalog.
	ErrUnknownKind = errors.New("unknown feature kind")
	// ErrQueueFull is returned when the remote key queue has no room.
	ErrQueueFull = errors.New("key queue full")
	// ErrNoRemote is returned by remote requests when no queue is configured.
	ErrNoRemote = errors.New("remote control not configured")
)

// Config holds the collaborators and options for an App.
type Config struct {
	Context Context
	Camera  capture.Camera
	// Keys is polled exactly once per iteration.
	Keys display.KeySource
	// Display receives every composited frame. It may be nil.
	Display display.Display
	// Remote carries key presses from the HTTP API and tray. Keys should
	// include it, typically through display.Merge.
	Remote       *display.Queue
	QuitKey      int
	PollInterval time.Duration

	// Store, when set, records the session and its statistics.
	Store    *store.Store
	CameraID int
	Width    int
	Height   int

	// Publisher receives one event per processed frame. It may be nil.
	Publisher Publisher
}

// Publisher receives detection events. Publish must not block.
type Publisher interface {
	Publish(Event)
}

// FeatureStatus is the externally visible state of one feature kind.
type FeatureStatus struct {
	Kind    catalog.Kind `json:"kind"`
	Key     string       `json:"key"`
	Mode    string       `json:"mode"`
	Enabled bool         `json:"enabled"`
}

// App is the frame loop. Run must be called from a single goroutine; the
// status and request methods are safe to call from any goroutine.
type App struct {
	config    Config
	processor *Processor
	toggles   *toggle.Controller
	keys      map[catalog.Kind]int

	mu        sync.RWMutex
	status    []FeatureStatus
	stats     *Stats
	sessionID string
	onToggle  func(kind catalog.Kind, enabled bool)
	seq       uint64
}

// New creates an App. It fails if the catalog's key bindings conflict.
func New(config Config) (*App, error) {
	if config.Context.Catalog == nil || config.Context.Detector == nil {
		return nil, errors.New("app: context needs a catalog and a detector")
	}
	if config.Camera == nil || config.Keys == nil {
		return nil, errors.New("app: camera and key source are required")
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}

	toggles, err := toggle.FromCatalog(config.Context.Catalog, config.QuitKey)
	if err != nil {
		return nil, err
	}

	a := &App{
		config:    config,
		processor: NewProcessor(config.Context),
		toggles:   toggles,
		keys:      make(map[catalog.Kind]int),
		stats:     NewStats(config.Context.Catalog.Kinds()),
	}
	for _, e := range config.Context.Catalog.Entries() {
		a.keys[e.Kind] = e.Key
	}
	a.publishStatus(toggles.State())

	return a, nil
}

// OnToggle sets a callback invoked from the loop goroutine after each toggle.
func (a *App) OnToggle(fn func(kind catalog.Kind, enabled bool)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onToggle = fn
}

// Features returns the feature kinds in catalog order with their state as of
// the last loop iteration.
func (a *App) Features() []FeatureStatus {
	a.mu.RLock()
	defer a.mu.RUnlock()

	status := make([]FeatureStatus, len(a.status))
	copy(status, a.status)
	return status
}

// RequestToggle queues the key bound to kind. The loop applies it on its next
// poll.
func (a *App) RequestToggle(kind catalog.Kind) error {
	key, ok := a.keys[kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return a.push(key)
}

// RequestQuit queues the quit key.
func (a *App) RequestQuit() error {
	return a.push(a.config.QuitKey)
}

func (a *App) push(key int) error {
	if a.config.Remote == nil {
		return ErrNoRemote
	}
	if !a.config.Remote.Push(key) {
		return ErrQueueFull
	}
	return nil
}

// Stats returns a snapshot of the counters for the current or last run.
func (a *App) Stats() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stats.Snapshot()
}

// SessionID returns the id of the recorded session, or "" when no store is
// configured.
func (a *App) SessionID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sessionID
}

// Run opens the camera and processes frames until the quit key is read or
// ctx is cancelled. Resources opened by Run are released before it returns.
func (a *App) Run(ctx context.Context) error {
	if err := a.config.Camera.Open(); err != nil {
		return err
	}
	defer func() {
		if err := a.config.Camera.Close(); err != nil {
			log.Printf("Error closing camera: %v", err)
		}
	}()

	a.startSession()
	log.Println("Frame loop started")

	reason := "quit"
	for {
		if ctx.Err() != nil {
			reason = "cancelled"
			break
		}
		if a.step() {
			break
		}
	}

	a.finishSession(reason)
	log.Printf("Frame loop stopped (%s)", reason)
	return nil
}

func (a *App) startSession() {
	if a.config.Store == nil {
		return
	}

	sess := &store.Session{
		ID:       uuid.NewString(),
		CameraID: a.config.CameraID,
		Width:    a.config.Width,
		Height:   a.config.Height,
	}
	if size := a.config.Camera.Resolution(); size.X > 0 && size.Y > 0 {
		sess.Width, sess.Height = size.X, size.Y
	}
	if err := a.config.Store.Sessions().Create(sess); err != nil {
		log.Printf("Failed to record session: %v", err)
		return
	}

	a.mu.Lock()
	a.sessionID = sess.ID
	a.mu.Unlock()
	log.Printf("Recording session %s", sess.ID)
}

func (a *App) finishSession(reason string) {
	id := a.SessionID()
	if a.config.Store == nil || id == "" {
		return
	}

	snap := a.Stats()
	if err := a.config.Store.Stats().Add(id, snap.FeatureStats()); err != nil {
		log.Printf("Failed to save feature stats: %v", err)
	}
	if err := a.config.Store.Sessions().Finish(id, snap.Frames, snap.Skipped, reason); err != nil {
		log.Printf("Failed to finish session %s: %v", id, err)
	}
}

func (a *App) publishStatus(state toggle.State) {
	entries := a.config.Context.Catalog.Entries()
	status := make([]FeatureStatus, len(entries))
	for i, e := range entries {
		status[i] = FeatureStatus{
			Kind:    e.Kind,
			Key:     keyName(e.Key),
			Mode:    e.Mode.String(),
			Enabled: state.Enabled(e.Kind),
		}
	}

	a.mu.Lock()
	a.status = status
	a.mu.Unlock()
}

func keyName(key int) string {
	if key > 32 && key < 127 {
		return string(rune(key))
	}
	return fmt.Sprintf("#%d", key)
}
