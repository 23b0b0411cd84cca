package app

import (
	"context"
	"errors"
	"image"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ayusman/peekaboo/internal/capture"
	"github.com/ayusman/peekaboo/internal/catalog"
	"github.com/ayusman/peekaboo/internal/display"
	"github.com/ayusman/peekaboo/internal/store"
	"github.com/ayusman/peekaboo/testdata"
	"gocv.io/x/gocv"
)

const (
	quitKey = 27
	noKey   = -1
)

// scriptKeys replays keys one per poll, then presses quit.
type scriptKeys struct {
	keys  []int
	polls int
}

func (s *scriptKeys) PollKey(timeout time.Duration) (int, bool) {
	s.polls++
	if len(s.keys) == 0 {
		return quitKey, true
	}
	key := s.keys[0]
	s.keys = s.keys[1:]
	if key == noKey {
		return 0, false
	}
	return key, true
}

// idleKeys never reports a key.
type idleKeys struct{}

func (idleKeys) PollKey(timeout time.Duration) (int, bool) {
	time.Sleep(time.Millisecond)
	return 0, false
}

type countingDisplay struct {
	shown int
}

func (d *countingDisplay) Show(frame gocv.Mat) error {
	d.shown++
	return nil
}

func (d *countingDisplay) Close() error { return nil }

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func newMockCamera(t *testing.T) *capture.MockCamera {
	t.Helper()
	frame := testdata.SolidFrame(64, 48, testdata.Black)
	t.Cleanup(func() { frame.Close() })
	return capture.NewMockCamera([]*gocv.Mat{&frame}, true)
}

func newTestApp(t *testing.T, f *fixture, cfg Config) *App {
	t.Helper()
	cfg.Context = f.context()
	cfg.QuitKey = quitKey
	cfg.PollInterval = time.Millisecond
	if cfg.Camera == nil {
		cfg.Camera = newMockCamera(t)
	}

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a
}

func TestNew_Validation(t *testing.T) {
	f := newFixture(t)

	if _, err := New(Config{}); err == nil {
		t.Error("New() without a context should fail")
	}
	if _, err := New(Config{Context: f.context()}); err == nil {
		t.Error("New() without camera and keys should fail")
	}

	// '1' is bound to face.
	_, err := New(Config{Context: f.context(), Camera: newMockCamera(t), Keys: idleKeys{}, QuitKey: '1'})
	if err == nil {
		t.Error("New() with a feature bound to the quit key should fail")
	}
}

func TestRun_QuitBeforeCapture(t *testing.T) {
	f := newFixture(t)
	cam := newMockCamera(t)
	a := newTestApp(t, f, Config{Camera: cam, Keys: &scriptKeys{}})

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if cam.Reads() != 0 {
		t.Errorf("camera read %d frames, want 0", cam.Reads())
	}
	if cam.IsOpen() {
		t.Error("camera left open after Run")
	}
	if s := a.Stats(); s.Frames != 0 {
		t.Errorf("Frames = %d, want 0", s.Frames)
	}
}

func TestRun_AppliesTogglesAndRenders(t *testing.T) {
	f := newFixture(t)
	f.detector.SetBoxes(f.classifiers["face"], []image.Rectangle{image.Rect(10, 10, 20, 20)})

	disp := &countingDisplay{}
	pub := &recordingPublisher{}
	keys := &scriptKeys{keys: []int{'1', noKey, noKey}}
	a := newTestApp(t, f, Config{Keys: keys, Display: disp, Publisher: pub})

	var toggled []catalog.Kind
	a.OnToggle(func(kind catalog.Kind, enabled bool) {
		if enabled {
			toggled = append(toggled, kind)
		}
	})

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if keys.polls != 4 {
		t.Errorf("polled %d times, want 4", keys.polls)
	}
	if disp.shown != 3 {
		t.Errorf("shown %d frames, want 3", disp.shown)
	}
	if len(toggled) != 1 || toggled[0] != "face" {
		t.Errorf("OnToggle saw %v, want [face]", toggled)
	}

	s := a.Stats()
	if s.Frames != 3 || s.Skipped != 0 {
		t.Errorf("Frames = %d, Skipped = %d; want 3, 0", s.Frames, s.Skipped)
	}
	face := s.Features[0]
	if face.Kind != "face" || face.Frames != 3 || face.Detections != 3 || face.Pixels != 300 || face.Toggles != 1 {
		t.Errorf("face stats = %+v", face)
	}
	if s.Features[1].Frames != 0 {
		t.Errorf("disabled eye processed %d frames", s.Features[1].Frames)
	}

	if len(pub.events) != 3 {
		t.Fatalf("published %d events, want 3", len(pub.events))
	}
	ev := pub.events[2]
	if ev.Seq != 3 || len(ev.Enabled) != 1 || ev.Enabled[0] != "face" {
		t.Errorf("last event = %+v", ev)
	}
	if len(ev.Features) != 1 || ev.Features[0].Boxes[0] != (Box{X: 10, Y: 10, W: 10, H: 10}) {
		t.Errorf("event features = %+v", ev.Features)
	}

	status := a.Features()
	if len(status) != 3 || !status[0].Enabled || status[1].Enabled {
		t.Errorf("Features() = %+v", status)
	}
	if status[0].Key != "1" || status[2].Mode != "rectangle" {
		t.Errorf("Features() = %+v", status)
	}
}

func TestRun_SkipsCaptureFailures(t *testing.T) {
	f := newFixture(t)
	cam := newMockCamera(t)
	cam.FailAt(1, capture.ErrReadFailed)

	disp := &countingDisplay{}
	a := newTestApp(t, f, Config{
		Camera:  cam,
		Keys:    &scriptKeys{keys: []int{noKey, noKey, noKey}},
		Display: disp,
	})

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	s := a.Stats()
	if s.Frames != 2 || s.Skipped != 1 {
		t.Errorf("Frames = %d, Skipped = %d; want 2, 1", s.Frames, s.Skipped)
	}
	if disp.shown != 2 {
		t.Errorf("shown %d frames, want 2", disp.shown)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	f := newFixture(t)
	a := newTestApp(t, f, Config{Keys: idleKeys{}})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not stop after cancel")
	}

	if a.Stats().Frames == 0 {
		t.Error("no frames processed before cancel")
	}
}

func TestRun_CameraOpenFailure(t *testing.T) {
	f := newFixture(t)
	a := newTestApp(t, f, Config{Camera: failingCamera{}, Keys: idleKeys{}})

	if err := a.Run(context.Background()); err == nil {
		t.Error("Run() should fail when the camera cannot open")
	}
}

type failingCamera struct{}

func (failingCamera) Open() error                   { return errors.New("no device") }
func (failingCamera) Close() error                  { return nil }
func (failingCamera) ReadFrame() (*gocv.Mat, error) { return nil, capture.ErrCameraNotOpen }
func (failingCamera) IsOpen() bool                  { return false }
func (failingCamera) Resolution() image.Point       { return image.Point{} }

func TestRequestToggle(t *testing.T) {
	f := newFixture(t)
	queue := display.NewQueue(1)
	a := newTestApp(t, f, Config{Keys: display.Merge(nil, queue), Remote: queue})

	if err := a.RequestToggle("nose"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("RequestToggle(nose) error = %v, want ErrUnknownKind", err)
	}
	if err := a.RequestToggle("eye"); err != nil {
		t.Fatalf("RequestToggle(eye) error = %v", err)
	}
	if err := a.RequestToggle("face"); !errors.Is(err, ErrQueueFull) {
		t.Errorf("RequestToggle on full queue error = %v, want ErrQueueFull", err)
	}

	key, ok := queue.TryPoll()
	if !ok || key != '2' {
		t.Errorf("queued key = %d, %v; want '2'", key, ok)
	}
}

func TestRequestToggle_NoRemote(t *testing.T) {
	f := newFixture(t)
	a := newTestApp(t, f, Config{Keys: idleKeys{}})

	if err := a.RequestToggle("face"); !errors.Is(err, ErrNoRemote) {
		t.Errorf("RequestToggle() error = %v, want ErrNoRemote", err)
	}
}

func TestRun_RemoteToggleAndQuit(t *testing.T) {
	f := newFixture(t)
	queue := display.NewQueue(4)
	a := newTestApp(t, f, Config{Keys: display.Merge(nil, queue), Remote: queue})

	a.RequestToggle("mouth")
	a.RequestQuit()

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !a.Features()[2].Enabled {
		t.Error("remote toggle of mouth was not applied")
	}
	if a.Stats().Frames != 1 {
		t.Errorf("Frames = %d, want 1", a.Stats().Frames)
	}
}

func TestRun_RecordsSession(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	f := newFixture(t)
	f.detector.SetBoxes(f.classifiers["eye"], []image.Rectangle{image.Rect(5, 5, 10, 10)})
	a := newTestApp(t, f, Config{
		Keys:     &scriptKeys{keys: []int{'2', noKey}},
		Store:    s,
		CameraID: 3,
		Width:    640,
		Height:   480,
	})

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	id := a.SessionID()
	if id == "" {
		t.Fatal("no session id recorded")
	}

	sess, err := s.Sessions().GetByID(id)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if sess.Frames != 2 || sess.EndReason != "quit" || sess.CameraID != 3 || sess.EndedAt == nil {
		t.Errorf("session = %+v", sess)
	}
	// The device-reported size wins over the requested one.
	if sess.Width != 64 || sess.Height != 48 {
		t.Errorf("session size = %dx%d, want 64x48", sess.Width, sess.Height)
	}

	var eye *store.FeatureStats
	for i := range sess.Features {
		if sess.Features[i].Kind == "eye" {
			eye = &sess.Features[i]
		}
	}
	if eye == nil {
		t.Fatalf("no eye stats in %+v", sess.Features)
	}
	if eye.Frames != 2 || eye.Detections != 2 || eye.Pixels != 50 || eye.Toggles != 1 {
		t.Errorf("eye stats = %+v", eye)
	}
}
