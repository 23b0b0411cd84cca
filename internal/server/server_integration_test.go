package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/peekaboo/internal/app"
	"github.com/ayusman/peekaboo/internal/capture"
	"github.com/ayusman/peekaboo/internal/catalog"
	"github.com/ayusman/peekaboo/internal/detector"
	"github.com/ayusman/peekaboo/internal/display"
	"github.com/ayusman/peekaboo/internal/store"
	"github.com/ayusman/peekaboo/testdata"
	"gocv.io/x/gocv"
)

func TestAPI_ToggleThroughLoop(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	frame := testdata.SolidFrame(32, 32, testdata.Black)
	defer frame.Close()

	classifier := detector.NewMockClassifier("mouth")
	cat := catalog.New([]catalog.Entry{{
		Kind:       "mouth",
		Key:        '4',
		Mode:       catalog.ModeRectangle,
		Classifier: classifier,
		Params:     detector.DefaultParams(),
		Color:      testdata.Green,
	}})

	queue := display.NewQueue(4)
	a, err := app.New(app.Config{
		Context:      app.Context{Catalog: cat, Detector: detector.NewMockDetector()},
		Camera:       capture.NewMockCamera([]*gocv.Mat{&frame}, true),
		Keys:         display.Merge(nil, queue),
		Remote:       queue,
		QuitKey:      27,
		PollInterval: time.Millisecond,
		Store:        s,
	})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}

	ts := httptest.NewServer(New(Config{Store: s, Controller: a}))
	defer ts.Close()
	client := ts.Client()

	// 1. Queue a toggle over HTTP
	resp, err := client.Post(ts.URL+"/api/features/mouth/toggle", "application/json", nil)
	if err != nil {
		t.Fatalf("POST toggle error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("POST status = %d, want %d", resp.StatusCode, http.StatusAccepted)
	}

	// 2. Run the loop until quit
	if err := a.RequestQuit(); err != nil {
		t.Fatalf("RequestQuit() error = %v", err)
	}
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// 3. The feature list reflects the toggle
	resp, err = client.Get(ts.URL + "/api/features")
	if err != nil {
		t.Fatalf("GET features error = %v", err)
	}
	var features struct {
		Features []app.FeatureStatus `json:"features"`
	}
	json.NewDecoder(resp.Body).Decode(&features)
	resp.Body.Close()

	if len(features.Features) != 1 || !features.Features[0].Enabled {
		t.Errorf("features = %+v, want mouth enabled", features.Features)
	}

	// 4. The session was recorded
	resp, err = client.Get(ts.URL + "/api/sessions/" + a.SessionID())
	if err != nil {
		t.Fatalf("GET session error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET session status = %d", resp.StatusCode)
	}
	var sess store.Session
	json.NewDecoder(resp.Body).Decode(&sess)
	if sess.Frames != 1 || sess.EndReason != "quit" {
		t.Errorf("session = %+v", sess)
	}

	// Unknown kinds are rejected
	resp2, err := client.Post(ts.URL+"/api/features/nose/toggle", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Errorf("unknown kind status = %d, want %d", resp2.StatusCode, http.StatusNotFound)
	}
}
