package app

import (
	"time"

	"github.com/ayusman/peekaboo/internal/catalog"
)

// Box is a detection rectangle in frame coordinates.
type Box struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// FeatureEvent is the per-kind part of an Event.
type FeatureEvent struct {
	Kind    catalog.Kind `json:"kind"`
	Boxes   []Box        `json:"boxes"`
	Written int          `json:"written"`
	Error   string       `json:"error,omitempty"`
}

// Event describes one processed frame.
type Event struct {
	Seq       uint64         `json:"seq"`
	Timestamp int64          `json:"timestamp"`
	Enabled   []catalog.Kind `json:"enabled"`
	Features  []FeatureEvent `json:"features"`
}

// NewEvent builds an event from the processor results of one frame.
func NewEvent(seq uint64, at time.Time, enabled []catalog.Kind, results []Result) Event {
	ev := Event{
		Seq:       seq,
		Timestamp: at.UnixMilli(),
		Enabled:   enabled,
		Features:  make([]FeatureEvent, len(results)),
	}
	if ev.Enabled == nil {
		ev.Enabled = []catalog.Kind{}
	}

	for i, r := range results {
		fe := FeatureEvent{
			Kind:    r.Kind,
			Boxes:   make([]Box, len(r.Boxes)),
			Written: r.Written,
		}
		for j, b := range r.Boxes {
			fe.Boxes[j] = Box{X: b.Min.X, Y: b.Min.Y, W: b.Dx(), H: b.Dy()}
		}
		if r.Err != nil {
			fe.Error = r.Err.Error()
		}
		ev.Features[i] = fe
	}

	return ev
}
