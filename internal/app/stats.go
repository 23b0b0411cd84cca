package app

import (
	"github.com/ayusman/peekaboo/internal/catalog"
	"github.com/ayusman/peekaboo/internal/store"
)

// KindStats are the running counters for one feature kind.
type KindStats struct {
	Kind       catalog.Kind `json:"kind"`
	Frames     int64        `json:"frames"`
	Detections int64        `json:"detections"`
	Pixels     int64        `json:"pixels"`
	Faults     int64        `json:"faults"`
	Toggles    int64        `json:"toggles"`
}

// Snapshot is a copy of the loop counters.
type Snapshot struct {
	Frames   int64       `json:"frames"`
	Skipped  int64       `json:"skipped"`
	Features []KindStats `json:"features"`
}

// FeatureStats converts the per-kind counters for the store.
func (s Snapshot) FeatureStats() []store.FeatureStats {
	stats := make([]store.FeatureStats, len(s.Features))
	for i, k := range s.Features {
		stats[i] = store.FeatureStats{
			Kind:       string(k.Kind),
			Frames:     k.Frames,
			Detections: k.Detections,
			Pixels:     k.Pixels,
			Faults:     k.Faults,
			Toggles:    k.Toggles,
		}
	}
	return stats
}

// Stats accumulates counters across frames. It is not safe for concurrent
// use; App guards it with its mutex.
type Stats struct {
	frames  int64
	skipped int64
	order   []catalog.Kind
	kinds   map[catalog.Kind]*KindStats
}

// NewStats creates zeroed counters for kinds.
func NewStats(kinds []catalog.Kind) *Stats {
	s := &Stats{
		order: kinds,
		kinds: make(map[catalog.Kind]*KindStats, len(kinds)),
	}
	for _, k := range kinds {
		s.kinds[k] = &KindStats{Kind: k}
	}
	return s
}

// Record counts one processed frame and its results.
func (s *Stats) Record(results []Result) {
	s.frames++
	for _, r := range results {
		k, ok := s.kinds[r.Kind]
		if !ok {
			continue
		}
		k.Frames++
		k.Detections += int64(len(r.Boxes))
		k.Pixels += int64(r.Written)
		if r.Err != nil {
			k.Faults++
		}
	}
}

// Skip counts a frame that could not be captured.
func (s *Stats) Skip() {
	s.skipped++
}

// Toggle counts a state change of kind.
func (s *Stats) Toggle(kind catalog.Kind) {
	if k, ok := s.kinds[kind]; ok {
		k.Toggles++
	}
}

// Snapshot returns a copy of the counters in catalog order.
func (s *Stats) Snapshot() Snapshot {
	snap := Snapshot{
		Frames:   s.frames,
		Skipped:  s.skipped,
		Features: make([]KindStats, len(s.order)),
	}
	for i, k := range s.order {
		snap.Features[i] = *s.kinds[k]
	}
	return snap
}
