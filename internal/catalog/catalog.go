// Package catalog declares the feature kinds the pipeline detects and how
// each one is rendered. A Catalog is built once at startup and is read-only
// afterwards.
package catalog

import (
	"fmt"
	"image"
	"image/color"
	"log"

	"github.com/ayusman/peekaboo/internal/config"
	"github.com/ayusman/peekaboo/internal/detector"
	"github.com/ayusman/peekaboo/internal/overlay"
)

// Kind names a feature class such as "face" or "eye".
type Kind string

// Mode selects how detections of a feature are rendered.
type Mode int

const (
	// ModeRectangle outlines each detection in the entry's colour.
	ModeRectangle Mode = iota
	// ModeOverlay composites the entry's asset over each detection.
	ModeOverlay
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeRectangle:
		return config.ModeRectangle
	case ModeOverlay:
		return config.ModeOverlay
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Entry is the static description of one feature kind.
type Entry struct {
	Kind       Kind
	Key        int
	Mode       Mode
	Classifier detector.Classifier
	Params     detector.Params
	Asset      *overlay.Asset
	Color      color.RGBA
	Thickness  int
}

// Catalog is an ordered, immutable list of entries. Order determines which
// overlay wins where detections overlap: later entries draw on top.
type Catalog struct {
	entries []Entry
}

// New creates a catalog from entries in the given order.
func New(entries []Entry) *Catalog {
	c := &Catalog{entries: make([]Entry, len(entries))}
	copy(c.entries, entries)
	return c
}

// Entries returns the entries in catalog order.
func (c *Catalog) Entries() []Entry {
	entries := make([]Entry, len(c.entries))
	copy(entries, c.entries)
	return entries
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Kinds returns the feature kinds in catalog order.
func (c *Catalog) Kinds() []Kind {
	kinds := make([]Kind, len(c.entries))
	for i, e := range c.entries {
		kinds[i] = e.Kind
	}
	return kinds
}

// Lookup returns the entry for kind.
func (c *Catalog) Lookup(kind Kind) (Entry, bool) {
	for _, e := range c.entries {
		if e.Kind == kind {
			return e, true
		}
	}
	return Entry{}, false
}

// Close releases every classifier and asset. It returns the first error.
func (c *Catalog) Close() error {
	var first error
	for _, e := range c.entries {
		if e.Classifier != nil {
			if err := e.Classifier.Close(); err != nil {
				log.Printf("Error closing classifier for %s: %v", e.Kind, err)
				if first == nil {
					first = err
				}
			}
		}
		if e.Asset != nil {
			if err := e.Asset.Close(); err != nil {
				log.Printf("Error closing asset for %s: %v", e.Kind, err)
				if first == nil {
					first = err
				}
			}
		}
	}
	return first
}

// Build validates cfg and loads every classifier and asset it names through
// loader. Any failure releases what was already loaded and returns an error;
// load failures are reported as *LoadError.
func Build(cfg *config.Config, loader Loader) (*Catalog, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Catalog{entries: make([]Entry, 0, len(cfg.Features))}

	for _, f := range cfg.Features {
		entry, err := buildEntry(cfg, f, loader)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.entries = append(c.entries, entry)
		log.Printf("Loaded feature %s (%s, key %q)", entry.Kind, entry.Mode, f.Key)
	}

	return c, nil
}

func buildEntry(cfg *config.Config, f config.Feature, loader Loader) (Entry, error) {
	kind := Kind(f.Kind)

	key, err := config.ParseKey(f.Key)
	if err != nil {
		return Entry{}, err
	}

	entry := Entry{
		Kind:      kind,
		Key:       key,
		Params:    featureParams(f),
		Thickness: cfg.Thickness,
	}
	if err := entry.Params.Validate(); err != nil {
		return Entry{}, fmt.Errorf("feature %s: %w", kind, err)
	}

	switch f.Mode {
	case config.ModeOverlay:
		entry.Mode = ModeOverlay

		role, err := overlay.ParseRole(f.Role)
		if err != nil {
			return Entry{}, err
		}
		sentinel, err := f.SentinelColor()
		if err != nil {
			return Entry{}, err
		}

		path := cfg.Resolve(f.Asset)
		asset, err := loader.LoadAsset(path, role, sentinel)
		if err != nil {
			return Entry{}, &LoadError{Kind: kind, Path: path, Err: err}
		}
		entry.Asset = asset

	case config.ModeRectangle:
		entry.Mode = ModeRectangle

		c, err := config.ParseColor(f.Color)
		if err != nil {
			return Entry{}, err
		}
		entry.Color = c
	}

	path := cfg.Resolve(f.Cascade)
	classifier, err := loader.LoadClassifier(path)
	if err != nil {
		if entry.Asset != nil {
			entry.Asset.Close()
		}
		return Entry{}, &LoadError{Kind: kind, Path: path, Err: err}
	}
	entry.Classifier = classifier

	return entry, nil
}

// featureParams applies the per-feature overrides to detector.DefaultParams.
func featureParams(f config.Feature) detector.Params {
	p := detector.DefaultParams()
	if f.MinSize > 0 {
		p.MinSize = image.Pt(f.MinSize, f.MinSize)
	}
	if f.ScaleFactor > 0 {
		p.ScaleFactor = f.ScaleFactor
	}
	if f.MinNeighbors > 0 {
		p.MinNeighbors = f.MinNeighbors
	}
	if f.CannyPruning != nil {
		p.CannyPruning = *f.CannyPruning
	}
	return p
}
