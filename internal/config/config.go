// Package config holds runtime configuration for the feature pipeline.
// Values come from Default, may be loaded from a JSON file, and are
// overridden by command-line flags in main.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ayusman/peekaboo/internal/overlay"
)

// Render modes for a feature.
const (
	ModeOverlay   = "overlay"
	ModeRectangle = "rectangle"
)

// SentinelNone disables transparency for an overlay asset.
const SentinelNone = "none"

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Feature declares one detectable feature kind.
type Feature struct {
	Kind    string `json:"kind"`
	Key     string `json:"key"`
	Cascade string `json:"cascade"`
	Mode    string `json:"mode"`

	// Overlay mode.
	Asset    string `json:"asset,omitempty"`
	Role     string `json:"role,omitempty"`
	Sentinel string `json:"sentinel,omitempty"`

	// Rectangle mode.
	Color string `json:"color,omitempty"`

	// Detection parameters. Zero values fall back to the detector defaults.
	MinSize      int     `json:"min_size,omitempty"`
	ScaleFactor  float64 `json:"scale_factor,omitempty"`
	MinNeighbors int     `json:"min_neighbors,omitempty"`
	CannyPruning *bool   `json:"canny_pruning,omitempty"`
}

// Config holds configuration options for the application.
type Config struct {
	DataDir        string    `json:"data_dir"`
	CameraID       int       `json:"camera_id"`
	Width          int       `json:"width"`
	Height         int       `json:"height"`
	WindowName     string    `json:"window_name"`
	Headless       bool      `json:"headless"`
	PollIntervalMs int       `json:"poll_interval_ms"`
	QuitKey        string    `json:"quit_key"`
	Thickness      int       `json:"thickness"`
	DBPath         string    `json:"db_path,omitempty"`
	HTTPAddr       string    `json:"http_addr,omitempty"`
	Tray           bool      `json:"tray"`
	Features       []Feature `json:"features"`
}

// Default returns the stock configuration: face, eye, nose and mouth bound
// to keys 1-4, Esc to quit.
func Default() *Config {
	return &Config{
		DataDir:        "data",
		CameraID:       0,
		Width:          640,
		Height:         480,
		WindowName:     "peekaboo",
		PollIntervalMs: 15,
		QuitKey:        "esc",
		Thickness:      overlay.DefaultThickness,
		Features: []Feature{
			{
				Kind:    "face",
				Key:     "1",
				Cascade: "haarcascade_frontalface_alt.xml",
				Mode:    ModeOverlay,
				Asset:   "tophat.png",
				Role:    "above",
				MinSize: 60,
			},
			{
				Kind:    "eye",
				Key:     "2",
				Cascade: "haarcascade_eye.xml",
				Mode:    ModeOverlay,
				Asset:   "eye.png",
				Role:    "centered",
				MinSize: 30,
			},
			{
				Kind:    "nose",
				Key:     "3",
				Cascade: "haarcascade_mcs_nose.xml",
				Mode:    ModeOverlay,
				Asset:   "moustache.png",
				Role:    "lower-half",
				MinSize: 30,
			},
			{
				Kind:    "mouth",
				Key:     "4",
				Cascade: "haarcascade_mcs_mouth.xml",
				Mode:    ModeRectangle,
				Color:   "#00ff00",
				MinSize: 30,
			},
		},
	}
}

// Load reads configuration from the JSON file at path. If the file does not
// exist it returns Default(). Fields absent from the file keep their defaults;
// a features list in the file replaces the default list.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	// Decode features into a fresh slice so entries never inherit default fields.
	defaults := cfg.Features
	cfg.Features = nil

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.Features == nil {
		cfg.Features = defaults
	}

	return cfg, nil
}

// Save writes the configuration to path as indented JSON.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Resolve returns name joined to DataDir unless it is absolute.
func (c *Config) Resolve(name string) string {
	if name == "" || filepath.IsAbs(name) || c.DataDir == "" {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

// PollInterval returns the key poll timeout that paces the frame loop.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// Validate checks the configuration for errors that must stop startup.
func (c *Config) Validate() error {
	if c.PollIntervalMs <= 0 {
		return fmt.Errorf("%w: poll_interval_ms must be positive", ErrInvalid)
	}
	if c.Width < 0 || c.Height < 0 {
		return fmt.Errorf("%w: frame size must not be negative", ErrInvalid)
	}
	if len(c.Features) == 0 {
		return fmt.Errorf("%w: no features configured", ErrInvalid)
	}

	quit, err := ParseKey(c.QuitKey)
	if err != nil {
		return fmt.Errorf("%w: quit_key: %v", ErrInvalid, err)
	}

	kinds := make(map[string]bool)
	keys := map[int]string{quit: "quit"}
	for i, f := range c.Features {
		if f.Kind == "" {
			return fmt.Errorf("%w: feature %d has no kind", ErrInvalid, i)
		}
		if kinds[f.Kind] {
			return fmt.Errorf("%w: duplicate feature kind %q", ErrInvalid, f.Kind)
		}
		kinds[f.Kind] = true

		key, err := ParseKey(f.Key)
		if err != nil {
			return fmt.Errorf("%w: feature %q key: %v", ErrInvalid, f.Kind, err)
		}
		if other, ok := keys[key]; ok {
			return fmt.Errorf("%w: feature %q key %q already bound to %s", ErrInvalid, f.Kind, f.Key, other)
		}
		keys[key] = f.Kind

		if err := f.validate(); err != nil {
			return fmt.Errorf("%w: feature %q: %v", ErrInvalid, f.Kind, err)
		}
	}

	return nil
}

func (f Feature) validate() error {
	if f.Cascade == "" {
		return errors.New("no cascade")
	}
	if f.MinSize < 0 {
		return errors.New("min_size must not be negative")
	}
	if f.ScaleFactor != 0 && f.ScaleFactor <= 1 {
		return errors.New("scale_factor must be greater than 1")
	}
	if f.MinNeighbors < 0 {
		return errors.New("min_neighbors must not be negative")
	}

	switch f.Mode {
	case ModeOverlay:
		if f.Asset == "" {
			return errors.New("overlay mode needs an asset")
		}
		if _, err := overlay.ParseRole(f.Role); err != nil {
			return err
		}
		if _, err := f.SentinelColor(); err != nil {
			return err
		}
	case ModeRectangle:
		if _, err := ParseColor(f.Color); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown mode %q", f.Mode)
	}

	return nil
}
