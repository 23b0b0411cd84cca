package catalog

import (
	"fmt"
	"image/color"

	"github.com/ayusman/peekaboo/internal/detector"
	"github.com/ayusman/peekaboo/internal/overlay"
)

// Loader reads classifiers and overlay assets from storage.
type Loader interface {
	LoadClassifier(path string) (detector.Classifier, error)
	LoadAsset(path string, role overlay.Role, sentinel *color.RGBA) (*overlay.Asset, error)
}

// LoadError reports a classifier or asset that could not be loaded.
type LoadError struct {
	Kind Kind
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("feature %s: load %s: %v", e.Kind, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// FileLoader loads cascades and images from the file system with gocv.
type FileLoader struct{}

// LoadClassifier implements Loader.
func (FileLoader) LoadClassifier(path string) (detector.Classifier, error) {
	c, err := detector.LoadClassifier(path)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// LoadAsset implements Loader.
func (FileLoader) LoadAsset(path string, role overlay.Role, sentinel *color.RGBA) (*overlay.Asset, error) {
	return overlay.LoadAsset(path, role, sentinel)
}
