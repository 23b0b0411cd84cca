// Package detector runs cascade classifiers over video frames.
package detector

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

var (
	// ErrEmptyFrame is returned when Detect is given a nil or empty frame.
	ErrEmptyFrame = errors.New("frame is empty")
	// ErrNoClassifier is returned when Detect is given a nil classifier.
	ErrNoClassifier = errors.New("no classifier")
	// ErrLoadFailed is returned when a cascade file cannot be parsed.
	ErrLoadFailed = errors.New("failed to load cascade")
	// ErrInvalidParams is returned by Params.Validate.
	ErrInvalidParams = errors.New("invalid detection parameters")
)

// FlagCannyPruning skips scan windows over low-gradient regions.
// It matches OpenCV's CASCADE_DO_CANNY_PRUNING.
const FlagCannyPruning = 1

// Classifier is a trained pattern matcher for one feature class.
// *gocv.CascadeClassifier satisfies this interface.
type Classifier interface {
	DetectMultiScaleWithParams(img gocv.Mat, scale float64, minNeighbors, flags int, minSize, maxSize image.Point) []image.Rectangle
	Close() error
}

// Detector defines the interface for feature detection implementations.
type Detector interface {
	// Detect runs c over frame and returns the matched regions in frame
	// coordinates. Returns an empty slice if nothing matched.
	Detect(frame *gocv.Mat, c Classifier, params Params) ([]image.Rectangle, error)
}

// Params holds the multi-scale search options for one feature kind.
type Params struct {
	// ScaleFactor is the image pyramid step (default: 1.2).
	ScaleFactor float64

	// MinNeighbors is the number of overlapping windows needed to accept a match.
	MinNeighbors int

	// CannyPruning enables FlagCannyPruning.
	CannyPruning bool

	// MinSize is the smallest window searched.
	MinSize image.Point

	// MaxSize is the largest window searched. The zero value means unbounded.
	MaxSize image.Point
}

// DefaultParams returns the parameters used for sub-features such as eyes
// and noses.
func DefaultParams() Params {
	return Params{
		ScaleFactor:  1.2,
		MinNeighbors: 3,
		CannyPruning: true,
		MinSize:      image.Pt(30, 30),
	}
}

// FaceParams returns DefaultParams with the larger minimum window used for
// whole faces.
func FaceParams() Params {
	p := DefaultParams()
	p.MinSize = image.Pt(60, 60)
	return p
}

// Flags returns the OpenCV flag bits for p.
func (p Params) Flags() int {
	if p.CannyPruning {
		return FlagCannyPruning
	}
	return 0
}

// Validate checks that the search can terminate and sizes are sane.
func (p Params) Validate() error {
	if p.ScaleFactor <= 1.0 {
		return fmt.Errorf("%w: scale factor must be greater than 1", ErrInvalidParams)
	}
	if p.MinNeighbors < 0 {
		return fmt.Errorf("%w: min neighbors must not be negative", ErrInvalidParams)
	}
	if p.MinSize.X < 0 || p.MinSize.Y < 0 || p.MaxSize.X < 0 || p.MaxSize.Y < 0 {
		return fmt.Errorf("%w: window sizes must not be negative", ErrInvalidParams)
	}
	if p.MaxSize != (image.Point{}) && (p.MaxSize.X < p.MinSize.X || p.MaxSize.Y < p.MinSize.Y) {
		return fmt.Errorf("%w: max size is smaller than min size", ErrInvalidParams)
	}
	return nil
}
