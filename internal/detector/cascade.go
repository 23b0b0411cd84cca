package detector

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// CascadeDetector implements Detector with OpenCV Haar/LBP cascades.
type CascadeDetector struct {
	gray gocv.Mat
	mu   sync.Mutex
}

// NewCascadeDetector creates a CascadeDetector. Call Close to release its
// scratch buffer.
func NewCascadeDetector() *CascadeDetector {
	return &CascadeDetector{
		gray: gocv.NewMat(),
	}
}

// Detect converts frame to grayscale and runs a multi-scale search with c.
func (d *CascadeDetector) Detect(frame *gocv.Mat, c Classifier, params Params) ([]image.Rectangle, error) {
	if frame == nil || frame.Empty() {
		return nil, ErrEmptyFrame
	}
	if c == nil {
		return nil, ErrNoClassifier
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &d.gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&d.gray)
	}

	rects := c.DetectMultiScaleWithParams(
		d.gray,
		params.ScaleFactor,
		params.MinNeighbors,
		params.Flags(),
		params.MinSize,
		params.MaxSize,
	)

	return rects, nil
}

// Close releases the scratch buffer.
func (d *CascadeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gray.Close()
}

// LoadClassifier reads a cascade definition from path.
// The caller is responsible for closing the returned classifier.
func LoadClassifier(path string) (*gocv.CascadeClassifier, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("classifier %s: %w", path, err)
	}

	c := gocv.NewCascadeClassifier()
	if !c.Load(path) {
		c.Close()
		return nil, fmt.Errorf("classifier %s: %w", path, ErrLoadFailed)
	}

	return &c, nil
}
