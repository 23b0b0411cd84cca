package detector

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// MockClassifier is an opaque classifier handle for tests.
// It never matches anything when used with CascadeDetector.
type MockClassifier struct {
	Name   string
	closed bool
}

// NewMockClassifier creates a named mock classifier.
func NewMockClassifier(name string) *MockClassifier {
	return &MockClassifier{Name: name}
}

// DetectMultiScaleWithParams returns no matches.
func (c *MockClassifier) DetectMultiScaleWithParams(img gocv.Mat, scale float64, minNeighbors, flags int, minSize, maxSize image.Point) []image.Rectangle {
	return nil
}

// Close marks the classifier closed.
func (c *MockClassifier) Close() error {
	c.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (c *MockClassifier) Closed() bool {
	return c.closed
}

// Call records one invocation of MockDetector.Detect.
type Call struct {
	Classifier Classifier
	Params     Params
}

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results per classifier.
type MockDetector struct {
	boxes map[Classifier][]image.Rectangle
	errs  map[Classifier]error
	calls []Call
	mu    sync.Mutex
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{
		boxes: make(map[Classifier][]image.Rectangle),
		errs:  make(map[Classifier]error),
	}
}

// SetBoxes sets the boxes returned when Detect is called with c.
func (m *MockDetector) SetBoxes(c Classifier, boxes []image.Rectangle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.boxes[c] = boxes
}

// SetError sets the error returned when Detect is called with c.
func (m *MockDetector) SetError(c Classifier, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[c] = err
}

// Detect returns the pre-configured boxes or error for c.
func (m *MockDetector) Detect(frame *gocv.Mat, c Classifier, params Params) ([]image.Rectangle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, Call{Classifier: c, Params: params})

	if err := m.errs[c]; err != nil {
		return nil, err
	}
	return m.boxes[c], nil
}

// Calls returns the recorded Detect invocations in order.
func (m *MockDetector) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]Call, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// Reset clears recorded calls.
func (m *MockDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}
