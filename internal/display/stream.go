package display

import (
	"bytes"
	"errors"
	"sync"

	"gocv.io/x/gocv"
)

// ErrEmptyFrame is returned when an empty frame is shown.
var ErrEmptyFrame = errors.New("empty frame")

// DefaultJPEGQuality is the encoder quality used by NewStream when none is set.
const DefaultJPEGQuality = 80

// Stream keeps the most recent frame as JPEG for HTTP preview clients.
type Stream struct {
	quality int

	mu    sync.RWMutex
	jpeg  []byte
	seq   uint64
	ready chan struct{}
}

// NewStream creates an empty stream sink encoding at quality (1-100).
func NewStream(quality int) *Stream {
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return &Stream{quality: quality, ready: make(chan struct{})}
}

// Show encodes frame and replaces the stored image.
func (s *Stream) Show(frame gocv.Mat) error {
	if frame.Empty() {
		return ErrEmptyFrame
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, frame, []int{gocv.IMWriteJpegQuality, s.quality})
	if err != nil {
		return err
	}
	data := bytes.Clone(buf.GetBytes())
	buf.Close()

	s.mu.Lock()
	s.jpeg = data
	s.seq++
	ready := s.ready
	s.ready = make(chan struct{})
	s.mu.Unlock()

	close(ready)
	return nil
}

// Latest returns the newest JPEG and its sequence number. The sequence is
// zero until the first frame arrives.
func (s *Stream) Latest() ([]byte, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.jpeg, s.seq
}

// Next returns a channel closed when a frame newer than the current one is
// stored.
func (s *Stream) Next() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Close is a no-op; the stream holds no native resources.
func (s *Stream) Close() error {
	return nil
}
