// Package display shows composited frames and supplies key presses to the
// frame loop.
package display

import (
	"log"
	"time"

	"gocv.io/x/gocv"
)

// Display receives every composited frame.
type Display interface {
	Show(frame gocv.Mat) error
	Close() error
}

// KeySource yields at most one key per poll. PollKey blocks for up to
// timeout and reports false when no key arrived.
type KeySource interface {
	PollKey(timeout time.Duration) (int, bool)
}

// Multi fans frames out to several displays.
type Multi []Display

// Show shows frame on every display and returns the first error.
func (m Multi) Show(frame gocv.Mat) error {
	var first error
	for _, d := range m {
		if err := d.Show(frame); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Close closes every display and returns the first error.
func (m Multi) Close() error {
	var first error
	for _, d := range m {
		if err := d.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type merged struct {
	primary KeySource
	queue   *Queue
}

// Merge returns a KeySource that prefers keys waiting on queue and otherwise
// polls primary. primary may be nil, in which case only the queue is polled.
//
// primary is polled on every call, since a highgui window only repaints
// inside WaitKey. A key it yields while a queued key is returned is pushed
// back onto the queue for the next call, or dropped if the queue is full.
func Merge(primary KeySource, queue *Queue) KeySource {
	return &merged{primary: primary, queue: queue}
}

// servicePoll is the primary timeout used when a queued key is already waiting.
const servicePoll = time.Millisecond

func (m *merged) PollKey(timeout time.Duration) (int, bool) {
	if m.primary == nil {
		return m.queue.PollKey(timeout)
	}

	queued, ok := m.queue.TryPoll()
	if !ok {
		return m.primary.PollKey(timeout)
	}

	if key, pressed := m.primary.PollKey(servicePoll); pressed && !m.queue.Push(key) {
		log.Printf("Key queue full, dropping key %d", key)
	}
	return queued, true
}
