package display

import (
	"time"
)

// DefaultQueueSize bounds the number of pending remote key presses.
const DefaultQueueSize = 16

// Queue carries key presses from other goroutines (HTTP, tray) to the frame
// loop. Push never blocks.
type Queue struct {
	keys chan int
}

// NewQueue creates a queue holding up to size pending keys.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{keys: make(chan int, size)}
}

// Push enqueues key. It returns false when the queue is full.
func (q *Queue) Push(key int) bool {
	select {
	case q.keys <- key:
		return true
	default:
		return false
	}
}

// TryPoll returns a pending key without waiting.
func (q *Queue) TryPoll() (int, bool) {
	select {
	case key := <-q.keys:
		return key, true
	default:
		return 0, false
	}
}

// PollKey waits up to timeout for a key.
func (q *Queue) PollKey(timeout time.Duration) (int, bool) {
	if timeout <= 0 {
		return q.TryPoll()
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case key := <-q.keys:
		return key, true
	case <-timer.C:
		return 0, false
	}
}

// Len returns the number of pending keys.
func (q *Queue) Len() int {
	return len(q.keys)
}
