package server

import (
	"fmt"
	"net/http"

	"github.com/ayusman/peekaboo/internal/display"
)

// StreamHandler serves composited frames as MJPEG.
type StreamHandler struct {
	stream *display.Stream
}

// NewStreamHandler creates a new StreamHandler over the given frame sink.
func NewStreamHandler(stream *display.Stream) *StreamHandler {
	return &StreamHandler{stream: stream}
}

// ServeHTTP writes each new frame as one multipart part until the client
// disconnects.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	var last uint64
	for {
		// Take the channel first so a frame stored in between is not missed
		next := h.stream.Next()

		if data, seq := h.stream.Latest(); seq != last && data != nil {
			if err := writePart(w, data); err != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
			last = seq
		}

		select {
		case <-r.Context().Done():
			return
		case <-next:
		}
	}
}

func writePart(w http.ResponseWriter, jpeg []byte) error {
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(jpeg)); err != nil {
		return err
	}
	if _, err := w.Write(jpeg); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\r\n")
	return err
}
