package streaming

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"merlin-playlist/internal/logging"
	"merlin-playlist/internal/metrics"
)

// DefaultIdleTimeout bounds the time a single write may block.
const DefaultIdleTimeout = 60 * time.Second

// Writer wraps an http.ResponseWriter and pushes the connection's write
// deadline forward before every write. A transfer can run for as long as the
// client keeps reading; it fails once one write stalls past the idle timeout.
type Writer struct {
	http.ResponseWriter
	rc      *http.ResponseController
	idle    time.Duration
	start   time.Time
	written atomic.Int64
	// deadlines is false when the underlying writer cannot set deadlines,
	// as with httptest recorders.
	deadlines bool
}

// NewWriter wraps w. A non-positive idle uses DefaultIdleTimeout.
func NewWriter(w http.ResponseWriter, idle time.Duration) *Writer {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	return &Writer{
		ResponseWriter: w,
		rc:             http.NewResponseController(w),
		idle:           idle,
		start:          time.Now(),
		deadlines:      true,
	}
}

func (sw *Writer) extend() {
	if !sw.deadlines {
		return
	}
	if err := sw.rc.SetWriteDeadline(time.Now().Add(sw.idle)); err != nil {
		if errors.Is(err, http.ErrNotSupported) {
			sw.deadlines = false
			return
		}
		logging.Debug("Failed to extend write deadline: %v", err)
	}
}

// Write implements io.Writer.
func (sw *Writer) Write(p []byte) (int, error) {
	sw.extend()
	n, err := sw.ResponseWriter.Write(p)
	sw.written.Add(int64(n))
	return n, err
}

// Flush implements http.Flusher.
func (sw *Writer) Flush() {
	sw.extend()
	if err := sw.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		logging.Debug("Flush failed: %v", err)
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (sw *Writer) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}

// Written returns the number of body bytes written so far.
func (sw *Writer) Written() int64 {
	return sw.written.Load()
}

// Close clears the write deadline so the connection can be reused.
func (sw *Writer) Close() error {
	if !sw.deadlines {
		return nil
	}
	err := sw.rc.SetWriteDeadline(time.Time{})
	if errors.Is(err, http.ErrNotSupported) {
		return nil
	}
	return err
}

// Outcome classifies a finished transfer for metrics.
func Outcome(ctx context.Context) string {
	err := ctx.Err()
	switch {
	case err == nil:
		return "complete"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "client_gone"
	}
}

// ServeFile serves path through a Writer so that slow clients cannot hold
// the connection once they stop reading. Range requests and conditional
// headers are handled by http.ServeFile.
func ServeFile(w http.ResponseWriter, r *http.Request, path string, idle time.Duration) {
	sw := NewWriter(w, idle)
	defer func() {
		if err := sw.Close(); err != nil {
			logging.Debug("Failed to clear write deadline: %v", err)
		}
	}()

	http.ServeFile(sw, r, path)

	outcome := Outcome(r.Context())
	metrics.StreamBytesTotal.Add(float64(sw.Written()))
	metrics.StreamsTotal.WithLabelValues(outcome).Inc()
	logging.Debug("Served %s: %d bytes in %v (%s)", path, sw.Written(), time.Since(sw.start), outcome)
}
