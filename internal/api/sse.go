package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gwlsn/bitrated/internal/logger"
	"github.com/gwlsn/bitrated/internal/metrics"
)

// sseWriter wraps an http.ResponseWriter already prepared for
// text/event-stream, exposing a single send method that marshals and
// flushes one named event. It is not safe for concurrent use by more
// than one goroutine — callers write to it sequentially within a
// single request.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// newSSEWriter sets SSE response headers and returns a writer, or
// ok=false if the underlying ResponseWriter can't stream.
func newSSEWriter(w http.ResponseWriter) (*sseWriter, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &sseWriter{w: w, flusher: flusher}, true
}

// send marshals payload as JSON and writes it as one SSE frame tagged
// with eventType, matching spec.md's {type, ...} wire shape.
func (s *sseWriter) send(eventType string, payload interface{}) {
	data, err := json.Marshal(map[string]interface{}{"type": eventType, "data": payload})
	if err != nil {
		logger.Warn("failed to marshal SSE payload", "event", eventType, "err", err)
		return
	}
	fmt.Fprintf(s.w, "data: %s\n\n", data)
	s.flusher.Flush()
}

// QueueEvents handles GET /api/queue/stream (the job-queue-update SSE
// source): an initial snapshot frame, then one frame per queue event
// for as long as the client stays connected.
func (h *Handler) QueueEvents(w http.ResponseWriter, r *http.Request) {
	stream, ok := newSSEWriter(w)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	metrics.SSEClientsConnected.WithLabelValues("job-queue-update").Inc()
	defer metrics.SSEClientsConnected.WithLabelValues("job-queue-update").Dec()

	eventCh := h.queue.Subscribe()
	defer h.queue.Unsubscribe(eventCh)

	stream.send("job-queue-update", h.queue.GetQueueStatus())

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-eventCh:
			if !ok {
				return
			}
			stream.send("job-queue-update", event.Status)
		}
	}
}
