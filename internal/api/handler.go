// Package api exposes the bitrate analysis engine over HTTP: synchronous
// analysis endpoints that stream their own progress over SSE, queue and
// cache introspection, and the stream-removal operation.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/gwlsn/bitrated/internal/jobqueue"
	"github.com/gwlsn/bitrated/internal/muxremove"
	"github.com/gwlsn/bitrated/internal/orchestrator"
	"github.com/gwlsn/bitrated/internal/probecache"
)

// Handler provides the HTTP API handlers, wired against the engine's
// core components.
type Handler struct {
	orch    *orchestrator.Orchestrator
	queue   *jobqueue.Queue
	cache   *probecache.Cache
	remover *muxremove.Remover
}

// NewHandler returns a Handler over the given components.
func NewHandler(orch *orchestrator.Orchestrator, queue *jobqueue.Queue, cache *probecache.Cache, remover *muxremove.Remover) *Handler {
	return &Handler{orch: orch, queue: queue, cache: cache, remover: remover}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// parseIntervalSeconds reads the interval_seconds query param, defaulting
// to 1.0 when absent.
func parseIntervalSeconds(r *http.Request) (float64, error) {
	v := r.URL.Query().Get("interval_seconds")
	if v == "" {
		return 1.0, nil
	}
	return strconv.ParseFloat(v, 64)
}

// AnalyzeStream handles GET /api/analyze/stream?path=&stream_index=&interval_seconds=
// as an SSE endpoint: it runs analyze_stream in this request's goroutine,
// forwarding every progress update as a bitrate-progress event, then
// emits a final "result" or "error" event before closing.
func (h *Handler) AnalyzeStream(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	streamIndex, err := strconv.Atoi(r.URL.Query().Get("stream_index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "stream_index must be an integer")
		return
	}
	interval, err := parseIntervalSeconds(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "interval_seconds must be a number")
		return
	}

	stream, ok := newSSEWriter(w)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	result, err := h.orch.AnalyzeStream(r.Context(), path, streamIndex, interval, func(p orchestrator.Progress) {
		stream.send("bitrate-progress", p)
	})
	if err != nil {
		stream.send("error", map[string]string{"error": err.Error()})
		return
	}
	stream.send("result", result)
}

// AnalyzeOverall handles GET /api/analyze/overall?path=&interval_seconds=
// the same way AnalyzeStream does, for the whole-file workflow.
func (h *Handler) AnalyzeOverall(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	interval, err := parseIntervalSeconds(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "interval_seconds must be a number")
		return
	}

	stream, ok := newSSEWriter(w)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	result, err := h.orch.AnalyzeOverall(r.Context(), path, interval, func(p orchestrator.Progress) {
		stream.send("bitrate-progress", p)
	})
	if err != nil {
		stream.send("error", map[string]string{"error": err.Error()})
		return
	}
	stream.send("result", result)
}

// GetQueueStatus handles GET /api/queue.
func (h *Handler) GetQueueStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.queue.GetQueueStatus())
}

type cancelRequest struct {
	Path string `json:"path"`
}

// CancelJob handles POST /api/queue/cancel.
func (h *Handler) CancelJob(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	found := h.queue.Cancel(req.Path)
	writeJSON(w, http.StatusOK, map[string]bool{"cancelled": found})
}

// CancelAllJobs handles POST /api/queue/cancel-all.
func (h *Handler) CancelAllJobs(w http.ResponseWriter, r *http.Request) {
	h.queue.CancelAll()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

type maxParallelRequest struct {
	MaxParallel int `json:"max_parallel"`
}

// SetMaxParallel handles PUT /api/queue/max-parallel.
func (h *Handler) SetMaxParallel(w http.ResponseWriter, r *http.Request) {
	var req maxParallelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.queue.SetMaxParallel(req.MaxParallel)
	writeJSON(w, http.StatusOK, h.queue.GetQueueStatus())
}

// CacheStats handles GET /api/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	total, valid := h.cache.Stats()
	writeJSON(w, http.StatusOK, map[string]int{"total": total, "valid": valid})
}

type invalidateRequest struct {
	Path string `json:"path"`
}

// InvalidateCache handles POST /api/cache/invalidate.
func (h *Handler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	var req invalidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	h.cache.Invalidate(req.Path)
	writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

type removeStreamsRequest struct {
	Path          string `json:"path"`
	OutPath       string `json:"out_path"`
	StreamIndexes []int  `json:"stream_indexes"`
}

// RemoveStreams handles POST /api/streams/remove.
func (h *Handler) RemoveStreams(w http.ResponseWriter, r *http.Request) {
	var req removeStreamsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" || req.OutPath == "" {
		writeError(w, http.StatusBadRequest, "path and out_path are required")
		return
	}
	if _, err := os.Stat(req.Path); err != nil {
		writeError(w, http.StatusNotFound, "source file not found")
		return
	}

	if err := h.remover.Remove(r.Context(), req.Path, req.OutPath, req.StreamIndexes); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("stream removal failed: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "complete", "out_path": req.OutPath})
}

// HealthCheck handles GET /api/health, a liveness probe independent of
// any engine component.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
