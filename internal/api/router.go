package api

import "net/http"

// route pairs a method+pattern (Go 1.22 ServeMux syntax) with the route
// name used for metrics/logging, so every handler gets wrapped the
// same way without repeating the boilerplate at each registration.
type route struct {
	pattern string
	name    string
	handler http.HandlerFunc
}

// NewRouter builds the HTTP mux for the bitrate analysis API, wrapping
// every handler with request-ID propagation and access logging.
func NewRouter(h *Handler) *http.ServeMux {
	mux := http.NewServeMux()

	routes := []route{
		{"GET /api/health", "/api/health", h.HealthCheck},
		{"GET /api/analyze/stream", "/api/analyze/stream", h.AnalyzeStream},
		{"GET /api/analyze/overall", "/api/analyze/overall", h.AnalyzeOverall},
		{"GET /api/queue", "/api/queue", h.GetQueueStatus},
		{"GET /api/queue/stream", "/api/queue/stream", h.QueueEvents},
		{"POST /api/queue/cancel", "/api/queue/cancel", h.CancelJob},
		{"POST /api/queue/cancel-all", "/api/queue/cancel-all", h.CancelAllJobs},
		{"PUT /api/queue/max-parallel", "/api/queue/max-parallel", h.SetMaxParallel},
		{"GET /api/cache/stats", "/api/cache/stats", h.CacheStats},
		{"POST /api/cache/invalidate", "/api/cache/invalidate", h.InvalidateCache},
		{"POST /api/streams/remove", "/api/streams/remove", h.RemoveStreams},
	}

	for _, rt := range routes {
		mux.Handle(rt.pattern, RequestID(AccessLog(rt.name, rt.handler)))
	}

	return mux
}
