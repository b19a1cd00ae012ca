package orchestrator

import "time"

// Progress is one stage update emitted during an analysis run, mirroring
// the payload shape the SSE bitrate-progress stream forwards to clients.
type Progress struct {
	Current        int      `json:"current"`
	Total          int      `json:"total"`
	Percentage     float64  `json:"percentage"`
	Stage          string   `json:"stage"`
	ETASeconds     *float64 `json:"eta_seconds,omitempty"`
	ElapsedSeconds float64  `json:"elapsed_seconds"`
	UsingSampling  *bool    `json:"using_sampling,omitempty"`
	StreamCount    *int     `json:"stream_count,omitempty"`
	CurrentStream  *int     `json:"current_stream,omitempty"`
}

// ProgressFunc receives stage updates. nil is a valid no-op subscriber.
type ProgressFunc func(Progress)

// reporter builds Progress values with a consistent elapsed/ETA
// calculation relative to a fixed start time.
type reporter struct {
	start    time.Time
	onUpdate ProgressFunc
}

func newReporter(onUpdate ProgressFunc) *reporter {
	return &reporter{start: time.Now(), onUpdate: onUpdate}
}

// emit reports a stage at percentage with optional sampling/stream
// context. ETA is only meaningful once some progress has accrued and
// before completion — matching the original's (elapsed/pct)*(100-pct)
// formula, valid only for 5 < pct < 100.
func (r *reporter) emit(current, total int, percentage float64, stage string, usingSampling *bool, streamCount, currentStream *int) {
	if r.onUpdate == nil {
		return
	}
	elapsed := time.Since(r.start).Seconds()

	var eta *float64
	if percentage > 5.0 && percentage < 100.0 {
		remaining := 100.0 - percentage
		v := (elapsed / percentage) * remaining
		eta = &v
	}

	r.onUpdate(Progress{
		Current:        current,
		Total:          total,
		Percentage:     percentage,
		Stage:          stage,
		ETASeconds:     eta,
		ElapsedSeconds: elapsed,
		UsingSampling:  usingSampling,
		StreamCount:    streamCount,
		CurrentStream:  currentStream,
	})
}

func boolPtr(b bool) *bool { return &b }
func intPtr(n int) *int    { return &n }

// elapsed returns seconds since the reporter started, for the
// "Complete in Xs" completion message.
func (r *reporter) elapsed() float64 {
	return time.Since(r.start).Seconds()
}
