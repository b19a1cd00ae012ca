package jobqueue

import (
	"math"
	"sync/atomic"
	"time"
)

// Job tracks one bitrate-analysis run. IDs are the file's content hash
// rather than a counter, so re-enqueueing an identical file round-trips
// to the same ID (spec.md §4.9's open-question decision).
type Job struct {
	ID        string
	Path      string
	QueuedAt  time.Time
	StartedAt time.Time

	progress atomic.Uint64 // bit-cast float64 progress, 0-100
	cancel   atomic.Bool
}

func newJob(path, hash string) *Job {
	return &Job{ID: hash, Path: path, QueuedAt: time.Now()}
}

func (j *Job) isCancelled() bool { return j.cancel.Load() }

func (j *Job) setProgress(p float64) { j.progress.Store(math.Float64bits(p)) }

func (j *Job) getProgress() float64 { return math.Float64frombits(j.progress.Load()) }

// EnqueueResult describes what Enqueue actually did with a submission.
type EnqueueResult int

const (
	Started EnqueueResult = iota
	Queued
	AlreadyExists
)

func (r EnqueueResult) String() string {
	switch r {
	case Started:
		return "started"
	case Queued:
		return "queued"
	case AlreadyExists:
		return "already_exists"
	default:
		return "unknown"
	}
}

// JobInfo is the externally-visible snapshot of a single job, used by
// GetQueueStatus and the job-queue-update SSE stream.
type JobInfo struct {
	ID             string  `json:"id"`
	Path           string  `json:"path"`
	State          string  `json:"state"`
	QueuedSeconds  float64 `json:"queued_seconds"`
	RunningSeconds float64 `json:"running_seconds,omitempty"`
	Progress       float64 `json:"progress,omitempty"`
}

// QueueStatus is the full snapshot returned by GetQueueStatus.
type QueueStatus struct {
	Queued      []JobInfo `json:"queued"`
	Running     []JobInfo `json:"running"`
	MaxParallel int       `json:"max_parallel"`
}

// Event is broadcast to subscribers on every state transition, mirroring
// the teacher's job-event broadcast pattern, generalized from
// transcode-only events to the queued/running/complete/cancelled
// lifecycle this queue models. Completions and parallelism changes are
// broadcast with Type "progress", alongside per-job progress updates.
type Event struct {
	Type   string `json:"type"` // "started" | "queued" | "progress" | "cancelled"
	Status QueueStatus `json:"status"`
}
