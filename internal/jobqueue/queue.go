// Package jobqueue bounds how many bitrate analyses run at once: a FIFO
// of waiting jobs plus a by-path map of running jobs, gated by an
// adjustable parallelism limit.
package jobqueue

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gwlsn/bitrated/internal/logger"
	"github.com/gwlsn/bitrated/internal/metrics"
)

// Queue is the in-memory job queue. Jobs are keyed by file path for
// running lookups and by file-content hash for their public ID — two
// Enqueue calls for the same unmodified file therefore resolve to the
// same job ID.
type Queue struct {
	mu      sync.Mutex
	queued  []*Job
	running map[string]*Job // path -> job

	maxParallel atomic.Int64

	subsMu      sync.RWMutex
	subscribers map[chan Event]struct{}
}

// New returns a Queue with the given initial parallelism, clamped to
// [MinParallel, MaxParallel].
func New(maxParallel int) *Queue {
	q := &Queue{
		running:     make(map[string]*Job),
		subscribers: make(map[chan Event]struct{}),
	}
	q.maxParallel.Store(int64(ClampParallel(maxParallel)))
	return q
}

// runningCount counts non-cancelled running jobs. Caller must hold mu.
func (q *Queue) runningCount() int {
	n := 0
	for _, j := range q.running {
		if !j.isCancelled() {
			n++
		}
	}
	return n
}

// findQueued returns the queued job for path, or nil. Caller must hold mu.
func (q *Queue) findQueued(path string) *Job {
	for _, j := range q.queued {
		if j.Path == path {
			return j
		}
	}
	return nil
}

// Enqueue submits path (identified by its content hash) for analysis. If
// a job already exists for this path — queued or running — it's
// returned as AlreadyExists rather than duplicated. Otherwise the job
// starts immediately if a slot is free, or joins the FIFO.
func (q *Queue) Enqueue(path, hash string) (EnqueueResult, string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if existing, ok := q.running[path]; ok {
		return AlreadyExists, existing.ID
	}
	if existing := q.findQueued(path); existing != nil {
		return AlreadyExists, existing.ID
	}

	job := newJob(path, hash)
	max := int(q.maxParallel.Load())

	if q.runningCount() < max {
		job.StartedAt = time.Now()
		q.running[path] = job
		logger.Info("started analysis job", "id", job.ID, "path", path)
		q.broadcastLocked("started")
		return Started, job.ID
	}

	q.queued = append(q.queued, job)
	logger.Info("queued analysis job", "id", job.ID, "path", path, "position", len(q.queued))
	q.broadcastLocked("queued")
	return Queued, job.ID
}

// TryStartNext promotes queued jobs into running slots while capacity
// allows. Called after completion, cancellation, or a parallelism change.
func (q *Queue) TryStartNext() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tryStartNextLocked()
}

func (q *Queue) tryStartNextLocked() {
	max := int(q.maxParallel.Load())
	for q.runningCount() < max && len(q.queued) > 0 {
		job := q.queued[0]
		q.queued = q.queued[1:]
		job.StartedAt = time.Now()
		q.running[job.Path] = job
		logger.Info("started queued job", "id", job.ID, "path", job.Path)
	}
	q.broadcastLocked("progress")
}

// Complete removes path's running job and promotes the next queued job.
func (q *Queue) Complete(path string) {
	q.mu.Lock()
	job, ok := q.running[path]
	if ok {
		delete(q.running, path)
		logger.Info("completed analysis job", "id", job.ID, "path", path,
			"took", time.Since(job.StartedAt).Round(time.Millisecond))
	}
	q.tryStartNextLocked()
	q.mu.Unlock()
}

// Cancel marks the job for path cancelled, wherever it sits in the
// queue, and reports whether one was found.
func (q *Queue) Cancel(path string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if job, ok := q.running[path]; ok {
		job.cancel.Store(true)
		logger.Info("cancelled running job", "id", job.ID, "path", path)
		q.broadcastLocked("cancelled")
		return true
	}

	for i, job := range q.queued {
		if job.Path == path {
			job.cancel.Store(true)
			q.queued = append(q.queued[:i], q.queued[i+1:]...)
			logger.Info("cancelled queued job", "id", job.ID, "path", path)
			q.broadcastLocked("cancelled")
			return true
		}
	}
	return false
}

// CancelAll cancels every running and queued job.
func (q *Queue) CancelAll() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, j := range q.running {
		j.cancel.Store(true)
	}
	n := len(q.queued)
	for _, j := range q.queued {
		j.cancel.Store(true)
	}
	q.queued = nil
	logger.Info("cancelled all jobs", "running", len(q.running), "queued", n)
	q.broadcastLocked("cancelled")
}

// SetMaxParallel adjusts the parallelism limit (clamped) and promotes
// queued jobs if the limit increased.
func (q *Queue) SetMaxParallel(n int) {
	clamped := ClampParallel(n)
	q.maxParallel.Store(int64(clamped))
	logger.Info("set max parallel jobs", "value", clamped)
	q.TryStartNext()
}

// UpdateProgress records progress (0-100) for a running job. A no-op if
// no running job exists for path.
func (q *Queue) UpdateProgress(path string, progress float64) {
	q.mu.Lock()
	job, ok := q.running[path]
	if !ok {
		q.mu.Unlock()
		return
	}
	job.setProgress(progress)
	status := q.snapshotLocked()
	q.mu.Unlock()

	q.subsMu.RLock()
	defer q.subsMu.RUnlock()
	for ch := range q.subscribers {
		select {
		case ch <- Event{Type: "progress", Status: status}:
		default:
		}
	}
}

// GetCancelFlag returns a function that reports whether path's job has
// been cancelled, for long-running work to poll.
func (q *Queue) GetCancelFlag(path string) (func() bool, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if job, ok := q.running[path]; ok {
		return job.isCancelled, true
	}
	if job := q.findQueued(path); job != nil {
		return job.isCancelled, true
	}
	return nil, false
}

// GetQueueStatus returns a point-in-time snapshot of queued and running
// jobs.
func (q *Queue) GetQueueStatus() QueueStatus {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.snapshotLocked()
}

func (q *Queue) snapshotLocked() QueueStatus {
	status := QueueStatus{MaxParallel: int(q.maxParallel.Load())}

	for _, j := range q.queued {
		status.Queued = append(status.Queued, JobInfo{
			ID:            j.ID,
			Path:          j.Path,
			State:         "queued",
			QueuedSeconds: time.Since(j.QueuedAt).Seconds(),
		})
	}
	for _, j := range q.running {
		if j.isCancelled() {
			continue
		}
		status.Running = append(status.Running, JobInfo{
			ID:             j.ID,
			Path:           j.Path,
			State:          "running",
			QueuedSeconds:  j.StartedAt.Sub(j.QueuedAt).Seconds(),
			RunningSeconds: time.Since(j.StartedAt).Seconds(),
			Progress:       j.getProgress(),
		})
	}
	return status
}

// Subscribe returns a channel of queue events (job-queue-update SSE
// stream source). Callers must Unsubscribe when done.
func (q *Queue) Subscribe() chan Event {
	ch := make(chan Event, 32)
	q.subsMu.Lock()
	q.subscribers[ch] = struct{}{}
	q.subsMu.Unlock()
	return ch
}

// Unsubscribe removes and closes a subscription channel.
func (q *Queue) Unsubscribe(ch chan Event) {
	q.subsMu.Lock()
	delete(q.subscribers, ch)
	q.subsMu.Unlock()
	close(ch)
}

// broadcastLocked sends a snapshot event to all subscribers. Caller must
// hold mu; it takes subsMu internally.
func (q *Queue) broadcastLocked(eventType string) {
	status := q.snapshotLocked()
	metrics.QueueDepth.WithLabelValues("running").Set(float64(len(status.Running)))
	metrics.QueueDepth.WithLabelValues("queued").Set(float64(len(status.Queued)))

	q.subsMu.RLock()
	defer q.subsMu.RUnlock()
	for ch := range q.subscribers {
		select {
		case ch <- Event{Type: eventType, Status: status}:
		default:
		}
	}
}
