// Package orchestrator implements the two bitrate-analysis workflows —
// single-stream and whole-file — staging progress reports, sampling
// decisions, and job-queue bookkeeping the way
// original_source/src-tauri/src/commands/bitrate.rs does, translated
// from Tauri's window-event/spawn_blocking model into plain Go
// callbacks and goroutines.
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/gwlsn/bitrated/internal/bitrate"
	"github.com/gwlsn/bitrated/internal/hashid"
	"github.com/gwlsn/bitrated/internal/jobqueue"
	"github.com/gwlsn/bitrated/internal/logger"
	"github.com/gwlsn/bitrated/internal/mediaprobe"
	"github.com/gwlsn/bitrated/internal/metrics"
	"github.com/gwlsn/bitrated/internal/probecache"
	"github.com/gwlsn/bitrated/internal/util"
)

// ErrCancelled is returned when a caller cancels an in-flight analysis
// via the job queue's cancel flag.
var ErrCancelled = errors.New("analysis cancelled")

// ErrAlreadyRunning is returned when a job is already queued or running
// for the requested path.
var ErrAlreadyRunning = errors.New("analysis already queued or in progress for this file")

// ErrStreamNotFound is returned when the requested stream index isn't
// present in the file's metadata.
var ErrStreamNotFound = errors.New("stream not found")

// maxConcurrentStreams bounds analyze_overall's per-stream fan-out,
// replacing the original's unbounded rayon par_iter with an errgroup
// limited to a sane worker count.
const maxConcurrentStreams = 4

// Orchestrator wires together the prober, probe cache, and job queue
// into the two analysis workflows.
type Orchestrator struct {
	prober *mediaprobe.Prober
	cache  *probecache.Cache
	queue  *jobqueue.Queue
}

// New returns an Orchestrator over the given components.
func New(prober *mediaprobe.Prober, cache *probecache.Cache, queue *jobqueue.Queue) *Orchestrator {
	return &Orchestrator{prober: prober, cache: cache, queue: queue}
}

// AnalyzeStream runs the single-stream workflow: probe metadata, probe
// frames/packets for one stream, aggregate into intervals, and compute
// statistics. Progress is reported through onProgress at the same
// stage boundaries the original implementation used (0/10/20/80/90/100%).
func (o *Orchestrator) AnalyzeStream(ctx context.Context, path string, streamIndex int, intervalSeconds float64, onProgress ProgressFunc) (result bitrate.StreamAnalysis, err error) {
	hash, err := hashid.Hash(path)
	if err != nil {
		return bitrate.StreamAnalysis{}, fmt.Errorf("hashing %s: %w", path, err)
	}

	enqueued, _ := o.queue.Enqueue(path, hash)
	if enqueued == jobqueue.AlreadyExists {
		return bitrate.StreamAnalysis{}, ErrAlreadyRunning
	}
	defer o.queue.Complete(path)

	metrics.JobsStartedTotal.WithLabelValues("stream").Inc()
	defer func() { recordJobOutcome("stream", err) }()

	isCancelled, _ := o.queue.GetCancelFlag(path)

	r := newReporter(o.withQueueProgress(path, onProgress))
	r.emit(0, 100, 0, "Getting stream info...", nil, nil, nil)

	if isCancelled != nil && isCancelled() {
		return bitrate.StreamAnalysis{}, ErrCancelled
	}

	metadata, err := o.cache.Get(ctx, path)
	if err != nil {
		return bitrate.StreamAnalysis{}, fmt.Errorf("probing metadata: %w", err)
	}

	var stream *mediaprobe.StreamDescriptor
	for i := range metadata.Streams {
		if metadata.Streams[i].Index == streamIndex {
			stream = &metadata.Streams[i]
			break
		}
	}
	if stream == nil {
		return bitrate.StreamAnalysis{}, ErrStreamNotFound
	}

	r.emit(10, 100, 10, "Reading file metadata...", nil, nil, nil)

	if isCancelled != nil && isCancelled() {
		return bitrate.StreamAnalysis{}, ErrCancelled
	}

	r.emit(20, 100, 20, "Analyzing frames...", nil, nil, nil)

	frames, err := o.prober.Auto(ctx, path, streamIndex, false)
	if err != nil {
		return bitrate.StreamAnalysis{}, fmt.Errorf("probing stream %d: %w", streamIndex, err)
	}
	logger.Info("frame parsing complete", "stream", streamIndex, "frames", len(frames))

	r.emit(80, 100, 80, "Aggregating bitrate data...", nil, nil, nil)
	dataPoints := bitrate.Aggregate(frames, intervalSeconds, metadata.DurationSeconds)

	r.emit(90, 100, 90, "Calculating statistics...", nil, nil, nil)
	stats := bitrate.Summarize(dataPoints)

	r.emit(100, 100, 100, fmt.Sprintf("Complete in %.1fs", r.elapsed()), nil, nil, nil)
	logger.Info("stream analysis complete", "stream", streamIndex,
		"avg_bitrate", util.FormatBitrate(stats.AvgBPS), "took", util.FormatSeconds(r.elapsed()))

	return bitrate.StreamAnalysis{
		Path:        path,
		StreamIndex: streamIndex,
		StreamType:  string(stream.Kind),
		Duration:    metadata.DurationSeconds,
		DataPoints:  dataPoints,
		Statistics:  stats,
	}, nil
}

// streamResult is one stream's contribution, computed independently so
// analyzeStreams can fan results back in without shared mutable state.
type streamResult struct {
	index  int
	kind   mediaprobe.StreamKind
	codec  string
	points []bitrate.DataPoint
}

// AnalyzeOverall runs the whole-file workflow: probes every video/audio
// stream (bounded concurrency via errgroup, replacing rayon's
// data-parallel iterator), combines their per-interval byte totals, and
// computes overall statistics plus each stream's percentage contribution.
func (o *Orchestrator) AnalyzeOverall(ctx context.Context, path string, intervalSeconds float64, onProgress ProgressFunc) (result bitrate.OverallAnalysis, err error) {
	hash, err := hashid.Hash(path)
	if err != nil {
		return bitrate.OverallAnalysis{}, fmt.Errorf("hashing %s: %w", path, err)
	}

	enqueued, _ := o.queue.Enqueue(path, hash)
	if enqueued == jobqueue.AlreadyExists {
		return bitrate.OverallAnalysis{}, ErrAlreadyRunning
	}
	defer o.queue.Complete(path)

	metrics.JobsStartedTotal.WithLabelValues("overall").Inc()
	defer func() { recordJobOutcome("overall", err) }()

	isCancelled, _ := o.queue.GetCancelFlag(path)

	r := newReporter(o.withQueueProgress(path, onProgress))
	r.emit(0, 100, 0, "Getting stream information...", nil, nil, nil)

	metadata, err := o.cache.Get(ctx, path)
	if err != nil {
		return bitrate.OverallAnalysis{}, fmt.Errorf("probing metadata: %w", err)
	}

	plan := bitrate.DecidePlan(metadata.DurationSeconds, metadata.FileSizeBytes)
	if plan.Sampled {
		logger.Info("large file detected, using sampling mode", "path", path, "size", util.FormatBytes(uint64(metadata.FileSizeBytes)))
		metrics.SamplingUsedTotal.Inc()
	}

	r.emit(5, 100, 5, "Reading file metadata...", nil, nil, nil)

	if isCancelled != nil && isCancelled() {
		return bitrate.OverallAnalysis{}, ErrCancelled
	}

	var analysisStreams []mediaprobe.StreamDescriptor
	for _, s := range metadata.Streams {
		if s.Kind == mediaprobe.StreamVideo || s.Kind == mediaprobe.StreamAudio {
			if s.IsCoverArt() {
				continue
			}
			analysisStreams = append(analysisStreams, s)
		}
	}
	sortStreamsAudioFirst(analysisStreams)
	totalStreams := len(analysisStreams)

	stageMsg := fmt.Sprintf("Analyzing %d streams in parallel...", totalStreams)
	if plan.Sampled {
		stageMsg = fmt.Sprintf("Sampling %d streams (%d x %.0fs intervals)...", totalStreams, bitrate.SampleCount, bitrate.SampleDurationSeconds)
	}
	r.emit(10, 100, 10, stageMsg, boolPtr(plan.Sampled), intPtr(totalStreams), nil)

	results, analyzed := o.analyzeStreams(ctx, path, analysisStreams, plan, metadata.DurationSeconds, intervalSeconds, isCancelled)

	if isCancelled != nil && isCancelled() {
		return bitrate.OverallAnalysis{}, ErrCancelled
	}

	r.emit(85, 100, 85, fmt.Sprintf("Stream analysis complete (%d/%d streams)", analyzed, totalStreams),
		boolPtr(plan.Sampled), intPtr(totalStreams), intPtr(totalStreams))

	if analyzed == 0 {
		return bitrate.OverallAnalysis{}, errors.New("failed to analyze any streams in the file")
	}

	numIntervals := 0
	for _, res := range results {
		if len(res.points) > numIntervals {
			numIntervals = len(res.points)
		}
	}

	r.emit(90, 100, 90, "Aggregating bitrate data...", nil, nil, nil)
	combined := make([]uint64, numIntervals)
	for _, res := range results {
		for i, p := range res.points {
			combined[i] += p.BitrateBPS
		}
	}
	dataPoints := make([]bitrate.DataPoint, numIntervals)
	for i, bps := range combined {
		dataPoints[i] = bitrate.DataPoint{TimestampSeconds: float64(i) * intervalSeconds, BitrateBPS: bps}
	}
	combinedTotal := sumUint64(combined)

	contributions := make([]bitrate.StreamContribution, 0, len(results))
	for _, res := range results {
		var streamTotal uint64
		for _, p := range res.points {
			streamTotal += p.BitrateBPS
		}
		pct := 0.0
		if combinedTotal > 0 {
			pct = float64(streamTotal) / float64(combinedTotal) * 100.0
		}
		contributions = append(contributions, bitrate.StreamContribution{
			StreamIndex: res.index,
			StreamType:  string(res.kind),
			Codec:       res.codec,
			Percentage:  pct,
			DataPoints:  res.points,
		})
	}

	r.emit(95, 100, 95, "Calculating statistics...", boolPtr(plan.Sampled), intPtr(totalStreams), intPtr(totalStreams))
	stats := bitrate.Summarize(dataPoints)

	r.emit(100, 100, 100, fmt.Sprintf("Complete in %.1fs", r.elapsed()), boolPtr(plan.Sampled), intPtr(totalStreams), intPtr(totalStreams))
	logger.Info("overall analysis complete", "path", path, "streams", totalStreams,
		"avg_bitrate", util.FormatBitrate(stats.AvgBPS), "sampled", plan.Sampled, "took", util.FormatSeconds(r.elapsed()))

	return bitrate.OverallAnalysis{
		Path:                path,
		Duration:            metadata.DurationSeconds,
		DataPoints:          dataPoints,
		Statistics:          stats,
		StreamContributions: contributions,
		FromCache:           false,
		UsedSampling:        plan.Sampled,
	}, nil
}

// analyzeStreams probes every stream with bounded concurrency, absorbing
// per-stream failures (logged, not fatal) unless every stream fails.
func (o *Orchestrator) analyzeStreams(ctx context.Context, path string, streams []mediaprobe.StreamDescriptor, plan bitrate.Plan, durationSeconds, intervalSeconds float64, isCancelled func() bool) ([]streamResult, int) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentStreams)

	results := make([]*streamResult, len(streams))

	for i, s := range streams {
		i, s := i, s
		g.Go(func() error {
			if isCancelled != nil && isCancelled() {
				return nil
			}

			frames, sampled, err := o.probeStream(gctx, path, s.Index, plan)
			if err != nil {
				logger.Warn("failed to analyze stream", "stream", s.Index, "codec", s.Codec, "err", err)
				return nil
			}
			if sampled {
				logger.Debug("stream analyzed using sampling", "stream", s.Index)
			}

			points := bitrate.Aggregate(frames, intervalSeconds, durationSeconds)
			results[i] = &streamResult{index: s.Index, kind: s.Kind, codec: s.Codec, points: points}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]streamResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, len(out)
}

// probeStream picks between full and sampled probing per the
// SamplingStrategy's decision, falling back to a full probe if every
// sample position fails.
func (o *Orchestrator) probeStream(ctx context.Context, path string, streamIndex int, plan bitrate.Plan) ([]bitrate.FrameRecord, bool, error) {
	if !plan.Sampled {
		frames, err := o.prober.Auto(ctx, path, streamIndex, false)
		return frames, false, err
	}

	var sampled []bitrate.FrameRecord
	for _, pos := range plan.Positions {
		frames, err := o.prober.Packets(ctx, path, streamIndex, bitrate.ReadInterval(pos))
		if err != nil {
			logger.Warn("sample probe failed", "stream", streamIndex, "position", pos, "err", err)
			continue
		}
		sampled = append(sampled, frames...)
	}
	if len(sampled) == 0 {
		logger.Warn("all samples failed, falling back to full analysis", "stream", streamIndex)
		frames, err := o.prober.Auto(ctx, path, streamIndex, false)
		return frames, false, err
	}
	return sampled, true, nil
}

// withQueueProgress wraps onProgress so every stage update also records
// the job's percentage on the queue entry, keeping GetQueueStatus and the
// job-queue-update SSE stream in sync with the per-request progress
// stream instead of only seeing enqueue/complete/cancel transitions.
func (o *Orchestrator) withQueueProgress(path string, onProgress ProgressFunc) ProgressFunc {
	return func(p Progress) {
		o.queue.UpdateProgress(path, p.Percentage)
		if onProgress != nil {
			onProgress(p)
		}
	}
}

func sumUint64(vs []uint64) uint64 {
	var total uint64
	for _, v := range vs {
		total += v
	}
	return total
}

// sortStreamsAudioFirst reorders streams in place, audio before video, so
// quick audio probes front-load progress before the slower video streams.
func sortStreamsAudioFirst(streams []mediaprobe.StreamDescriptor) {
	order := make([]bitrate.SortableStream, len(streams))
	for i, s := range streams {
		order[i] = bitrate.SortableStream{Index: i, Kind: sortKind(s.Kind)}
	}
	bitrate.SortStreamsAudioFirst(order)

	sorted := make([]mediaprobe.StreamDescriptor, len(streams))
	for i, o := range order {
		sorted[i] = streams[o.Index]
	}
	copy(streams, sorted)
}

func sortKind(k mediaprobe.StreamKind) bitrate.StreamKind {
	switch k {
	case mediaprobe.StreamAudio:
		return bitrate.StreamAudio
	case mediaprobe.StreamVideo:
		return bitrate.StreamVideo
	default:
		return bitrate.StreamOther
	}
}

// recordJobOutcome classifies a completed job's terminal error (if any)
// into the completed/cancelled/failed counters, by kind ("stream" or
// "overall").
func recordJobOutcome(kind string, err error) {
	switch {
	case err == nil:
		metrics.JobsCompletedTotal.WithLabelValues(kind).Inc()
	case errors.Is(err, ErrCancelled):
		metrics.JobsCancelledTotal.WithLabelValues(kind).Inc()
	default:
		metrics.JobsFailedTotal.WithLabelValues(kind, "error").Inc()
	}
}
