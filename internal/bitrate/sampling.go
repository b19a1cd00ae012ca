package bitrate

import (
	"math"
	"strconv"
)

// Sampling constants per spec.md §4.8/§6.
const (
	SamplingThresholdBytes = 5 * 1024 * 1024 * 1024
	SampleCount            = 10
	SampleDurationSeconds  = 30.0
)

// Plan is the outcome of the sampling decision tree: whether to sample at
// all, and if so, the read-interval start positions to probe.
type Plan struct {
	Sampled   bool
	Positions []float64 // seconds, only meaningful when Sampled
}

// DecidePlan implements the three-branch decision tree from spec.md §4.8:
// small files and short-but-dense files get a full probe; everything else
// is sampled at SampleCount positions evenly spaced across the duration.
func DecidePlan(durationSeconds float64, fileSizeBytes int64) Plan {
	if fileSizeBytes < SamplingThresholdBytes {
		return Plan{Sampled: false}
	}
	if durationSeconds <= SampleDurationSeconds*SampleCount {
		return Plan{Sampled: false}
	}

	interval := durationSeconds / SampleCount
	positions := make([]float64, SampleCount)
	for i := 0; i < SampleCount; i++ {
		positions[i] = float64(i) * interval
	}
	return Plan{Sampled: true, Positions: positions}
}

// ReadInterval formats a sample start position as the probe tool's
// read-interval argument: "<start>%+<duration>".
func ReadInterval(startSeconds float64) string {
	return strconv.FormatFloat(startSeconds, 'f', -1, 64) + "%+" +
		strconv.FormatFloat(SampleDurationSeconds, 'f', -1, 64)
}

// Extrapolate reproduces original_source's extrapolate_sampled_data:
// aggregates sampled frames into the usual buckets, then back-fills any
// bucket with no contributing frames using the overall average bitrate
// computed across all sampled bytes.
func Extrapolate(sampled []FrameRecord, sampledDurationSeconds, fullDurationSeconds, intervalSeconds float64) []DataPoint {
	if len(sampled) == 0 {
		return nil
	}

	var totalBytes uint64
	for _, f := range sampled {
		totalBytes += f.SizeBytes
	}
	var avgBPS uint64
	if sampledDurationSeconds > 0 {
		avgBPS = uint64(float64(totalBytes*8) / sampledDurationSeconds)
	}

	numIntervals := int(math.Ceil(fullDurationSeconds / intervalSeconds))
	if numIntervals <= 0 {
		return nil
	}
	totalSize := make([]uint64, numIntervals)
	count := make([]int, numIntervals)

	for _, f := range sampled {
		idx := int(math.Floor(f.TimestampSeconds / intervalSeconds))
		if idx < 0 || idx >= numIntervals {
			continue
		}
		totalSize[idx] += f.SizeBytes
		count[idx]++
	}

	points := make([]DataPoint, numIntervals)
	for i := 0; i < numIntervals; i++ {
		var bitrate uint64
		if count[i] > 0 {
			bitrate = uint64(float64(totalSize[i]*8) / intervalSeconds)
		} else {
			bitrate = avgBPS
		}
		points[i] = DataPoint{TimestampSeconds: float64(i) * intervalSeconds, BitrateBPS: bitrate}
	}
	return points
}

// StreamKind mirrors the stream types relevant to scheduling order.
type StreamKind int

const (
	StreamAudio StreamKind = iota
	StreamVideo
	StreamOther
)

// SortableStream is the minimal shape SortStreamsAudioFirst needs; callers
// adapt their own stream descriptor type to it.
type SortableStream struct {
	Index int
	Kind  StreamKind
}

// SortStreamsAudioFirst orders streams audio-first, then video, then
// everything else, stable within each kind by index — ported from
// original_source's sort_streams_audio_first (audio probes finish faster,
// so they front-load quick wins in the progress counter).
func SortStreamsAudioFirst(streams []SortableStream) {
	priority := func(k StreamKind) int {
		switch k {
		case StreamAudio:
			return 0
		case StreamVideo:
			return 1
		default:
			return 2
		}
	}
	// insertion sort: the stream lists this sorts are always small
	// (a handful of tracks), and stability matters more than asymptotics.
	for i := 1; i < len(streams); i++ {
		j := i
		for j > 0 {
			pa := priority(streams[j-1].Kind)
			pb := priority(streams[j].Kind)
			if pa < pb || (pa == pb && streams[j-1].Index <= streams[j].Index) {
				break
			}
			streams[j-1], streams[j] = streams[j], streams[j-1]
			j--
		}
	}
}
