package bitrate

import (
	"math"
	"sort"
)

// PeakThresholdMultiplier and PeakMinDurationSeconds are the constants behind
// peak-interval detection (spec.md §4.7).
const (
	PeakThresholdMultiplier = 1.5
	PeakMinDurationSeconds  = 5.0
)

// Summarize computes min/max/avg/median/stddev and peak intervals for a
// DataPoint series, reproducing original_source's calculate_statistics
// bucket-for-bucket — including its documented quirk: a peak still open
// at the end of the sequence is never recorded.
func Summarize(points []DataPoint) Statistics {
	if len(points) == 0 {
		return Statistics{PeakIntervals: []PeakInterval{}}
	}

	bitrates := make([]uint64, len(points))
	var sum uint64
	minBPS, maxBPS := points[0].BitrateBPS, points[0].BitrateBPS
	for i, p := range points {
		bitrates[i] = p.BitrateBPS
		sum += p.BitrateBPS
		if p.BitrateBPS < minBPS {
			minBPS = p.BitrateBPS
		}
		if p.BitrateBPS > maxBPS {
			maxBPS = p.BitrateBPS
		}
	}
	avg := sum / uint64(len(bitrates))

	sorted := append([]uint64(nil), bitrates...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	var median uint64
	n := len(sorted)
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	} else {
		median = sorted[n/2]
	}

	var sqDiffSum float64
	for _, b := range bitrates {
		diff := float64(b) - float64(avg)
		sqDiffSum += diff * diff
	}
	variance := sqDiffSum / float64(len(bitrates))
	stddev := math.Sqrt(variance)

	peakThreshold := uint64(float64(avg) * PeakThresholdMultiplier)
	peaks := make([]PeakInterval, 0)
	inPeak := false
	var peakStart float64
	var peakMax uint64

	for _, p := range points {
		if p.BitrateBPS > peakThreshold {
			if !inPeak {
				inPeak = true
				peakStart = p.TimestampSeconds
				peakMax = p.BitrateBPS
			} else if p.BitrateBPS > peakMax {
				peakMax = p.BitrateBPS
			}
		} else if inPeak {
			duration := p.TimestampSeconds - peakStart
			if duration > PeakMinDurationSeconds {
				peaks = append(peaks, PeakInterval{
					StartSeconds:    peakStart,
					EndSeconds:      p.TimestampSeconds,
					PeakBPS:         peakMax,
					DurationSeconds: duration,
				})
			}
			inPeak = false
		}
	}
	// A peak still open when the loop ends is intentionally dropped —
	// matches original_source's behavior and its own unit tests.

	return Statistics{
		MinBPS:        minBPS,
		MaxBPS:        maxBPS,
		AvgBPS:        avg,
		MedianBPS:     median,
		StdDeviation:  stddev,
		PeakIntervals: peaks,
		TotalFrames:   len(points),
	}
}
