package bitrate

import "math"

// Aggregate bins frames into fixed-width time intervals, producing a
// DataPoint series. n = ceil(durationSeconds / intervalSeconds) buckets;
// a frame lands in bucket floor(ts / intervalSeconds) and is discarded if
// that bucket index is >= n. Bucket i yields
// (i*intervalSeconds, bucketBytes*8/intervalSeconds, firstFrameTypeSeen).
//
// Empty input or non-positive duration yields an empty result.
//
// Ported from original_source's aggregate_bitrate_intervals, preserving
// its bucket arithmetic exactly.
func Aggregate(frames []FrameRecord, intervalSeconds, durationSeconds float64) []DataPoint {
	if len(frames) == 0 || durationSeconds <= 0 || intervalSeconds <= 0 {
		return nil
	}

	numIntervals := int(math.Ceil(durationSeconds / intervalSeconds))
	if numIntervals <= 0 {
		return nil
	}

	totalSize := make([]uint64, numIntervals)
	frameType := make([]string, numIntervals)

	for _, f := range frames {
		idx := int(math.Floor(f.TimestampSeconds / intervalSeconds))
		if idx < 0 || idx >= numIntervals {
			continue
		}
		totalSize[idx] += f.SizeBytes
		if frameType[idx] == "" {
			frameType[idx] = f.FrameType
		}
	}

	points := make([]DataPoint, numIntervals)
	for i := 0; i < numIntervals; i++ {
		bitrate := uint64(float64(totalSize[i]*8) / intervalSeconds)
		points[i] = DataPoint{
			TimestampSeconds: float64(i) * intervalSeconds,
			BitrateBPS:       bitrate,
			FrameType:        frameType[i],
		}
	}

	return points
}
