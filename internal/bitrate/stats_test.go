package bitrate_test

import (
	"testing"

	"github.com/gwlsn/bitrated/internal/bitrate"
)

func pts(vals ...uint64) []bitrate.DataPoint {
	points := make([]bitrate.DataPoint, len(vals))
	for i, v := range vals {
		points[i] = bitrate.DataPoint{TimestampSeconds: float64(i), BitrateBPS: v}
	}
	return points
}

func TestSummarizeEmpty(t *testing.T) {
	got := bitrate.Summarize(nil)
	if got.MinBPS != 0 || got.MaxBPS != 0 || got.AvgBPS != 0 {
		t.Errorf("expected all-zero stats for empty input, got %+v", got)
	}
	if len(got.PeakIntervals) != 0 {
		t.Errorf("expected no peaks for empty input")
	}
}

func TestSummarizeMinMedianMaxAvg(t *testing.T) {
	got := bitrate.Summarize(pts(10, 20, 30, 40))

	if got.MinBPS != 10 || got.MaxBPS != 40 {
		t.Errorf("expected min=10 max=40, got min=%d max=%d", got.MinBPS, got.MaxBPS)
	}
	if got.AvgBPS != 25 {
		t.Errorf("expected avg=25, got %d", got.AvgBPS)
	}
	if got.MedianBPS != 25 {
		t.Errorf("expected median=25 (avg of two middles), got %d", got.MedianBPS)
	}
}

func TestSummarizeOddLengthMedian(t *testing.T) {
	got := bitrate.Summarize(pts(10, 20, 30))
	if got.MedianBPS != 20 {
		t.Errorf("expected median=20, got %d", got.MedianBPS)
	}
}

func TestSummarizeIdenticalValuesZeroStdDev(t *testing.T) {
	got := bitrate.Summarize(pts(100, 100, 100, 100))
	if got.StdDeviation != 0 {
		t.Errorf("expected stddev=0 for identical values, got %f", got.StdDeviation)
	}
	if !(got.MinBPS <= got.MedianBPS && got.MedianBPS <= got.MaxBPS) {
		t.Errorf("violated min<=median<=max sanity property")
	}
}

func TestSummarizeSanityInvariant(t *testing.T) {
	got := bitrate.Summarize(pts(5, 50, 10, 200, 15))
	if !(got.MinBPS <= got.MedianBPS && got.MedianBPS <= got.MaxBPS) {
		t.Errorf("min<=median<=max violated: %+v", got)
	}
	if !(got.MinBPS <= got.AvgBPS && got.AvgBPS <= got.MaxBPS) {
		t.Errorf("min<=avg<=max violated: %+v", got)
	}
}

func TestSummarizeLongPeakDetected(t *testing.T) {
	// Ported from original_source's test_calculate_statistics_single_peak:
	// 10 points @1000bps, 6 points @5000bps, 4 points @1000bps.
	// avg = 44000/20 = 2200, threshold = 3300; the 5000bps run (t=10..15)
	// exceeds it for 6s and must be reported as [10,16).
	var points []bitrate.DataPoint
	for i := 0; i < 10; i++ {
		points = append(points, bitrate.DataPoint{TimestampSeconds: float64(i), BitrateBPS: 1000})
	}
	for i := 10; i < 16; i++ {
		points = append(points, bitrate.DataPoint{TimestampSeconds: float64(i), BitrateBPS: 5000})
	}
	for i := 16; i < 20; i++ {
		points = append(points, bitrate.DataPoint{TimestampSeconds: float64(i), BitrateBPS: 1000})
	}

	got := bitrate.Summarize(points)

	if got.AvgBPS != 2200 {
		t.Fatalf("expected avg=2200, got %d", got.AvgBPS)
	}
	if len(got.PeakIntervals) != 1 {
		t.Fatalf("expected exactly one peak, got %d: %+v", len(got.PeakIntervals), got.PeakIntervals)
	}
	peak := got.PeakIntervals[0]
	if peak.StartSeconds != 10 || peak.EndSeconds != 16 {
		t.Errorf("expected peak [10,16), got [%v,%v)", peak.StartSeconds, peak.EndSeconds)
	}
	if peak.PeakBPS != 5000 {
		t.Errorf("expected peak bitrate 5000, got %d", peak.PeakBPS)
	}
	if peak.DurationSeconds <= bitrate.PeakMinDurationSeconds {
		t.Errorf("peak duration must exceed %v, got %v", bitrate.PeakMinDurationSeconds, peak.DurationSeconds)
	}
}

func TestSummarizeShortPeakIgnored(t *testing.T) {
	// A spike lasting only 2 intervals (2s <= 5s threshold) must not be
	// reported, matching original_source's test_calculate_statistics_short_peak_ignored.
	points := []bitrate.DataPoint{
		{TimestampSeconds: 0, BitrateBPS: 10},
		{TimestampSeconds: 1, BitrateBPS: 100},
		{TimestampSeconds: 2, BitrateBPS: 100},
		{TimestampSeconds: 3, BitrateBPS: 10},
	}
	got := bitrate.Summarize(points)
	if len(got.PeakIntervals) != 0 {
		t.Errorf("expected short peak to be ignored, got %+v", got.PeakIntervals)
	}
}

func TestSummarizeOpenPeakAtEndNotRecorded(t *testing.T) {
	// 10 points @1000bps then 6 points @5000bps with no trailing low point:
	// avg=2500, threshold=3750, the 5000bps run (t=10..15) stays above
	// threshold through the final sample — the peak never closes and must
	// never be emitted, the documented, preserved quirk.
	var points []bitrate.DataPoint
	for i := 0; i < 10; i++ {
		points = append(points, bitrate.DataPoint{TimestampSeconds: float64(i), BitrateBPS: 1000})
	}
	for i := 10; i < 16; i++ {
		points = append(points, bitrate.DataPoint{TimestampSeconds: float64(i), BitrateBPS: 5000})
	}

	got := bitrate.Summarize(points)
	if len(got.PeakIntervals) != 0 {
		t.Errorf("expected open-ended peak to be dropped, got %+v", got.PeakIntervals)
	}
}

func TestSummarizePeakClosurePropertyAcrossSeries(t *testing.T) {
	points := pts(1, 1, 1, 100, 100, 100, 100, 100, 100, 1, 1)
	got := bitrate.Summarize(points)
	for _, p := range got.PeakIntervals {
		if p.EndSeconds <= p.StartSeconds {
			t.Errorf("peak end must exceed start: %+v", p)
		}
		if p.DurationSeconds <= bitrate.PeakMinDurationSeconds {
			t.Errorf("peak duration must exceed %v: %+v", bitrate.PeakMinDurationSeconds, p)
		}
	}
}
