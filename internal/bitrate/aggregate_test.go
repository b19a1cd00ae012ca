package bitrate_test

import (
	"testing"

	"github.com/gwlsn/bitrated/internal/bitrate"
)

func TestAggregateEmptyFrames(t *testing.T) {
	got := bitrate.Aggregate(nil, 1.0, 10.0)
	if len(got) != 0 {
		t.Errorf("expected empty result, got %d points", len(got))
	}
}

func TestAggregateSingleFrame(t *testing.T) {
	frames := []bitrate.FrameRecord{{TimestampSeconds: 0.5, SizeBytes: 1000, FrameType: "I"}}
	got := bitrate.Aggregate(frames, 1.0, 2.0)

	if len(got) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(got))
	}
	if got[0].BitrateBPS != 8000 {
		t.Errorf("expected bucket 0 bitrate 8000, got %d", got[0].BitrateBPS)
	}
	if got[0].FrameType != "I" {
		t.Errorf("expected frame type I, got %q", got[0].FrameType)
	}
	if got[1].BitrateBPS != 0 {
		t.Errorf("expected bucket 1 bitrate 0, got %d", got[1].BitrateBPS)
	}
}

func TestAggregateThreeFramesMultipleBuckets(t *testing.T) {
	// Ported from spec.md's concrete scenario: three frames across three
	// one-second buckets yielding [8000, 16000, 12000].
	frames := []bitrate.FrameRecord{
		{TimestampSeconds: 0.1, SizeBytes: 1000},
		{TimestampSeconds: 1.1, SizeBytes: 2000},
		{TimestampSeconds: 2.1, SizeBytes: 1500},
	}
	got := bitrate.Aggregate(frames, 1.0, 3.0)

	want := []uint64{8000, 16000, 12000}
	if len(got) != len(want) {
		t.Fatalf("expected %d buckets, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].BitrateBPS != w {
			t.Errorf("bucket %d: expected %d, got %d", i, w, got[i].BitrateBPS)
		}
	}
}

func TestAggregateDiscardsOutOfRangeFrames(t *testing.T) {
	frames := []bitrate.FrameRecord{
		{TimestampSeconds: 0.5, SizeBytes: 1000},
		{TimestampSeconds: 50.0, SizeBytes: 99999}, // beyond duration, must be discarded
	}
	got := bitrate.Aggregate(frames, 1.0, 2.0)
	if len(got) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(got))
	}

	var totalBits uint64
	for _, p := range got {
		totalBits += p.BitrateBPS * 1 // interval is 1s
	}
	if totalBits != 8000 {
		t.Errorf("expected only the in-range frame's bits counted, got %d", totalBits)
	}
}

func TestAggregateConservationProperty(t *testing.T) {
	frames := []bitrate.FrameRecord{
		{TimestampSeconds: 0.1, SizeBytes: 100},
		{TimestampSeconds: 0.5, SizeBytes: 200},
		{TimestampSeconds: 1.9, SizeBytes: 300},
	}
	const interval = 1.0
	got := bitrate.Aggregate(frames, interval, 2.0)

	var bucketBits uint64
	for _, p := range got {
		bucketBits += p.BitrateBPS * uint64(interval)
	}

	var frameBits uint64
	for _, f := range frames {
		frameBits += f.SizeBytes * 8
	}

	if bucketBits != frameBits {
		t.Errorf("conservation violated: buckets sum to %d bits, frames sum to %d bits", bucketBits, frameBits)
	}
}

func TestAggregateZeroDuration(t *testing.T) {
	frames := []bitrate.FrameRecord{{TimestampSeconds: 0, SizeBytes: 100}}
	got := bitrate.Aggregate(frames, 1.0, 0)
	if len(got) != 0 {
		t.Errorf("expected empty result for zero duration, got %d points", len(got))
	}
}
