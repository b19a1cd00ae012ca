package mediaprobe_test

import (
	"errors"
	"testing"

	"github.com/gwlsn/bitrated/internal/mediaprobe"
)

func TestParsePacketsBasic(t *testing.T) {
	csv := "0.000000,0.000000,1000,K_\n0.500000,0.500000,500,_\ninvalid-line\n1.000000,1.000000,800,K_\n"
	records, err := mediaprobe.ParsePackets([]byte(csv))
	if err != nil {
		t.Fatalf("ParsePackets: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 valid records, got %d", len(records))
	}
	if records[0].FrameType != "I" {
		t.Errorf("expected keyframe marker I, got %q", records[0].FrameType)
	}
	if records[1].FrameType != "" {
		t.Errorf("expected no frame type for non-keyframe, got %q", records[1].FrameType)
	}
}

func TestParsePacketsFallsBackToDtsTime(t *testing.T) {
	csv := ",1.234567,900,K\n"
	records, err := mediaprobe.ParsePackets([]byte(csv))
	if err != nil {
		t.Fatalf("ParsePackets: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].TimestampSeconds != 1.234567 {
		t.Errorf("expected dts_time fallback, got %v", records[0].TimestampSeconds)
	}
}

func TestParsePacketsEmptyIsError(t *testing.T) {
	_, err := mediaprobe.ParsePackets([]byte(""))
	if !errors.Is(err, mediaprobe.ErrEmptyOutput) {
		t.Errorf("expected ErrEmptyOutput, got %v", err)
	}
}

func TestParseFramesBasic(t *testing.T) {
	jsonOut := `{"frames":[
		{"best_effort_timestamp_time":"0.500000","pkt_size":"1024","pict_type":"I"},
		{"best_effort_timestamp_time":"1.000000","pkt_size":"512","pict_type":"P"}
	]}`
	records, err := mediaprobe.ParseFrames([]byte(jsonOut))
	if err != nil {
		t.Fatalf("ParseFrames: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].FrameType != "I" {
		t.Errorf("expected pict_type I, got %q", records[0].FrameType)
	}
}

func TestParseFramesFallbackTimestampFields(t *testing.T) {
	jsonOut := `{"frames":[{"pkt_dts_time":"2.5","pkt_size":"200"}]}`
	records, err := mediaprobe.ParseFrames([]byte(jsonOut))
	if err != nil {
		t.Fatalf("ParseFrames: %v", err)
	}
	if records[0].TimestampSeconds != 2.5 {
		t.Errorf("expected fallback to pkt_dts_time, got %v", records[0].TimestampSeconds)
	}
}

func TestParseFramesSkipsZeroSize(t *testing.T) {
	jsonOut := `{"frames":[
		{"best_effort_timestamp_time":"0.0","pkt_size":"0"},
		{"best_effort_timestamp_time":"1.0","pkt_size":"100"}
	]}`
	records, err := mediaprobe.ParseFrames([]byte(jsonOut))
	if err != nil {
		t.Fatalf("ParseFrames: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected zero-size frame skipped, got %d records", len(records))
	}
}

func TestParseFramesEmptyOutput(t *testing.T) {
	_, err := mediaprobe.ParseFrames([]byte(""))
	if !errors.Is(err, mediaprobe.ErrEmptyOutput) {
		t.Errorf("expected ErrEmptyOutput, got %v", err)
	}
}

func TestParseFramesNoValidFrames(t *testing.T) {
	jsonOut := `{"frames":[{"best_effort_timestamp_time":"0.0","pkt_size":"0"}]}`
	_, err := mediaprobe.ParseFrames([]byte(jsonOut))
	if !errors.Is(err, mediaprobe.ErrNoValidData) {
		t.Errorf("expected ErrNoValidData, got %v", err)
	}
}

func TestParseFramesMissingTimestampEstimatesFromFPS(t *testing.T) {
	jsonOut := `{"frames":[
		{"best_effort_timestamp_time":"0.0","pkt_size":"100"},
		{"best_effort_timestamp_time":"1.0","pkt_size":"100"},
		{"pkt_size":"100"}
	]}`
	records, err := mediaprobe.ParseFrames([]byte(jsonOut))
	if err != nil {
		t.Fatalf("ParseFrames: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[2].TimestampSeconds <= records[1].TimestampSeconds {
		t.Errorf("expected estimated timestamp to advance past last seen, got %v", records[2].TimestampSeconds)
	}
}
