package util_test

import (
	"testing"
	"time"

	"github.com/gwlsn/bitrated/internal/util"
)

func TestFormatBytes(t *testing.T) {
	got := util.FormatBytes(1024 * 1024)
	if got == "" {
		t.Fatal("expected non-empty formatted size")
	}
}

func TestFormatDurationSubSecond(t *testing.T) {
	if got := util.FormatDuration(200 * time.Millisecond); got != "0s" {
		t.Errorf("expected 0s for sub-second duration, got %q", got)
	}
}

func TestFormatETANil(t *testing.T) {
	if got := util.FormatETA(nil); got != "" {
		t.Errorf("expected empty string for nil ETA, got %q", got)
	}
}

func TestFormatETAValue(t *testing.T) {
	eta := 90.0
	got := util.FormatETA(&eta)
	if got == "" {
		t.Error("expected non-empty ETA string")
	}
}
