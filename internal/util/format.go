// Package util holds small formatting helpers shared across the API and
// logging call sites.
package util

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatBytes renders a byte count as a human-readable size, e.g. "4.2 GB".
func FormatBytes(n uint64) string {
	return humanize.Bytes(n)
}

// FormatBitrate renders a bits-per-second value, e.g. "12 Mbps".
func FormatBitrate(bitsPerSecond uint64) string {
	return humanize.SI(float64(bitsPerSecond), "bps")
}

// FormatDuration renders a duration the way progress/ETA fields are shown
// to API callers, e.g. "1m32s". Durations under one second render as
// "0s"; longer ones are rounded to the nearest second.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return "0s"
	}
	return d.Round(time.Second).String()
}

// FormatSeconds renders a float seconds value (as used throughout the
// bitrate data model) using the same rounding as FormatDuration.
func FormatSeconds(seconds float64) string {
	return FormatDuration(time.Duration(seconds * float64(time.Second)))
}

// FormatETA renders an optional ETA in seconds, or "" when none is known.
func FormatETA(etaSeconds *float64) string {
	if etaSeconds == nil {
		return ""
	}
	return fmt.Sprintf("%s remaining", FormatSeconds(*etaSeconds))
}
