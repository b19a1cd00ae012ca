package mediaprobe

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/gwlsn/bitrated/internal/bitrate"
)

// ParsePackets parses packet-mode CSV output
// (pts_time,dts_time,size,flags) into FrameRecords. Invalid lines are
// silently skipped; the letter 'K' in the flags field marks a keyframe,
// surfaced as FrameType "I".
func ParsePackets(stdout []byte) ([]bitrate.FrameRecord, error) {
	var records []bitrate.FrameRecord

	scanner := bufio.NewScanner(bytes.NewReader(stdout))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		parts := strings.Split(scanner.Text(), ",")
		if len(parts) < 3 {
			continue
		}

		ts, ok := parseFloat(parts[0])
		if !ok {
			ts, ok = parseFloat(parts[1])
			if !ok {
				continue
			}
		}

		size, err := strconv.ParseUint(parts[2], 10, 64)
		if err != nil {
			continue
		}

		frameType := ""
		if len(parts) > 3 && strings.Contains(parts[3], "K") {
			frameType = "I"
		}

		records = append(records, bitrate.FrameRecord{
			TimestampSeconds: ts,
			SizeBytes:        size,
			FrameType:        frameType,
		})
	}

	if len(records) == 0 {
		return nil, ErrEmptyOutput
	}
	return records, nil
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// frameJSON mirrors the subset of ffprobe's -show_frames JSON this parser
// reads; fields are strings because ffprobe's default JSON encoder emits
// numeric entries tool-version-dependently as quoted strings.
type frameJSON struct {
	Frames []struct {
		BestEffortTimestampTime string      `json:"best_effort_timestamp_time"`
		PktPtsTime              string      `json:"pkt_pts_time"`
		PtsTime                 string      `json:"pts_time"`
		PktDtsTime              string      `json:"pkt_dts_time"`
		PktSize                 json.Number `json:"pkt_size"`
		PictType                string      `json:"pict_type"`
	} `json:"frames"`
}

// ParseFrames parses frame-mode JSON output into FrameRecords, trying
// timestamp fields in order and falling back to an fps-estimated
// timestamp when none are present. Frames with zero/missing size are
// skipped. Fails with ErrEmptyOutput or ErrNoValidData.
func ParseFrames(stdout []byte) ([]bitrate.FrameRecord, error) {
	if len(bytes.TrimSpace(stdout)) == 0 {
		return nil, ErrEmptyOutput
	}

	var parsed frameJSON
	if err := json.Unmarshal(stdout, &parsed); err != nil {
		return nil, ErrParse
	}
	if len(parsed.Frames) == 0 {
		return nil, ErrEmptyOutput
	}

	records := make([]bitrate.FrameRecord, 0, len(parsed.Frames))
	skipped := 0

	for idx, f := range parsed.Frames {
		ts, hasTS := firstParsable(f.BestEffortTimestampTime, f.PktPtsTime, f.PtsTime, f.PktDtsTime)
		if !hasTS {
			ts = estimateTimestamp(records, idx)
		}

		size, ok := parseFrameSize(f.PktSize)
		if !ok || size == 0 {
			skipped++
			continue
		}

		records = append(records, bitrate.FrameRecord{
			TimestampSeconds: ts,
			SizeBytes:        size,
			FrameType:        f.PictType,
		})
	}

	if len(records) == 0 {
		return nil, ErrNoValidData
	}
	return records, nil
}

func firstParsable(candidates ...string) (float64, bool) {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if v, ok := parseFloat(c); ok {
			return v, true
		}
	}
	return 0, false
}

func parseFrameSize(n json.Number) (uint64, bool) {
	if n == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(n.String(), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// estimateTimestamp reproduces original_source's fallback: idx/fps_estimate,
// where fps_estimate is count_so_far/last_timestamp or defaults to 30.
func estimateTimestamp(soFar []bitrate.FrameRecord, idx int) float64 {
	fps := 30.0
	if len(soFar) > 0 {
		if lastTS := soFar[len(soFar)-1].TimestampSeconds; lastTS > 0 {
			fps = float64(len(soFar)) / lastTS
		}
	}
	return float64(idx) / fps
}

