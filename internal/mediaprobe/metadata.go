package mediaprobe

import (
	"encoding/json"
	"strconv"
)

// StreamKind enumerates the stream categories spec.md's StreamDescriptor
// distinguishes.
type StreamKind string

const (
	StreamVideo      StreamKind = "video"
	StreamAudio      StreamKind = "audio"
	StreamSubtitle   StreamKind = "subtitle"
	StreamAttachment StreamKind = "attachment"
	StreamData       StreamKind = "data"
	StreamUnknown    StreamKind = "unknown"
)

// Disposition mirrors ffprobe's per-stream disposition flags relevant to
// stream selection.
type Disposition struct {
	Default        bool
	Forced         bool
	HearingImpaired bool
	Commentary     bool
	AttachedPic    bool
}

// StreamDescriptor is one entry of a probed container's stream list.
type StreamDescriptor struct {
	Index       int
	Kind        StreamKind
	Codec       string
	Language    string
	Title       string
	Disposition Disposition

	// Video-specific
	Width       int
	Height      int
	FrameRate   float64

	// Audio-specific
	SampleRate int
	Channels   int

	NbFrames int
}

// imageCodecs is the set of still-image codecs used by the cover-art
// predicate below.
var imageCodecs = map[string]bool{
	"mjpeg": true, "png": true, "bmp": true, "gif": true, "webp": true, "jpeg": true,
}

// IsCoverArt reports whether a video stream is actually embedded cover
// art rather than a playable video track: either it's flagged
// attached_pic, or it uses an image codec and carries at most one frame.
func (s StreamDescriptor) IsCoverArt() bool {
	if s.Kind != StreamVideo {
		return false
	}
	if s.Disposition.AttachedPic {
		return true
	}
	return imageCodecs[s.Codec] && s.NbFrames <= 1
}

// Metadata is the parsed result of a metadata probe: container-level
// format info plus the stream list.
type Metadata struct {
	DurationSeconds float64
	FileSizeBytes   int64
	BitrateBPS      uint64
	Streams         []StreamDescriptor
}

type probeFormatJSON struct {
	Format struct {
		Duration string `json:"duration"`
		Size     string `json:"size"`
		BitRate  string `json:"bit_rate"`
	} `json:"format"`
	Streams []probeStreamJSON `json:"streams"`
}

type probeStreamJSON struct {
	Index         int    `json:"index"`
	CodecType     string `json:"codec_type"`
	CodecName     string `json:"codec_name"`
	Tags          map[string]string `json:"tags"`
	Disposition   map[string]int    `json:"disposition"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	RFrameRate    string `json:"r_frame_rate"`
	SampleRateStr string `json:"sample_rate"`
	Channels      int    `json:"channels"`
	NbFramesStr   string `json:"nb_frames"`
}

// ParseMetadata parses the metadata-probe JSON into a Metadata value.
func ParseMetadata(stdout []byte) (Metadata, error) {
	var raw probeFormatJSON
	if err := json.Unmarshal(stdout, &raw); err != nil {
		return Metadata{}, ErrParse
	}

	meta := Metadata{
		DurationSeconds: parseFloatOr(raw.Format.Duration, 0),
		FileSizeBytes:   parseIntOr(raw.Format.Size, 0),
		BitrateBPS:      uint64(parseIntOr(raw.Format.BitRate, 0)),
	}

	for _, s := range raw.Streams {
		meta.Streams = append(meta.Streams, streamFromJSON(s))
	}
	return meta, nil
}

func streamFromJSON(s probeStreamJSON) StreamDescriptor {
	d := StreamDescriptor{
		Index:      s.Index,
		Kind:       streamKind(s.CodecType),
		Codec:      s.CodecName,
		Width:      s.Width,
		Height:     s.Height,
		FrameRate:  parseFrameRate(s.RFrameRate),
		SampleRate: int(parseIntOr(s.SampleRateStr, 0)),
		Channels:   s.Channels,
		NbFrames:   int(parseIntOr(s.NbFramesStr, 0)),
	}
	if s.Tags != nil {
		d.Language = s.Tags["language"]
		d.Title = s.Tags["title"]
	}
	if s.Disposition != nil {
		d.Disposition = Disposition{
			Default:         s.Disposition["default"] == 1,
			Forced:          s.Disposition["forced"] == 1,
			HearingImpaired: s.Disposition["hearing_impaired"] == 1,
			Commentary:      s.Disposition["comment"] == 1,
			AttachedPic:     s.Disposition["attached_pic"] == 1,
		}
	}
	return d
}

func streamKind(codecType string) StreamKind {
	switch codecType {
	case "video":
		return StreamVideo
	case "audio":
		return StreamAudio
	case "subtitle":
		return StreamSubtitle
	case "attachment":
		return StreamAttachment
	case "data":
		return StreamData
	default:
		return StreamUnknown
	}
}

// parseFrameRate parses an "N/D" fraction string (ffprobe's r_frame_rate
// shape), returning 0 on any malformed input.
func parseFrameRate(s string) float64 {
	if s == "" {
		return 0
	}
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			num, err1 := strconv.ParseFloat(s[:i], 64)
			den, err2 := strconv.ParseFloat(s[i+1:], 64)
			if err1 != nil || err2 != nil || den == 0 {
				return 0
			}
			return num / den
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseFloatOr(s string, fallback float64) float64 {
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return v
}

func parseIntOr(s string, fallback int64) int64 {
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fallback
	}
	return v
}
