// Package bitrate implements the Aggregator, StatisticsEngine and
// SamplingStrategy components: binning timestamped frame/packet sizes
// into fixed-width intervals, computing summary statistics including
// peak detection, and deciding between full and sampled analysis for
// very large files.
package bitrate

// FrameRecord is a transient (timestamp, size, frame_type) triple
// produced by a probe parser and consumed by the Aggregator. It never
// outlives the orchestrator call that created it.
type FrameRecord struct {
	TimestampSeconds float64
	SizeBytes        uint64
	FrameType        string // empty when unknown
}

// DataPoint is one aggregation-interval sample. Timestamp is the
// interval's left edge.
type DataPoint struct {
	TimestampSeconds float64 `json:"timestamp"`
	BitrateBPS       uint64  `json:"bitrate"`
	FrameType        string  `json:"frame_type,omitempty"`
}

// PeakInterval is a maximal contiguous run of intervals whose bitrate
// exceeds 1.5x average, retained only when strictly longer than 5s.
type PeakInterval struct {
	StartSeconds   float64 `json:"start_time"`
	EndSeconds     float64 `json:"end_time"`
	PeakBPS        uint64  `json:"peak_bitrate"`
	DurationSeconds float64 `json:"duration"`
}

// Statistics summarizes a DataPoint series.
type Statistics struct {
	MinBPS        uint64         `json:"min_bitrate"`
	MaxBPS        uint64         `json:"max_bitrate"`
	AvgBPS        uint64         `json:"avg_bitrate"`
	MedianBPS     uint64         `json:"median_bitrate"`
	StdDeviation  float64        `json:"std_deviation"`
	PeakIntervals []PeakInterval `json:"peak_intervals"`
	TotalFrames   int            `json:"total_frames"`
}

// StreamContribution is one stream's share of a combined analysis.
type StreamContribution struct {
	StreamIndex int         `json:"stream_index"`
	StreamType  string      `json:"stream_type"`
	Codec       string      `json:"codec"`
	Percentage  float64     `json:"percentage"`
	DataPoints  []DataPoint `json:"data_points"`
}

// StreamAnalysis is the result of analyze_stream for a single stream.
type StreamAnalysis struct {
	Path        string      `json:"path"`
	StreamIndex int         `json:"stream_index"`
	StreamType  string      `json:"stream_type"`
	Duration    float64     `json:"duration"`
	DataPoints  []DataPoint `json:"data_points"`
	Statistics  Statistics  `json:"statistics"`
}

// OverallAnalysis is the result of analyze_overall across every selected
// stream.
type OverallAnalysis struct {
	Path                string               `json:"path"`
	Duration            float64              `json:"duration"`
	DataPoints          []DataPoint          `json:"data_points"`
	Statistics          Statistics           `json:"statistics"`
	StreamContributions []StreamContribution `json:"stream_contributions"`
	FromCache           bool                 `json:"from_cache"`
	UsedSampling        bool                 `json:"used_sampling"`
}
