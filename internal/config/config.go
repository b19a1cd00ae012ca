package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds daemon-wide settings for the bitrate analysis engine.
type Config struct {
	// ListenAddr is the HTTP listen address, e.g. ":8090"
	ListenAddr string `yaml:"listen_addr"`

	// ProbePath is the path to the probing binary (default: "ffprobe")
	ProbePath string `yaml:"probe_path"`

	// MuxPath is the path to the remux binary used for stream removal
	// (default: "ffmpeg")
	MuxPath string `yaml:"mux_path"`

	// MaxParallelJobs bounds how many analysis jobs run concurrently (1-8)
	MaxParallelJobs int `yaml:"max_parallel_jobs"`

	// DefaultIntervalSeconds is the default aggregation bucket width. The
	// daemon does not read it: the API handlers default interval_seconds
	// to 1.0 themselves.
	DefaultIntervalSeconds float64 `yaml:"default_interval_seconds"`

	// SamplingThresholdBytes is the file size at which sampling replaces
	// full analysis. The daemon does not read it: the analysis path uses
	// the bitrate.SamplingThresholdBytes constant.
	SamplingThresholdBytes int64 `yaml:"sampling_threshold_bytes"`

	// SampleCount is how many sample windows are read for a sampled file.
	// The daemon does not read it: the bitrate.SampleCount constant applies.
	SampleCount int `yaml:"sample_count"`

	// SampleDurationSeconds is the length of each sample window. The daemon
	// does not read it: the bitrate.SampleDurationSeconds constant applies.
	SampleDurationSeconds float64 `yaml:"sample_duration_seconds"`

	// PacketProbeTimeoutSeconds bounds the fast packet-mode probe
	PacketProbeTimeoutSeconds int `yaml:"packet_probe_timeout_seconds"`

	// FrameProbeTimeoutSeconds bounds the slower frame-mode probe
	FrameProbeTimeoutSeconds int `yaml:"frame_probe_timeout_seconds"`

	// ProbeCacheTTLSeconds controls how long a cached probe stays valid
	// regardless of mtime
	ProbeCacheTTLSeconds int `yaml:"probe_cache_ttl_seconds"`

	// LogLevel controls logging verbosity: debug, info, warn, error
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:                ":8090",
		ProbePath:                 "ffprobe",
		MuxPath:                   "ffmpeg",
		MaxParallelJobs:           4,
		DefaultIntervalSeconds:    1.0,
		SamplingThresholdBytes:    5 * 1024 * 1024 * 1024,
		SampleCount:               10,
		SampleDurationSeconds:     30.0,
		PacketProbeTimeoutSeconds: 180,
		FrameProbeTimeoutSeconds:  300,
		ProbeCacheTTLSeconds:      300,
		LogLevel:                  "info",
	}
}

// Load reads config from a YAML file, applying defaults for missing values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if saveErr := cfg.Save(path); saveErr != nil {
				fmt.Printf("Warning: Could not create config file: %v\n", saveErr)
			}
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults fills in zero-valued fields after an unmarshal, matching
// the teacher's "Load normalizes, Save doesn't" convention.
func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8090"
	}
	if c.ProbePath == "" {
		c.ProbePath = "ffprobe"
	}
	if c.MuxPath == "" {
		c.MuxPath = "ffmpeg"
	}
	if c.MaxParallelJobs < 1 {
		c.MaxParallelJobs = 1
	}
	if c.MaxParallelJobs > 8 {
		c.MaxParallelJobs = 8
	}
	if c.DefaultIntervalSeconds <= 0 {
		c.DefaultIntervalSeconds = 1.0
	}
	if c.SamplingThresholdBytes <= 0 {
		c.SamplingThresholdBytes = 5 * 1024 * 1024 * 1024
	}
	if c.SampleCount <= 0 {
		c.SampleCount = 10
	}
	if c.SampleDurationSeconds <= 0 {
		c.SampleDurationSeconds = 30.0
	}
	if c.PacketProbeTimeoutSeconds <= 0 {
		c.PacketProbeTimeoutSeconds = 180
	}
	if c.FrameProbeTimeoutSeconds <= 0 {
		c.FrameProbeTimeoutSeconds = 300
	}
	if c.ProbeCacheTTLSeconds <= 0 {
		c.ProbeCacheTTLSeconds = 300
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Save writes the config to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
