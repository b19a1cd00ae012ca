package mediaprobe

import (
	"context"
	"fmt"
	"time"

	"github.com/gwlsn/bitrated/internal/bitrate"
	"github.com/gwlsn/bitrated/internal/logger"
	"github.com/gwlsn/bitrated/internal/metrics"
)

// Prober combines an Invoker with the argv-building and parser-selection
// logic for the three probe modes spec.md §4.4/§6 requires.
type Prober struct {
	invoker       *Invoker
	packetTimeout time.Duration
	frameTimeout  time.Duration
}

// NewProber wraps an Invoker bound to the resolved probe binary path.
// packetTimeout bounds packet-mode probes, frameTimeout bounds both
// frame-mode probes and the one-shot metadata probe; pass
// PacketProbeTimeout/FrameProbeTimeout to keep spec.md's defaults.
func NewProber(invoker *Invoker, packetTimeout, frameTimeout time.Duration) *Prober {
	return &Prober{invoker: invoker, packetTimeout: packetTimeout, frameTimeout: frameTimeout}
}

func packetArgv(path string, streamIndex int, readInterval string) []string {
	argv := []string{"-v", "error", "-select_streams", fmt.Sprintf("%d", streamIndex)}
	if readInterval != "" {
		argv = append(argv, "-read_intervals", readInterval)
	}
	argv = append(argv,
		"-show_packets",
		"-show_entries", "packet=pts_time,dts_time,size,flags",
		"-of", "csv=p=0",
		path,
	)
	return argv
}

func frameArgv(path string, streamIndex int) []string {
	return []string{
		"-v", "error",
		"-select_streams", fmt.Sprintf("%d", streamIndex),
		"-show_frames",
		"-show_entries", "frame=best_effort_timestamp_time,pkt_pts_time,pts_time,pkt_dts_time,pkt_size,pict_type",
		"-of", "json",
		path,
	}
}

// MetadataArgv builds the container-format + stream-list probe invocation.
func MetadataArgv(path string) []string {
	return []string{"-v", "quiet", "-print_format", "json", "-show_format", "-show_streams", path}
}

// Packets runs a packet-mode probe for one stream, optionally scoped to a
// read interval (used by the sampling strategy).
func (p *Prober) Packets(ctx context.Context, path string, streamIndex int, readInterval string) ([]bitrate.FrameRecord, error) {
	start := time.Now()
	stdout, stderr, err := p.invoker.Invoke(ctx, packetArgv(path, streamIndex, readInterval), p.packetTimeout)
	metrics.ProbeDuration.WithLabelValues("packet").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("packet probe: %w (%s)", err, stderr)
	}
	return ParsePackets(stdout)
}

// Frames runs a frame-mode probe for one stream.
func (p *Prober) Frames(ctx context.Context, path string, streamIndex int) ([]bitrate.FrameRecord, error) {
	start := time.Now()
	stdout, stderr, err := p.invoker.Invoke(ctx, frameArgv(path, streamIndex), p.frameTimeout)
	metrics.ProbeDuration.WithLabelValues("frame").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("frame probe: %w (%s)", err, stderr)
	}
	return ParseFrames(stdout)
}

// Auto tries a packet-mode probe first, falling back to frame mode on an
// empty result or any error — unless preferAccuracy pins frame mode.
func (p *Prober) Auto(ctx context.Context, path string, streamIndex int, preferAccuracy bool) ([]bitrate.FrameRecord, error) {
	if preferAccuracy {
		return p.Frames(ctx, path, streamIndex)
	}

	records, err := p.Packets(ctx, path, streamIndex, "")
	if err == nil && len(records) > 0 {
		return records, nil
	}
	logger.Debug("packet probe insufficient, falling back to frame mode", "path", path, "stream", streamIndex, "err", err)
	return p.Frames(ctx, path, streamIndex)
}

// Metadata runs the one-shot container-format + stream-list probe.
func (p *Prober) Metadata(ctx context.Context, path string) ([]byte, error) {
	start := time.Now()
	stdout, stderr, err := p.invoker.Invoke(ctx, MetadataArgv(path), p.frameTimeout)
	metrics.ProbeDuration.WithLabelValues("metadata").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("metadata probe: %w (%s)", err, stderr)
	}
	return stdout, nil
}
