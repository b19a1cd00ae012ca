// Package muxremove implements the stream-removal operation: invoking
// the mux tool to rewrite a container with one or more streams dropped,
// via stream copy (no re-encoding). It reuses the job queue for
// backpressure but contains no bitrate algorithm of its own.
package muxremove

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sort"
	"sync"
	"time"

	"github.com/gwlsn/bitrated/internal/hashid"
	"github.com/gwlsn/bitrated/internal/jobqueue"
	"github.com/gwlsn/bitrated/internal/logger"
	"github.com/gwlsn/bitrated/internal/metrics"
	"github.com/gwlsn/bitrated/internal/probecache"
)

// Timeout bounds the mux subprocess. Stream-copy remuxing is fast
// relative to the probe timeouts in internal/mediaprobe, but a very
// large file on slow storage can still take a while.
const Timeout = 180 * time.Second

// Sentinel errors, checkable with errors.Is.
var (
	ErrToolMissing = errors.New("muxremove: tool not found")
	ErrSpawn       = errors.New("muxremove: failed to spawn subprocess")
	ErrTimeout     = errors.New("muxremove: subprocess timed out")
	ErrNonZeroExit = errors.New("muxremove: subprocess exited non-zero")
	ErrNoStreams   = errors.New("muxremove: no stream indexes given")
)

// pollInterval mirrors internal/mediaprobe's deadline-poll granularity.
const pollInterval = 75 * time.Millisecond

// Remover rewrites a container with selected streams dropped, via the
// mux binary, gated by a shared job queue and invalidating the probe
// cache for the rewritten path once the mux completes.
type Remover struct {
	binPath string
	queue   *jobqueue.Queue
	cache   *probecache.Cache
}

// New returns a Remover bound to an already-resolved mux binary path.
// queue and cache may be nil if the caller doesn't want backpressure or
// cache invalidation (e.g. in tests).
func New(binPath string, queue *jobqueue.Queue, cache *probecache.Cache) *Remover {
	return &Remover{binPath: binPath, queue: queue, cache: cache}
}

// Remove rewrites path into outPath with streamIndexes dropped, using
// stream copy. streamIndexes must be non-empty. On success the probe
// cache entry for path is invalidated, since the file on disk at path
// is unchanged but a sibling caller may re-probe outPath immediately.
func (rm *Remover) Remove(ctx context.Context, path, outPath string, streamIndexes []int) error {
	if len(streamIndexes) == 0 {
		return ErrNoStreams
	}
	if rm.binPath == "" {
		return ErrToolMissing
	}

	if rm.queue != nil {
		hash, err := hashid.Hash(path)
		if err != nil {
			return fmt.Errorf("hashing %s: %w", path, err)
		}
		result, _ := rm.queue.Enqueue(path, hash)
		if result == jobqueue.AlreadyExists {
			return fmt.Errorf("muxremove: %w", jobqueue.ErrJobAlreadyExists)
		}
		defer rm.queue.Complete(path)
	}

	argv := buildArgs(path, outPath, streamIndexes)
	logger.Info("removing streams", "path", path, "streams", streamIndexes, "out", outPath)

	start := time.Now()
	err := rm.invoke(ctx, argv)
	metrics.MuxRemoveDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return err
	}

	if rm.cache != nil {
		rm.cache.Invalidate(path)
	}
	return nil
}

// buildArgs builds the mux argv per spec.md §6:
//
//	mux -i <path> -map 0 { -map -0:<idx> } -c copy -y <out>
//
// Indexes are sorted and de-duplicated so the same argv is produced
// regardless of caller ordering.
func buildArgs(path, outPath string, streamIndexes []int) []string {
	sorted := append([]int(nil), streamIndexes...)
	sort.Ints(sorted)

	argv := []string{"-i", path, "-map", "0"}
	seen := -1
	for _, idx := range sorted {
		if idx == seen {
			continue
		}
		seen = idx
		argv = append(argv, "-map", fmt.Sprintf("-0:%d", idx))
	}
	argv = append(argv, "-c", "copy", "-y", outPath)
	return argv
}

// invoke runs the mux binary, draining stdout/stderr concurrently the
// same way internal/mediaprobe's Invoker does, to avoid a pipe-buffer
// deadlock on a child that writes more than the pipe's capacity.
func (rm *Remover) invoke(ctx context.Context, argv []string) error {
	cmd := exec.Command(rm.binPath, argv...)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSpawn, err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSpawn, err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrSpawn, err)
	}

	var wg sync.WaitGroup
	var errBuf bytes.Buffer
	wg.Add(2)
	go drain(&wg, stdoutPipe, io.Discard)
	go drain(&wg, stderrPipe, &errBuf)

	waitCh := make(chan error, 1)
	go func() {
		wg.Wait()
		waitCh <- cmd.Wait()
	}()

	start := time.Now()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case werr := <-waitCh:
			if werr != nil {
				if _, ok := werr.(*exec.ExitError); ok {
					return fmt.Errorf("%w: %s", ErrNonZeroExit, errBuf.String())
				}
				return fmt.Errorf("%w: %v", ErrSpawn, werr)
			}
			return nil

		case <-ctx.Done():
			_ = cmd.Process.Kill()
			<-waitCh
			return ctx.Err()

		case <-ticker.C:
			if time.Since(start) > Timeout {
				logger.Warn("mux timed out", "timeout", Timeout, "argv", argv)
				_ = cmd.Process.Kill()
				<-waitCh
				return ErrTimeout
			}
		}
	}
}

func drain(wg *sync.WaitGroup, r io.Reader, w io.Writer) {
	defer wg.Done()
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("mux drain goroutine panicked", "recovered", rec)
		}
	}()
	_, _ = io.Copy(w, r)
}
