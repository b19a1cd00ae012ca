package mediaprobe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/gwlsn/bitrated/internal/logger"
)

// Timeout profiles per spec.md §4.3/§6.
const (
	PacketProbeTimeout = 180 * time.Second
	FrameProbeTimeout  = 300 * time.Second
)

// pollInterval is how often the wait loop checks the deadline — the Go
// analog of the original's try_wait poll, expressed with a ticker instead
// of a busy sleep loop so the same goroutine can also observe ctx.Done().
const pollInterval = 75 * time.Millisecond

// Invoker spawns the probe binary and drains its output without risking
// the classic pipe-buffer deadlock: stdout and stderr are read
// concurrently on separate goroutines, joined via a WaitGroup, and only
// then is the process reaped.
type Invoker struct {
	binPath string
}

// NewInvoker returns an Invoker bound to an already-resolved binary path.
func NewInvoker(binPath string) *Invoker {
	return &Invoker{binPath: binPath}
}

// Invoke runs the probe binary with argv, draining stdout/stderr
// concurrently and enforcing timeout as a hard deadline: on expiry the
// child is killed and ErrTimeout is returned. ctx cancellation is honored
// the same way.
func (inv *Invoker) Invoke(ctx context.Context, argv []string, timeout time.Duration) (stdout, stderr []byte, err error) {
	if inv.binPath == "" {
		return nil, nil, ErrToolMissing
	}

	cmd := exec.Command(inv.binPath, argv...)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrSpawn, err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrSpawn, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrSpawn, err)
	}

	var (
		wg         sync.WaitGroup
		outBuf     bytes.Buffer
		errBuf     bytes.Buffer
	)
	wg.Add(2)

	// Drain stdout and stderr concurrently — never call cmd.Wait() before
	// both drainers are running, or a full pipe buffer can deadlock the
	// child against a parent that's blocked in Wait().
	go drainPipe(&wg, stdoutPipe, &outBuf)
	go drainPipe(&wg, stderrPipe, &errBuf)

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
					return outBuf.Bytes(), errBuf.Bytes(), fmt.Errorf("%w: %s", ErrNonZeroExit, errBuf.String())
				}
				return outBuf.Bytes(), errBuf.Bytes(), fmt.Errorf("%w: %v", ErrSpawn, werr)
			}
			return outBuf.Bytes(), errBuf.Bytes(), nil

		case <-ctx.Done():
			_ = cmd.Process.Kill()
			<-waitCh
			return outBuf.Bytes(), errBuf.Bytes(), ctx.Err()

		case <-ticker.C:
			if time.Since(start) > timeout {
				logger.Warn("probe timed out", "timeout", timeout, "argv", argv)
				_ = cmd.Process.Kill()
				<-waitCh
				return outBuf.Bytes(), errBuf.Bytes(), ErrTimeout
			}
		}
	}
}

// drainPipe copies a pipe into buf, isolating any panic in the copy (a
// defensive mirror of the original's catch_unwind wrapper) so a failure
// reading one stream never prevents the other's drainer — or the process
// reaper — from completing.
func drainPipe(wg *sync.WaitGroup, r io.Reader, buf *bytes.Buffer) {
	defer wg.Done()
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("probe drain goroutine panicked", "recovered", rec)
		}
	}()

	chunk := make([]byte, 64*1024)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
		}
		if err != nil {
			return
		}
	}
}
