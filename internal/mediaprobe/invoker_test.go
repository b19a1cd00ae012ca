package mediaprobe_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gwlsn/bitrated/internal/mediaprobe"
)

func TestInvokeCapturesStdout(t *testing.T) {
	inv := mediaprobe.NewInvoker("/bin/sh")
	stdout, _, err := inv.Invoke(context.Background(), []string{"-c", "echo hello"}, time.Second)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if string(stdout) != "hello\n" {
		t.Errorf("expected %q, got %q", "hello\n", stdout)
	}
}

func TestInvokeNonZeroExit(t *testing.T) {
	inv := mediaprobe.NewInvoker("/bin/sh")
	_, _, err := inv.Invoke(context.Background(), []string{"-c", "echo oops 1>&2; exit 1"}, time.Second)
	if !errors.Is(err, mediaprobe.ErrNonZeroExit) {
		t.Errorf("expected ErrNonZeroExit, got %v", err)
	}
}

func TestInvokeTimeout(t *testing.T) {
	inv := mediaprobe.NewInvoker("/bin/sh")
	_, _, err := inv.Invoke(context.Background(), []string{"-c", "sleep 5"}, 100*time.Millisecond)
	if !errors.Is(err, mediaprobe.ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}

func TestInvokeMissingBinary(t *testing.T) {
	inv := mediaprobe.NewInvoker("")
	_, _, err := inv.Invoke(context.Background(), nil, time.Second)
	if !errors.Is(err, mediaprobe.ErrToolMissing) {
		t.Errorf("expected ErrToolMissing, got %v", err)
	}
}

func TestInvokeContextCancellation(t *testing.T) {
	inv := mediaprobe.NewInvoker("/bin/sh")
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	_, _, err := inv.Invoke(ctx, []string{"-c", "sleep 5"}, 5*time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestInvokeHandlesLargeOutputWithoutDeadlock(t *testing.T) {
	// Produces well over a typical 64KB pipe buffer; if the drainers
	// weren't concurrent with Wait(), this would hang.
	inv := mediaprobe.NewInvoker("/bin/sh")
	errCh := make(chan error, 1)
	go func() {
		_, _, err := inv.Invoke(context.Background(), []string{"-c", "yes | head -c 5000000"}, 10*time.Second)
		errCh <- err
	}()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Invoke: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Invoke deadlocked on large output")
	}
}
