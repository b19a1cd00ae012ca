package probecache_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gwlsn/bitrated/internal/mediaprobe"
	"github.com/gwlsn/bitrated/internal/probecache"
)

func writeProbeScript(t *testing.T, script string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fakeprobe.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func sampleMetadataJSON() string {
	return `{"format":{"duration":"10.0","size":"1000","bit_rate":"800"},"streams":[]}`
}

func TestGetProbesOnceThenCaches(t *testing.T) {
	countFile := filepath.Join(t.TempDir(), "count")
	script := `
c=0
if [ -f "` + countFile + `" ]; then c=$(cat "` + countFile + `"); fi
c=$((c+1))
echo $c > "` + countFile + `"
cat <<'EOF'
` + sampleMetadataJSON() + `
EOF
`
	bin := writeProbeScript(t, script)
	prober := mediaprobe.NewProber(mediaprobe.NewInvoker(bin), mediaprobe.PacketProbeTimeout, mediaprobe.FrameProbeTimeout)
	cache := probecache.New(prober, probecache.DefaultTTL)

	target := filepath.Join(t.TempDir(), "video.mkv")
	if err := os.WriteFile(target, []byte("data"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	ctx := context.Background()
	if _, err := cache.Get(ctx, target); err != nil {
		t.Fatalf("Get (miss): %v", err)
	}
	if _, err := cache.Get(ctx, target); err != nil {
		t.Fatalf("Get (hit): %v", err)
	}

	data, err := os.ReadFile(countFile)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "1\n" {
		t.Errorf("expected probe invoked exactly once, count file holds %q", data)
	}
}

func TestGetReProbesAfterMtimeChange(t *testing.T) {
	countFile := filepath.Join(t.TempDir(), "count")
	script := `
c=0
if [ -f "` + countFile + `" ]; then c=$(cat "` + countFile + `"); fi
c=$((c+1))
echo $c > "` + countFile + `"
cat <<'EOF'
` + sampleMetadataJSON() + `
EOF
`
	bin := writeProbeScript(t, script)
	prober := mediaprobe.NewProber(mediaprobe.NewInvoker(bin), mediaprobe.PacketProbeTimeout, mediaprobe.FrameProbeTimeout)
	cache := probecache.New(prober, probecache.DefaultTTL)

	target := filepath.Join(t.TempDir(), "video.mkv")
	if err := os.WriteFile(target, []byte("data"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	ctx := context.Background()
	if _, err := cache.Get(ctx, target); err != nil {
		t.Fatalf("Get: %v", err)
	}

	newTime := time.Now().Add(time.Hour)
	if err := os.Chtimes(target, newTime, newTime); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	if _, err := cache.Get(ctx, target); err != nil {
		t.Fatalf("Get after mtime change: %v", err)
	}

	data, err := os.ReadFile(countFile)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "2\n" {
		t.Errorf("expected re-probe after mtime change, count file holds %q", data)
	}
}

func TestInvalidateForcesReProbe(t *testing.T) {
	bin := writeProbeScript(t, "cat <<'EOF'\n"+sampleMetadataJSON()+"\nEOF")
	prober := mediaprobe.NewProber(mediaprobe.NewInvoker(bin), mediaprobe.PacketProbeTimeout, mediaprobe.FrameProbeTimeout)
	cache := probecache.New(prober, probecache.DefaultTTL)

	target := filepath.Join(t.TempDir(), "video.mkv")
	if err := os.WriteFile(target, []byte("data"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	ctx := context.Background()
	if _, err := cache.Get(ctx, target); err != nil {
		t.Fatalf("Get: %v", err)
	}

	total, _ := cache.Stats()
	if total != 1 {
		t.Fatalf("expected 1 cached entry, got %d", total)
	}

	cache.Invalidate(target)

	total, _ = cache.Stats()
	if total != 0 {
		t.Errorf("expected cache empty after Invalidate, got %d entries", total)
	}
}

func TestStatsDistinguishesValidFromTotal(t *testing.T) {
	bin := writeProbeScript(t, "cat <<'EOF'\n"+sampleMetadataJSON()+"\nEOF")
	prober := mediaprobe.NewProber(mediaprobe.NewInvoker(bin), mediaprobe.PacketProbeTimeout, mediaprobe.FrameProbeTimeout)
	cache := probecache.New(prober, probecache.DefaultTTL)

	a := filepath.Join(t.TempDir(), "a.mkv")
	b := filepath.Join(t.TempDir(), "b.mkv")
	for _, p := range []string{a, b} {
		if err := os.WriteFile(p, []byte("data"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	ctx := context.Background()
	if _, err := cache.Get(ctx, a); err != nil {
		t.Fatalf("Get a: %v", err)
	}
	if _, err := cache.Get(ctx, b); err != nil {
		t.Fatalf("Get b: %v", err)
	}

	newTime := time.Now().Add(time.Hour)
	if err := os.Chtimes(a, newTime, newTime); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	total, valid := cache.Stats()
	if total != 2 {
		t.Fatalf("expected 2 total entries, got %d", total)
	}
	if valid != 1 {
		t.Errorf("expected 1 still-valid entry after invalidating one via mtime, got %d", valid)
	}
}
