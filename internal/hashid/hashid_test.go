package hashid_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gwlsn/bitrated/internal/hashid"
)

func writeFile(t *testing.T, dir, name string, content []byte, mtime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
	return path
}

func TestHashDeterministic(t *testing.T) {
	dir := t.TempDir()
	mtime := time.Unix(1700000000, 0)
	path := writeFile(t, dir, "a.bin", []byte("hello world"), mtime)

	h1, err := hashid.Hash(path)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	h2, err := hashid.Hash(path)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if h1 != h2 {
		t.Errorf("expected stable hash, got %s then %s", h1, h2)
	}
}

func TestHashChangesWithMtime(t *testing.T) {
	dir := t.TempDir()
	content := []byte("same content")
	path := writeFile(t, dir, "a.bin", content, time.Unix(1000, 0))
	h1, err := hashid.Hash(path)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	if err := os.Chtimes(path, time.Unix(2000, 0), time.Unix(2000, 0)); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
	h2, err := hashid.Hash(path)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	if h1 == h2 {
		t.Error("expected hash to change when mtime changes")
	}
}

func TestHashLargeFileReadsTail(t *testing.T) {
	dir := t.TempDir()
	mtime := time.Unix(1700000000, 0)

	big := make([]byte, 32*1024)
	for i := range big {
		big[i] = byte(i % 251)
	}
	pathA := writeFile(t, dir, "big.bin", big, mtime)

	bigModifiedTail := make([]byte, len(big))
	copy(bigModifiedTail, big)
	bigModifiedTail[len(bigModifiedTail)-1] ^= 0xFF
	pathB := writeFile(t, dir, "big2.bin", bigModifiedTail, mtime)

	h1, err := hashid.Hash(pathA)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	h2, err := hashid.Hash(pathB)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if h1 == h2 {
		t.Error("expected differing tail bytes to change the hash for large files")
	}
}

func TestHashMissingFile(t *testing.T) {
	if _, err := hashid.Hash("/nonexistent/path/should/fail"); err == nil {
		t.Error("expected error for missing file")
	}
}
