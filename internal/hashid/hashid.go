// Package hashid computes a fast, stable file-identity hash used as the
// content key throughout the probe cache and job queue.
package hashid

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

const (
	headSize     = 8 * 1024
	tailSize     = 8 * 1024
	tailFloor    = 2 * headSize // tail only read when file size exceeds head+tail
)

// Hash computes a SHA-256 over size, mtime, the first 8 KiB and (when the
// file is larger than 16 KiB) the last 8 KiB of path, returning lowercase
// hex. Two files with identical size, mtime and head/tail bytes hash
// identically; this is by design — the hash identifies content, not a
// specific path.
func Hash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("hashid: stat %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("hashid: stat %s: %w", path, err)
	}

	size := info.Size()
	mtime := info.ModTime().Unix()

	h := sha256.New()

	var le [8]byte
	binary.LittleEndian.PutUint64(le[:], uint64(size))
	h.Write(le[:])
	binary.LittleEndian.PutUint64(le[:], uint64(mtime))
	h.Write(le[:])

	head := make([]byte, headSize)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("hashid: read head of %s: %w", path, err)
	}
	h.Write(head[:n])

	if size > tailFloor {
		if _, err := f.Seek(-tailSize, io.SeekEnd); err != nil {
			return "", fmt.Errorf("hashid: seek tail of %s: %w", path, err)
		}
		tail := make([]byte, tailSize)
		n, err := io.ReadFull(f, tail)
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			return "", fmt.Errorf("hashid: read tail of %s: %w", path, err)
		}
		h.Write(tail[:n])
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
