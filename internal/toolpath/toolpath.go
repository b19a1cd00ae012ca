// Package toolpath locates probe/mux binaries across OS-specific search
// paths, the way a packaged desktop app has to when it can't rely on PATH
// being inherited from a shell.
package toolpath

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// knownDirs lists package-manager install locations to check before
// falling back to PATH, grounded on original_source's find_command
// fallback chain (Homebrew, common Linux prefixes, Windows ffmpeg
// installs).
func knownDirs() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"/opt/homebrew/bin", "/usr/local/bin"}
	case "windows":
		return []string{`C:\ffmpeg\bin`, `C:\Program Files\ffmpeg\bin`}
	default:
		return []string{"/usr/local/bin", "/usr/bin", "/bin"}
	}
}

// windowsSuffixes are tried, in order, after a bare name on Windows.
var windowsSuffixes = []string{"", ".exe", ".cmd", ".bat"}

// Find searches an app-private bin directory (if non-empty), then known
// package-manager directories for the running OS, then PATH, returning
// the first existing absolute path. It returns "" if nothing is found;
// no further validation (executability, version) is performed.
func Find(name string, appBinDir string) string {
	suffixes := []string{""}
	if runtime.GOOS == "windows" {
		suffixes = windowsSuffixes
	}

	searchDirs := make([]string, 0, len(knownDirs())+1)
	if appBinDir != "" {
		searchDirs = append(searchDirs, appBinDir)
	}
	searchDirs = append(searchDirs, knownDirs()...)

	for _, dir := range searchDirs {
		for _, suffix := range suffixes {
			candidate := filepath.Join(dir, name+suffix)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate
			}
		}
	}

	if path, err := exec.LookPath(name); err == nil {
		return path
	}

	return ""
}
