package utils

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

// DirCheckResult represents the result of dir checks
type DirCheckResult struct {
	Exists   bool
	Writable bool
	Error    error
}

// FileExists reports whether path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// EnsureDir creates dir and its parents if needed.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// SaveTOMLFile encodes v into path. The file is written next to its target
// and renamed so readers never see a partial config.
func SaveTOMLFile(v any, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.toml")
	if err != nil {
		log.Errorf("Failed to create temp file for %s: %v", path, err)
		return err
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(v); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// GetAbsolutePath returns path made absolute, or "unknown" for an empty path.
func GetAbsolutePath(path string) string {
	if path == "" {
		return "unknown"
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// CheckDirStatus creates dir if missing and tests that it can be written.
func CheckDirStatus(dir string) DirCheckResult {
	result := DirCheckResult{}
	if err := EnsureDir(dir); err != nil {
		result.Error = err
		log.Debugf("Cannot create directory %s: %v", dir, err)
		return result
	}
	result.Exists = true
	result.Writable = testWriteAccess(dir)
	return result
}

func testWriteAccess(dir string) bool {
	f, err := os.CreateTemp(dir, ".write_test")
	if err != nil {
		log.Debugf("Cannot write to directory %s: %v", dir, err)
		return false
	}
	f.Close()
	os.Remove(f.Name())
	return true
}
