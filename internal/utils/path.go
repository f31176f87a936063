package utils

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/log"
)

// AppDirName is the directory name used under the platform config dir.
const AppDirName = "searchpro"

// PathResolver finds config and corpus files relative to the usual places:
// the working directory, the executable and the user config directory.
type PathResolver struct {
	executableDir string
	configDir     string
}

// NewPathResolver determines the executable and config locations.
func NewPathResolver() (*PathResolver, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, err
	}
	if resolved, err := filepath.EvalSymlinks(execPath); err == nil {
		execPath = resolved
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Warnf("Could not determine home directory: %v", err)
		homeDir = os.TempDir()
	}

	pr := &PathResolver{
		executableDir: filepath.Dir(execPath),
		configDir:     ConfigDirFor(homeDir),
	}
	log.Debugf("PathResolver initialized: execDir=%s, configDir=%s", pr.executableDir, pr.configDir)
	return pr, nil
}

// ConfigDirFor returns the platform config directory for searchpro.
func ConfigDirFor(homeDir string) string {
	switch runtime.GOOS {
	case "linux":
		if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
			return filepath.Join(configHome, AppDirName)
		}
		return filepath.Join(homeDir, ".config", AppDirName)
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, AppDirName)
		}
		return filepath.Join(homeDir, "AppData", "Roaming", AppDirName)
	default:
		return filepath.Join(homeDir, ".config", AppDirName)
	}
}

// ConfigDir returns the resolved config directory.
func (pr *PathResolver) ConfigDir() string {
	return pr.configDir
}

// ConfigPath returns filename inside the config directory, falling back to
// the temp dir when the config directory cannot be written.
func (pr *PathResolver) ConfigPath(filename string) string {
	if CheckDirStatus(pr.configDir).Writable {
		return filepath.Join(pr.configDir, filename)
	}
	fallback := filepath.Join(os.TempDir(), AppDirName)
	log.Warnf("Config dir %s not writable, using %s", pr.configDir, fallback)
	if err := EnsureDir(fallback); err != nil {
		return filepath.Join(os.TempDir(), filename)
	}
	return filepath.Join(fallback, filename)
}

// ResolveCorpusPath finds a corpus file. Absolute paths are used as is;
// relative ones are tried against the working directory, the executable
// directory and the config directory in that order.
func (pr *PathResolver) ResolveCorpusPath(path string) (string, error) {
	if path == "" {
		return "", os.ErrNotExist
	}
	if filepath.IsAbs(path) {
		if FileExists(path) {
			return path, nil
		}
		return "", &os.PathError{Op: "resolve", Path: path, Err: os.ErrNotExist}
	}

	for _, candidate := range pr.candidates(path) {
		if FileExists(candidate) {
			log.Debugf("Found corpus at %s", candidate)
			return candidate, nil
		}
		log.Debugf("Corpus candidate not found: %s", candidate)
	}
	return "", &os.PathError{Op: "resolve", Path: path, Err: errors.Join(os.ErrNotExist, errNoCandidate)}
}

var errNoCandidate = errors.New("not found in working, executable or config directory")

func (pr *PathResolver) candidates(rel string) []string {
	var out []string
	if cwd, err := os.Getwd(); err == nil {
		out = append(out, filepath.Join(cwd, rel))
	}
	return append(out,
		filepath.Join(pr.executableDir, rel),
		filepath.Join(pr.configDir, rel),
	)
}
