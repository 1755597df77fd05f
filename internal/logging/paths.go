package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir returns the default log directory (~/.codescribe/logs/).
// Falls back to the temp directory if home directory is unavailable.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".codescribe", "logs")
	}
	return filepath.Join(home, ".codescribe", "logs")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "codescribe.log")
}

// EnsureLogDir creates the default log directory if it does not exist.
func EnsureLogDir() error {
	return os.MkdirAll(DefaultLogDir(), 0o755)
}
