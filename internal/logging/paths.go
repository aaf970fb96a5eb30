package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir returns the default log directory (~/.parasearch/logs/).
// Falls back to the temp directory if the home directory is unavailable.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".parasearch", "logs")
	}
	return filepath.Join(home, ".parasearch", "logs")
}

// DefaultLogPath returns the default server log path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "server.log")
}

// EnsureLogDir creates the directory for the given log path if it doesn't exist.
func EnsureLogDir(logPath string) error {
	return os.MkdirAll(filepath.Dir(logPath), 0o755)
}
