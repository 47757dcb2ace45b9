package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir returns the default log directory (~/.logsonar/logs/).
// Falls back to the temp directory if the home directory is unavailable.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".logsonar", "logs")
	}
	return filepath.Join(home, ".logsonar", "logs")
}

// DefaultLogPath returns the default pipeline log path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "pipeline.log")
}
