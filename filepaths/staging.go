package filepaths

import (
	"fmt"
	"os"
	"path/filepath"
)

const stagingDirPattern = "forensic-dispatch-"

// EnsureStagingPath ensures the staging directory exists - this is the folder remote artifacts are copied into
func EnsureStagingPath(dir string) (string, error) {
	stagingPath, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("invalid staging directory %s: %w", dir, err)
	}
	// ensure it exists
	if _, err := os.Stat(stagingPath); os.IsNotExist(err) {
		err = os.MkdirAll(stagingPath, 0755)
		if err != nil {
			return "", fmt.Errorf("could not create staging directory %s: %w", stagingPath, err)
		}
	}
	return stagingPath, nil
}

// NewTempStagingPath creates a new, empty staging directory under the system temp dir
func NewTempStagingPath() (string, error) {
	stagingPath, err := os.MkdirTemp("", stagingDirPattern)
	if err != nil {
		return "", fmt.Errorf("could not create staging directory: %w", err)
	}
	return stagingPath, nil
}
