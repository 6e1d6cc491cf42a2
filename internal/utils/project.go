package utils

import (
	"fmt"
	"path/filepath"
)

// GetProjectName returns the name of the directory holding .pagelock.
// It returns "" outside a project so that commands which do not need one
// keep working.
func GetProjectName() (string, error) {
	projectRoot, err := FindProjectRoot()
	if err != nil {
		return "", fmt.Errorf("failed to get project directory: %w", err)
	}
	if projectRoot == "" {
		return "", nil
	}
	return filepath.Base(projectRoot), nil
}
