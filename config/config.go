package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// GetPath returns the per-user directory for FitFinder's own files.
// It is created if it does not exist.
func GetPath() (string, error) {
	var dir string
	if runtime.GOOS == "windows" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("getting user config directory: %w", err)
		}
		dir = filepath.Join(base, WinSubDir)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		dir = filepath.Join(home, SubDir)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	return dir, nil
}

// GetLockFilename returns the path of the single-instance lock file.
func GetLockFilename() (string, error) {
	dir, err := GetPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName+".lock"), nil
}
