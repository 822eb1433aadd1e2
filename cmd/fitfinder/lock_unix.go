//go:build !windows

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fitfinder/fitfinder/config"
	"golang.org/x/sys/unix"
)

var lockFile *os.File

// acquireLock takes an exclusive flock on the lock file. It reports false
// when another process holds it.
func acquireLock() (bool, error) {
	path, err := config.GetLockFilename()
	if err != nil {
		return false, err
	}
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return false, fmt.Errorf("failed to open lock file: %w", err)
	}

	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		file.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return false, nil
		}
		return false, fmt.Errorf("failed to lock %s: %w", path, err)
	}

	lockFile = file
	return true, nil
}

// releaseLock releases the single-instance lock.
func releaseLock() {
	if lockFile == nil {
		return
	}
	unix.Flock(int(lockFile.Fd()), unix.LOCK_UN)
	lockFile.Close()
	os.Remove(lockFile.Name())
}
