package store

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/hashicorp/go-hclog"
)

// lockSuffix names the sibling PID file that coordinates single-writer
// access to a store. A store opened OpenReadWrite acquires it for the
// lifetime of the Store handle and releases it on Close.
const lockSuffix = ".lock"

func lockPath(storePath string) string {
	return storePath + lockSuffix
}

// isProcessRunning reports whether pid refers to a live process, using the
// zero-signal probe.
func isProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}

// acquireLock attempts to take the write lock for storePath. On success it
// returns the path that must later be passed to releaseLock. A lock held by
// a dead process is treated as stale and cleared automatically; a lock held
// by a live process yields ErrLocked.
func acquireLock(storePath string, logger hclog.Logger) (string, error) {
	path := lockPath(storePath)
	pid := os.Getpid()

	if data, err := os.ReadFile(path); err == nil {
		contents := strings.TrimSpace(string(data))
		oldPid, parseErr := strconv.Atoi(contents)
		switch {
		case parseErr != nil:
			logger.Debug("🧹 removing unparsable lock file", "path", path)
			os.Remove(path)
		case isProcessRunning(oldPid):
			return "", fmt.Errorf("%w: held by pid %d", ErrLocked, oldPid)
		default:
			logger.Debug("🧹 removing stale lock from dead writer", "pid", oldPid)
			os.Remove(path)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return "", fmt.Errorf("%w: lock file exists", ErrLocked)
		}
		return "", fmt.Errorf("%w: creating lock file: %v", ErrIO, err)
	}
	defer file.Close()

	if _, err := fmt.Fprintf(file, "%d\n", pid); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("%w: writing lock file: %v", ErrIO, err)
	}

	logger.Debug("🔒 acquired write lock", "pid", pid, "path", path)
	return path, nil
}

// releaseLock removes the write lock previously acquired by acquireLock.
func releaseLock(path string, logger hclog.Logger) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Debug("⚠️ failed to remove lock file", "path", path, "error", err)
		return
	}
	logger.Debug("🔓 released write lock", "path", path)
}
