// Package lockfile guards the FeedbackBridge state directory against
// concurrent bot processes.
//
// The ban list and correlation map are rewritten wholesale on every
// mutation, so two processes sharing a state directory would corrupt each
// other's snapshots. An flock-based lock is released automatically by the
// kernel when the process exits, gracefully or not.
package lockfile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// LockFileName is the name of the lock file created in the state directory.
const LockFileName = "feedbackbridge.lock"

// Lock represents an active state-directory lock.
type Lock struct {
	file     *os.File
	path     string
	acquired bool
}

// AcquireLock takes an exclusive lock on the state directory. When the
// lock is already held, the returned LockError describes the holding
// process.
func AcquireLock(stateDir string) (*Lock, error) {
	lockPath := filepath.Join(stateDir, LockFileName)
	slog.Debug("AcquireLock: attempting to acquire state directory lock", "lock_path", lockPath)

	if err := os.MkdirAll(stateDir, 0755); err != nil {
		slog.Error("AcquireLock: failed to create state directory", "error", err, "state_dir", stateDir)
		return nil, fmt.Errorf("failed to create state directory %s: %w", stateDir, err)
	}

	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		slog.Error("AcquireLock: failed to open lock file", "error", err, "lock_path", lockPath)
		return nil, fmt.Errorf("failed to open lock file %s: %w", lockPath, err)
	}

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		holder := describeHolder(lockPath)
		file.Close()
		slog.Error("AcquireLock: lock already held by another process",
			"error", err, "lock_path", lockPath, "holder", holder)
		return nil, &LockError{LockPath: lockPath, Holder: holder, Cause: err}
	}

	if err := file.Truncate(0); err != nil {
		slog.Warn("AcquireLock: failed to truncate lock file", "error", err, "lock_path", lockPath)
	}
	if _, err := fmt.Fprintf(file, "pid=%d\n", os.Getpid()); err != nil {
		syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		file.Close()
		slog.Error("AcquireLock: failed to write lock information", "error", err, "lock_path", lockPath)
		return nil, fmt.Errorf("failed to write lock information to %s: %w", lockPath, err)
	}
	if err := file.Sync(); err != nil {
		slog.Warn("AcquireLock: failed to sync lock file", "error", err, "lock_path", lockPath)
	}

	slog.Info("AcquireLock: acquired state directory lock", "lock_path", lockPath, "pid", os.Getpid())
	return &Lock{file: file, path: lockPath, acquired: true}, nil
}

// Release unlocks and removes the lock file. Safe to call repeatedly.
func (l *Lock) Release() error {
	if !l.acquired || l.file == nil {
		return nil
	}
	if err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN); err != nil {
		slog.Error("Release: failed to release flock", "error", err, "lock_path", l.path)
	}
	if err := l.file.Close(); err != nil {
		slog.Error("Release: failed to close lock file", "error", err, "lock_path", l.path)
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		slog.Error("Release: failed to remove lock file", "error", err, "lock_path", l.path)
	}
	l.acquired = false
	l.file = nil
	slog.Info("Release: released state directory lock", "lock_path", l.path)
	return nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// LockError reports a lock held by another process.
type LockError struct {
	LockPath string
	Holder   string
	Cause    error
}

func (e *LockError) Error() string {
	msg := fmt.Sprintf("another FeedbackBridge instance is using this state directory (lock file: %s)", e.LockPath)
	if e.Holder != "" {
		msg += fmt.Sprintf("; held by %s", e.Holder)
	}
	msg += fmt.Sprintf(". If no other instance is running, remove the stale lock with: rm %s", e.LockPath)
	return msg
}

func (e *LockError) Unwrap() error {
	return e.Cause
}

// describeHolder reads the existing lock file and reports the holding
// process and whether it is still alive.
func describeHolder(lockPath string) string {
	data, err := os.ReadFile(lockPath)
	if err != nil || len(data) == 0 {
		return ""
	}
	pid := extractPID(string(data))
	if pid <= 0 {
		return strings.TrimSpace(string(data))
	}
	if isProcessRunning(pid) {
		return fmt.Sprintf("PID %d (running)", pid)
	}
	return fmt.Sprintf("PID %d (not running, stale lock)", pid)
}

// extractPID pulls the pid out of "pid=NNNN" lock file content.
func extractPID(content string) int {
	const prefix = "pid="
	idx := strings.Index(content, prefix)
	if idx == -1 {
		return 0
	}
	rest := content[idx+len(prefix):]
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	pid, err := strconv.Atoi(rest[:end])
	if err != nil {
		return 0
	}
	return pid
}

// isProcessRunning probes a pid with signal 0.
func isProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
