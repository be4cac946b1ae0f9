package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAcquireAndRelease(t *testing.T) {
	stateDir := t.TempDir()

	lock, err := AcquireLock(stateDir)
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}

	lockPath := filepath.Join(stateDir, LockFileName)
	data, err := os.ReadFile(lockPath)
	if err != nil {
		t.Fatalf("failed to read lock file: %v", err)
	}
	want := fmt.Sprintf("pid=%d\n", os.Getpid())
	if string(data) != want {
		t.Errorf("lock file content = %q, want %q", string(data), want)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Errorf("lock file still exists after Release")
	}
}

func TestAcquireCreatesStateDir(t *testing.T) {
	stateDir := filepath.Join(t.TempDir(), "nested", "state")

	lock, err := AcquireLock(stateDir)
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}
	defer lock.Release()

	if _, err := os.Stat(stateDir); err != nil {
		t.Errorf("state directory was not created: %v", err)
	}
}

func TestSecondAcquireFails(t *testing.T) {
	stateDir := t.TempDir()

	first, err := AcquireLock(stateDir)
	if err != nil {
		t.Fatalf("first AcquireLock failed: %v", err)
	}
	defer first.Release()

	_, err = AcquireLock(stateDir)
	if err == nil {
		t.Fatal("second AcquireLock succeeded, want conflict error")
	}

	var lockErr *LockError
	if !errors.As(err, &lockErr) {
		t.Fatalf("error type = %T, want *LockError", err)
	}
	if lockErr.LockPath != filepath.Join(stateDir, LockFileName) {
		t.Errorf("LockError.LockPath = %q", lockErr.LockPath)
	}
	if !strings.Contains(lockErr.Holder, fmt.Sprintf("PID %d", os.Getpid())) {
		t.Errorf("LockError.Holder = %q, want current pid reported", lockErr.Holder)
	}
	if !strings.Contains(lockErr.Error(), "another FeedbackBridge instance") {
		t.Errorf("LockError message = %q", lockErr.Error())
	}
}

func TestReacquireAfterRelease(t *testing.T) {
	stateDir := t.TempDir()

	first, err := AcquireLock(stateDir)
	if err != nil {
		t.Fatalf("first AcquireLock failed: %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	second, err := AcquireLock(stateDir)
	if err != nil {
		t.Fatalf("reacquire after release failed: %v", err)
	}
	second.Release()
}

func TestReleaseIsIdempotent(t *testing.T) {
	stateDir := t.TempDir()

	lock, err := AcquireLock(stateDir)
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("first Release failed: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("second Release failed: %v", err)
	}
}

func TestExtractPID(t *testing.T) {
	cases := []struct {
		content string
		want    int
	}{
		{"pid=1234\n", 1234},
		{"pid=1\n", 1},
		{"pid=\n", 0},
		{"garbage", 0},
		{"", 0},
	}
	for _, tc := range cases {
		if got := extractPID(tc.content); got != tc.want {
			t.Errorf("extractPID(%q) = %d, want %d", tc.content, got, tc.want)
		}
	}
}
