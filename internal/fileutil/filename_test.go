package fileutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewRecordingPath(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 8, 31, 14, 30, 5, 0, time.UTC)

	path, err := NewRecordingPath(dir, "mp4", now)
	if err != nil {
		t.Fatalf("NewRecordingPath failed: %v", err)
	}
	want := filepath.Join(dir, "screen-record-2026-08-31_14-30-05.mp4")
	if path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
}

func TestNewRecordingPathCollision(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 8, 31, 14, 30, 5, 0, time.UTC)

	first, err := NewRecordingPath(dir, "mkv", now)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(first, nil, 0644); err != nil {
		t.Fatal(err)
	}

	second, err := NewRecordingPath(dir, "mkv", now)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "screen-record-2026-08-31_14-30-05-2.mkv"); second != want {
		t.Errorf("second path = %q, want %q", second, want)
	}
	if err := os.WriteFile(second, nil, 0644); err != nil {
		t.Fatal(err)
	}

	third, err := NewRecordingPath(dir, "mkv", now)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "screen-record-2026-08-31_14-30-05-3.mkv"); third != want {
		t.Errorf("third path = %q, want %q", third, want)
	}
}

func TestNewRecordingPathCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "captures")
	if _, err := NewRecordingPath(dir, "mp4", time.Now()); err != nil {
		t.Fatalf("NewRecordingPath failed: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("output directory should be created: %v", err)
	}
}

func TestWaitForFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "late.mp4")

	if WaitForFile(path, 100*time.Millisecond) {
		t.Error("WaitForFile should time out for a file that never appears")
	}

	go func() {
		time.Sleep(100 * time.Millisecond)
		os.WriteFile(path, []byte("video"), 0644)
	}()
	if !WaitForFile(path, 2*time.Second) {
		t.Error("WaitForFile should see the file appear")
	}
}
