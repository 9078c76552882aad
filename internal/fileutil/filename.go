package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// NewRecordingPath derives a unique output path inside dir:
// screen-record-YYYY-MM-DD_HH-MM-SS.ext, with a numeric suffix when a
// recording already started within the same second.
func NewRecordingPath(dir, ext string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	base := "screen-record-" + now.Format("2006-01-02_15-04-05")
	path := filepath.Join(dir, base+"."+ext)
	if !exists(path) {
		return path, nil
	}
	for i := 2; ; i++ {
		path = filepath.Join(dir, fmt.Sprintf("%s-%d.%s", base, i, ext))
		if !exists(path) {
			return path, nil
		}
	}
}

// WaitForFile polls until the file shows up on disk or the deadline passes.
// Capture tools finalize the container a beat after exiting, so a short
// wait avoids reporting a path that is not there yet.
func WaitForFile(path string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if exists(path) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
