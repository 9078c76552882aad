// Package testutil provides shared helpers for package tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteScript writes an executable shell script into a temp dir and returns
// its path. Used to stand in for the external selector and capture tools.
func WriteScript(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+content), 0755); err != nil {
		t.Fatalf("Failed to write script %s: %v", name, err)
	}
	return path
}
