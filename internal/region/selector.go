package region

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/facebookincubator/go-belt/tool/logger"
)

var (
	// ErrCancelled means the user dismissed the selector. Not a failure:
	// the start request is simply aborted.
	ErrCancelled = errors.New("region selection cancelled")

	// ErrToolMissing means the selector executable is not installed.
	ErrToolMissing = errors.New("region selection tool not found")
)

// Selector runs the external interactive selection tool.
type Selector struct {
	// Cmd is the selector executable, typically "slurp".
	Cmd string
}

// Select blocks on the interactive selector until the user picks a region
// or dismisses it. There is no timeout: the wait is user-controlled.
func (s *Selector) Select(ctx context.Context) (Region, error) {
	cmd := exec.CommandContext(ctx, s.Cmd, "-f", "%x,%y %wx%h")
	cmd.Env = selectorEnv(os.Environ())

	out, err := cmd.Output()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			return Region{}, ErrToolMissing
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// Escape in slurp exits non-zero.
			logger.Debugf(ctx, "selector exited non-zero: %s", strings.TrimSpace(string(exitErr.Stderr)))
			return Region{}, ErrCancelled
		}
		return Region{}, err
	}

	raw := strings.TrimSpace(string(out))
	if raw == "" {
		return Region{}, ErrCancelled
	}
	return Parse(raw)
}

// selectorEnv fills in cursor theme variables when the environment lacks
// them, so the selector crosshair does not fall back to the default X
// cursor. The theme is read from the niri config if available.
func selectorEnv(env []string) []string {
	if !envHas(env, "XCURSOR_THEME") {
		if theme := cursorThemeFromNiriConfig(); theme != "" {
			env = append(env, "XCURSOR_THEME="+theme)
		}
	}
	if !envHas(env, "XCURSOR_SIZE") {
		env = append(env, "XCURSOR_SIZE=24")
	}
	return env
}

func envHas(env []string, key string) bool {
	prefix := key + "="
	for _, kv := range env {
		if strings.HasPrefix(kv, prefix) {
			return true
		}
	}
	return false
}

// cursorThemeFromNiriConfig extracts the xcursor-theme setting from
// ~/.config/niri/config.kdl, if present.
func cursorThemeFromNiriConfig() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		configDir = filepath.Join(home, ".config")
	}
	data, err := os.ReadFile(filepath.Join(configDir, "niri", "config.kdl"))
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "xcursor-theme") {
			continue
		}
		value := strings.TrimSpace(strings.TrimPrefix(trimmed, "xcursor-theme"))
		value = strings.TrimPrefix(value, "\"")
		value = strings.TrimSuffix(value, "\"")
		return value
	}
	return ""
}
