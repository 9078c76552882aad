package notify

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// copyToClipboard puts the path on the Wayland clipboard.
func copyToClipboard(text string) error {
	return exec.Command("wl-copy", text).Run()
}

type openCommand struct {
	program string
	args    []string
}

// openFile hands the recording to the desktop's file opener. The candidate
// list mirrors what session environments actually ship: a user override,
// then xdg-open, then gio.
func openFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("file does not exist: %s", path)
	}

	var candidates []openCommand
	if custom := strings.TrimSpace(os.Getenv("SCREENCASTD_OPEN_CMD")); custom != "" {
		candidates = append(candidates, openCommand{program: custom, args: []string{path}})
	}
	candidates = append(candidates,
		openCommand{program: "xdg-open", args: []string{path}},
		openCommand{program: "gio", args: []string{"open", path}},
	)

	for _, c := range candidates {
		err := exec.Command(c.program, c.args...).Start()
		if err == nil {
			return nil
		}
		if errors.Is(err, exec.ErrNotFound) {
			continue
		}
		return fmt.Errorf("failed to run %s: %w", c.program, err)
	}
	return errors.New("could not find a file opener (tried xdg-open and gio)")
}
