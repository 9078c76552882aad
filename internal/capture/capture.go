// Package capture launches and supervises the external screen-capture
// subprocess. The process handle it returns is owned exclusively by the
// recording session; nobody else signals or waits on it.
package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"

	"github.com/tiroq/screencastd/internal/config"
	"github.com/tiroq/screencastd/internal/region"
)

var (
	// ErrExecutableMissing means the capture tool is not installed.
	ErrExecutableMissing = errors.New("capture executable not found")

	// ErrPermissionDenied means the capture tool exists but cannot be run.
	ErrPermissionDenied = errors.New("capture executable not permitted")

	// ErrSpawnFailed covers any other launch failure.
	ErrSpawnFailed = errors.New("failed to spawn capture process")

	// ErrNotStarted is returned by Stop for a handle without a live process.
	ErrNotStarted = errors.New("capture process was never started")
)

// ExitStatus describes how the capture process ended.
type ExitStatus struct {
	Code     int
	ExitedAt time.Time
}

// Handle is the supervised capture process. The process is reaped exactly
// once, by the wait goroutine started at launch.
type Handle struct {
	cmd  *exec.Cmd
	done chan struct{}

	mu     sync.Mutex
	status *ExitStatus
}

// Done is closed once the process has exited and been reaped.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// PollExit reports the exit status without blocking; nil while the process
// is still running.
func (h *Handle) PollExit() *ExitStatus {
	select {
	case <-h.done:
	default:
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

// Supervisor builds capture command lines and manages the process lifecycle.
type Supervisor struct{}

// BuildArgs assembles the capture tool's argument list from the region and
// the config snapshot. Region flags are omitted for full-output capture,
// and the codec flag is omitted for "auto".
func BuildArgs(reg region.Region, cfg config.Config, outputPath string) []string {
	var args []string
	if !reg.Full {
		args = append(args, "-w", reg.Geometry())
	}
	args = append(args,
		"-c", string(cfg.Container),
		"-f", strconv.Itoa(cfg.FPS),
	)
	if cfg.Codec != config.CodecAuto {
		args = append(args, "-k", string(cfg.Codec))
	}
	args = append(args, "-o", outputPath)
	return args
}

// Launch spawns the capture subprocess and returns its handle.
func (s *Supervisor) Launch(ctx context.Context, reg region.Region, cfg config.Config, outputPath string) (*Handle, error) {
	args := BuildArgs(reg, cfg, outputPath)
	logger.Debugf(ctx, "launching %s %v", cfg.CaptureCmd, args)

	cmd := exec.Command(cfg.CaptureCmd, args...)
	if err := cmd.Start(); err != nil {
		return nil, classifyLaunchError(err)
	}

	h := &Handle{
		cmd:  cmd,
		done: make(chan struct{}),
	}
	go h.reap()

	logger.Infof(ctx, "capture process started (pid=%d)", cmd.Process.Pid)
	return h, nil
}

// reap waits for the process exactly once and publishes the exit status.
func (h *Handle) reap() {
	err := h.cmd.Wait()
	status := &ExitStatus{Code: 0, ExitedAt: time.Now()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			status.Code = exitErr.ExitCode()
		} else {
			status.Code = -1
		}
	}
	h.mu.Lock()
	h.status = status
	h.mu.Unlock()
	close(h.done)
}

// Stop asks the capture process to finish gracefully so the encoder can
// flush, waiting up to grace before escalating to SIGKILL. The escalation
// is logged as a degraded stop but does not fail the call.
func (s *Supervisor) Stop(ctx context.Context, h *Handle, grace time.Duration) error {
	if h == nil || h.cmd.Process == nil {
		return ErrNotStarted
	}

	select {
	case <-h.done:
		// Already gone; nothing to signal.
		return nil
	default:
	}

	if err := h.cmd.Process.Signal(syscall.SIGINT); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			<-h.done
			return nil
		}
		return fmt.Errorf("failed to send SIGINT: %w", err)
	}

	select {
	case <-h.done:
		return nil
	case <-time.After(grace):
	}

	logger.Warnf(ctx, "capture process did not exit within %s, escalating to SIGKILL", grace)
	if err := h.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to kill capture process: %w", err)
	}
	<-h.done
	return nil
}

func classifyLaunchError(err error) error {
	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("%w: %v", ErrExecutableMissing, err)
	case errors.Is(err, os.ErrPermission):
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	default:
		return fmt.Errorf("%w: %v", ErrSpawnFailed, err)
	}
}
