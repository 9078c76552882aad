// Package session owns the daemon's single recording session: its state
// machine, the serialization of concurrent control requests against it, and
// the lifecycle notifications emitted on its transitions.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/tiroq/screencastd/internal/capture"
	"github.com/tiroq/screencastd/internal/config"
	"github.com/tiroq/screencastd/internal/region"
)

// State is the recording session's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateStarting
	StateRecording
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRecording:
		return "recording"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

var (
	// ErrAlreadyRecording rejects a start while a recording is in flight.
	ErrAlreadyRecording = errors.New("already recording")

	// ErrNotRecording rejects a stop with no recording in flight.
	ErrNotRecording = errors.New("not recording")
)

// Status is a point-in-time read of the session. OutputPath is non-empty
// exactly when Recording is true.
type Status struct {
	Recording  bool
	OutputPath string
	StartedAt  time.Time
}

// Selector picks the screen region to record.
type Selector interface {
	Select(ctx context.Context) (region.Region, error)
}

// Process is the session's view of the supervised capture subprocess.
type Process interface {
	Done() <-chan struct{}
	PollExit() *capture.ExitStatus
}

// Backend launches and stops capture subprocesses.
type Backend interface {
	Launch(ctx context.Context, reg region.Region, cfg config.Config, outputPath string) (Process, error)
	Stop(ctx context.Context, p Process, grace time.Duration) error
}

// ConfigSource hands out the config snapshot a recording start binds to.
type ConfigSource interface {
	Snapshot(ctx context.Context) config.Config
}

// Listener receives lifecycle notifications. Delivery is best-effort and
// ordered after the state transition has been committed; a failing listener
// affects neither other listeners nor the transition.
type Listener interface {
	RecordingStarted(ctx context.Context)
	RecordingStopped(ctx context.Context, outputPath string)
}
