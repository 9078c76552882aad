package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/xsync"

	"github.com/tiroq/screencastd/internal/fileutil"
	"github.com/tiroq/screencastd/internal/region"
)

// fileAppearTimeout bounds how long a stop waits for the capture tool to
// finalize the container on disk.
const fileAppearTimeout = 2 * time.Second

// Manager is the single mutation point for the recording session. All state
// transitions go through its locker; the slow phases (interactive region
// selection, subprocess launch, graceful stop) run outside the lock between
// a transition and its commit.
type Manager struct {
	cfg      ConfigSource
	selector Selector
	backend  Backend

	locker     xsync.Mutex
	state      State
	outputPath string
	reg        region.Region
	startedAt  time.Time
	proc       Process
	stopGrace  time.Duration
	epoch      uint64

	listenersMu sync.Mutex
	listeners   []Listener
}

// NewManager creates an idle session manager. A restarted daemon always
// begins Idle; orphaned capture processes from a prior run are not
// rediscovered (known limitation).
func NewManager(cfg ConfigSource, selector Selector, backend Backend) *Manager {
	return &Manager{
		cfg:      cfg,
		selector: selector,
		backend:  backend,
	}
}

// Subscribe registers a lifecycle listener.
func (m *Manager) Subscribe(l Listener) {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()
	m.listeners = append(m.listeners, l)
}

// Start begins a new recording. Returns ErrAlreadyRecording unless the
// session is Idle. Selection cancellation and a missing selector roll the
// session back to Idle and surface the respective region error.
func (m *Manager) Start(ctx context.Context) error {
	if err := xsync.DoR1(ctx, &m.locker, func() error {
		if m.state != StateIdle {
			return ErrAlreadyRecording
		}
		m.state = StateStarting
		return nil
	}); err != nil {
		return err
	}
	return m.performStart(ctx)
}

// performStart runs the slow start phase. The session is already Starting;
// every exit path either commits Recording or rolls back to Idle.
func (m *Manager) performStart(ctx context.Context) error {
	cfg := m.cfg.Snapshot(ctx)

	reg := region.FullOutput
	if !cfg.FullOutput {
		var err error
		reg, err = m.selector.Select(ctx)
		if err != nil {
			m.rollbackToIdle(ctx)
			if errors.Is(err, region.ErrCancelled) {
				logger.Infof(ctx, "region selection cancelled, not starting")
			}
			return err
		}
	}

	outputPath, err := fileutil.NewRecordingPath(cfg.OutputDir, cfg.Extension(), time.Now())
	if err != nil {
		m.rollbackToIdle(ctx)
		return err
	}

	// The path belongs to the session for the rest of the Starting phase.
	m.locker.Do(ctx, func() {
		m.outputPath = outputPath
		m.reg = reg
	})

	proc, err := m.backend.Launch(ctx, reg, cfg, outputPath)
	if err != nil {
		m.rollbackToIdle(ctx)
		return err
	}

	var epoch uint64
	m.locker.Do(ctx, func() {
		m.state = StateRecording
		m.proc = proc
		m.startedAt = time.Now()
		m.stopGrace = cfg.StopGrace
		m.epoch++
		epoch = m.epoch
	})
	logger.Infof(ctx, "recording started: %s (region: %s)", outputPath, reg)

	m.notifyStarted(ctx)
	observability.Go(ctx, func(ctx context.Context) {
		m.watch(ctx, proc, epoch)
	})
	return nil
}

// Stop ends the current recording. Returns ErrNotRecording unless the
// session is Recording.
func (m *Manager) Stop(ctx context.Context) error {
	var proc Process
	var path string
	var grace time.Duration
	if err := xsync.DoR1(ctx, &m.locker, func() error {
		if m.state != StateRecording {
			return ErrNotRecording
		}
		m.state = StateStopping
		proc = m.proc
		path = m.outputPath
		grace = m.stopGrace
		return nil
	}); err != nil {
		return err
	}
	return m.performStop(ctx, proc, path, grace)
}

func (m *Manager) performStop(ctx context.Context, proc Process, path string, grace time.Duration) error {
	if err := m.backend.Stop(ctx, proc, grace); err != nil {
		logger.Errorf(ctx, "failed to stop capture process: %v", err)
	}
	if !fileutil.WaitForFile(path, fileAppearTimeout) {
		logger.Warnf(ctx, "recording file did not appear on disk: %s", path)
	}

	m.locker.Do(ctx, func() {
		m.state = StateIdle
		m.proc = nil
		m.outputPath = ""
		m.startedAt = time.Time{}
	})
	logger.Infof(ctx, "recording stopped: %s", path)

	m.notifyStopped(ctx, path)
	return nil
}

// Toggle starts when Idle and stops otherwise. The decision and its state
// transition happen under a single lock acquisition, so two concurrent
// toggles cannot both begin a start.
func (m *Manager) Toggle(ctx context.Context) error {
	const (
		opStart = iota
		opStop
	)
	var op int
	var proc Process
	var path string
	var grace time.Duration
	if err := xsync.DoR1(ctx, &m.locker, func() error {
		switch m.state {
		case StateIdle:
			m.state = StateStarting
			op = opStart
			return nil
		case StateRecording:
			m.state = StateStopping
			proc = m.proc
			path = m.outputPath
			grace = m.stopGrace
			op = opStop
			return nil
		default:
			// A start or stop is already in flight.
			return ErrNotRecording
		}
	}); err != nil {
		return err
	}

	if op == opStart {
		return m.performStart(ctx)
	}
	return m.performStop(ctx, proc, path, grace)
}

// Status is a pure read; it never blocks on subprocess I/O.
func (m *Manager) Status(ctx context.Context) Status {
	return xsync.DoR1(ctx, &m.locker, func() Status {
		if m.state == StateRecording || m.state == StateStopping {
			return Status{
				Recording:  true,
				OutputPath: m.outputPath,
				StartedAt:  m.startedAt,
			}
		}
		return Status{}
	})
}

// Shutdown stops any active recording before the daemon exits, so the
// capture process is reaped through the session rather than abandoned to
// the OS.
func (m *Manager) Shutdown(ctx context.Context) error {
	err := m.Stop(ctx)
	if errors.Is(err, ErrNotRecording) {
		return nil
	}
	return err
}

// watch drives the Recording -> Idle transition when the capture process
// exits on its own. The epoch guard keeps a stale watcher from touching a
// newer session.
func (m *Manager) watch(ctx context.Context, proc Process, epoch uint64) {
	select {
	case <-ctx.Done():
		return
	case <-proc.Done():
	}

	var path string
	ended := false
	m.locker.Do(ctx, func() {
		if m.epoch != epoch || m.state != StateRecording {
			return
		}
		path = m.outputPath
		m.state = StateIdle
		m.proc = nil
		m.outputPath = ""
		m.startedAt = time.Time{}
		ended = true
	})
	if !ended {
		return
	}

	code := -1
	if st := proc.PollExit(); st != nil {
		code = st.Code
	}
	logger.Warnf(ctx, "capture process exited on its own (code=%d), recording ended: %s", code, path)
	m.notifyStopped(ctx, path)
}

func (m *Manager) rollbackToIdle(ctx context.Context) {
	m.locker.Do(ctx, func() {
		m.state = StateIdle
		m.outputPath = ""
		m.reg = region.Region{}
	})
}

func (m *Manager) snapshotListeners() []Listener {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()
	out := make([]Listener, len(m.listeners))
	copy(out, m.listeners)
	return out
}

func (m *Manager) notifyStarted(ctx context.Context) {
	for _, l := range m.snapshotListeners() {
		deliver(ctx, func() { l.RecordingStarted(ctx) })
	}
}

func (m *Manager) notifyStopped(ctx context.Context, path string) {
	for _, l := range m.snapshotListeners() {
		deliver(ctx, func() { l.RecordingStopped(ctx, path) })
	}
}

// deliver shields the state machine (and the remaining listeners) from a
// misbehaving listener.
func deliver(ctx context.Context, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf(ctx, "lifecycle listener panicked: %v", r)
		}
	}()
	fn()
}
