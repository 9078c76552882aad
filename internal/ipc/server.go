package ipc

import (
	"context"
	"errors"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/tiroq/screencastd/internal/capture"
	"github.com/tiroq/screencastd/internal/region"
	"github.com/tiroq/screencastd/internal/session"
)

// ErrorReporter surfaces start failures to the desktop. Optional.
type ErrorReporter interface {
	Error(ctx context.Context, message string)
}

// Server exposes the session manager's operations on the session bus and
// re-broadcasts its lifecycle transitions as bus signals.
type Server struct {
	conn     *dbus.Conn
	mgr      *session.Manager
	reporter ErrorReporter
}

// NewServer exports the recorder interface on conn and claims the service
// name. The reporter may be nil. The server subscribes itself to the
// manager, so signals fire for every transition, client-driven or not.
func NewServer(ctx context.Context, conn *dbus.Conn, mgr *session.Manager, reporter ErrorReporter) (*Server, error) {
	srv := &Server{
		conn:     conn,
		mgr:      mgr,
		reporter: reporter,
	}

	h := &handler{ctx: ctx, srv: srv}
	if err := conn.Export(h, ObjectPath, InterfaceName); err != nil {
		return nil, fmt.Errorf("failed to export recorder interface: %w", err)
	}
	if err := conn.Export(introspect.NewIntrospectable(introspectionNode()), ObjectPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return nil, fmt.Errorf("failed to export introspection: %w", err)
	}

	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return nil, fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return nil, fmt.Errorf("bus name %s is taken, is another daemon running?", BusName)
	}

	mgr.Subscribe(srv)
	logger.Infof(ctx, "service registered on the session bus as %s", BusName)
	return srv, nil
}

// Close gives up the service name. The bus connection itself belongs to the
// caller.
func (s *Server) Close() error {
	_, err := s.conn.ReleaseName(BusName)
	return err
}

// RecordingStarted implements session.Listener.
func (s *Server) RecordingStarted(ctx context.Context) {
	if err := s.conn.Emit(ObjectPath, SignalRecordingStarted); err != nil {
		logger.Warnf(ctx, "failed to emit RecordingStarted: %v", err)
	}
}

// RecordingStopped implements session.Listener.
func (s *Server) RecordingStopped(ctx context.Context, outputPath string) {
	if err := s.conn.Emit(ObjectPath, SignalRecordingStopped, outputPath); err != nil {
		logger.Warnf(ctx, "failed to emit RecordingStopped: %v", err)
	}
}

// handler carries the exported method set. godbus requires exported methods
// returning *dbus.Error, so the session errors are mapped here.
type handler struct {
	ctx context.Context
	srv *Server
}

func (h *handler) StartRecording() *dbus.Error {
	err := h.srv.mgr.Start(h.ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, region.ErrCancelled):
		// An aborted start, not a failed call.
		return nil
	case errors.Is(err, region.ErrToolMissing):
		logger.Errorf(h.ctx, "region selector missing: %v", err)
		h.report("Region selection tool is not installed")
		return nil
	case errors.Is(err, session.ErrAlreadyRecording):
		return dbus.NewError(ErrNameAlreadyRecording, []interface{}{err.Error()})
	default:
		logger.Errorf(h.ctx, "failed to start recording: %v", err)
		h.report(launchFailureMessage(err))
		return dbus.NewError(ErrNameLaunchFailed, []interface{}{err.Error()})
	}
}

func (h *handler) StopRecording() *dbus.Error {
	if err := h.srv.mgr.Stop(h.ctx); err != nil {
		return dbus.NewError(ErrNameNotRecording, []interface{}{err.Error()})
	}
	return nil
}

func (h *handler) ToggleRecording() *dbus.Error {
	err := h.srv.mgr.Toggle(h.ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, region.ErrCancelled):
		return nil
	case errors.Is(err, region.ErrToolMissing):
		logger.Errorf(h.ctx, "region selector missing: %v", err)
		h.report("Region selection tool is not installed")
		return nil
	case errors.Is(err, session.ErrAlreadyRecording):
		return dbus.NewError(ErrNameAlreadyRecording, []interface{}{err.Error()})
	case errors.Is(err, session.ErrNotRecording):
		return dbus.NewError(ErrNameNotRecording, []interface{}{err.Error()})
	default:
		logger.Errorf(h.ctx, "failed to toggle recording: %v", err)
		h.report(launchFailureMessage(err))
		return dbus.NewError(ErrNameLaunchFailed, []interface{}{err.Error()})
	}
}

func (h *handler) IsRecording() (bool, *dbus.Error) {
	return h.srv.mgr.Status(h.ctx).Recording, nil
}

func (h *handler) GetCurrentFile() (string, *dbus.Error) {
	return h.srv.mgr.Status(h.ctx).OutputPath, nil
}

func (h *handler) report(message string) {
	if h.srv.reporter != nil {
		h.srv.reporter.Error(h.ctx, message)
	}
}

func launchFailureMessage(err error) string {
	switch {
	case errors.Is(err, capture.ErrExecutableMissing):
		return "Capture tool is not installed"
	case errors.Is(err, capture.ErrPermissionDenied):
		return "Capture tool could not be executed (permission denied)"
	default:
		return "Failed to start the capture process"
	}
}

func introspectionNode() *introspect.Node {
	return &introspect.Node{
		Name: ObjectPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name: InterfaceName,
				Methods: []introspect.Method{
					{Name: "StartRecording"},
					{Name: "StopRecording"},
					{Name: "ToggleRecording"},
					{Name: "IsRecording", Args: []introspect.Arg{
						{Name: "recording", Type: "b", Direction: "out"},
					}},
					{Name: "GetCurrentFile", Args: []introspect.Arg{
						{Name: "file_path", Type: "s", Direction: "out"},
					}},
				},
				Signals: []introspect.Signal{
					{Name: "RecordingStarted"},
					{Name: "RecordingStopped", Args: []introspect.Arg{
						{Name: "file_path", Type: "s"},
					}},
				},
			},
		},
	}
}
