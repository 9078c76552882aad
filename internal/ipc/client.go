package ipc

import (
	"context"
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
)

// ErrDaemonUnreachable means nobody owns the service name on the bus.
var ErrDaemonUnreachable = errors.New("could not reach the daemon")

// Client is the CLI-side proxy for the recorder service.
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// NewClient connects to the session bus and binds the service proxy.
func NewClient() (*Client, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the session bus: %w", err)
	}
	return &Client{
		conn: conn,
		obj:  conn.Object(BusName, ObjectPath),
	}, nil
}

// Close tears down the bus connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// StartRecording asks the daemon to begin a recording.
func (c *Client) StartRecording(ctx context.Context) error {
	return c.call(ctx, "StartRecording")
}

// StopRecording asks the daemon to end the current recording.
func (c *Client) StopRecording(ctx context.Context) error {
	return c.call(ctx, "StopRecording")
}

// ToggleRecording starts when idle, stops otherwise.
func (c *Client) ToggleRecording(ctx context.Context) error {
	return c.call(ctx, "ToggleRecording")
}

// IsRecording reports whether a recording is in flight.
func (c *Client) IsRecording(ctx context.Context) (bool, error) {
	var recording bool
	call := c.obj.CallWithContext(ctx, InterfaceName+".IsRecording", 0)
	if call.Err != nil {
		return false, classifyCallError(call.Err)
	}
	if err := call.Store(&recording); err != nil {
		return false, err
	}
	return recording, nil
}

// GetCurrentFile returns the active recording's output path, or "" if none.
func (c *Client) GetCurrentFile(ctx context.Context) (string, error) {
	var path string
	call := c.obj.CallWithContext(ctx, InterfaceName+".GetCurrentFile", 0)
	if call.Err != nil {
		return "", classifyCallError(call.Err)
	}
	if err := call.Store(&path); err != nil {
		return "", err
	}
	return path, nil
}

func (c *Client) call(ctx context.Context, method string) error {
	call := c.obj.CallWithContext(ctx, InterfaceName+"."+method, 0)
	if call.Err != nil {
		return classifyCallError(call.Err)
	}
	return nil
}

// classifyCallError keeps a "daemon not running" transport failure apart
// from an error the daemon itself returned.
func classifyCallError(err error) error {
	var dbusErr dbus.Error
	if errors.As(err, &dbusErr) {
		switch dbusErr.Name {
		case "org.freedesktop.DBus.Error.ServiceUnknown",
			"org.freedesktop.DBus.Error.NoReply",
			"org.freedesktop.DBus.Error.Disconnected":
			return fmt.Errorf("%w: %v", ErrDaemonUnreachable, err)
		case ErrNameAlreadyRecording:
			return errors.New("already recording")
		case ErrNameNotRecording:
			return errors.New("no recording in progress")
		case ErrNameLaunchFailed:
			return fmt.Errorf("failed to start recording: %s", bodyMessage(dbusErr))
		}
	}
	return err
}

func bodyMessage(err dbus.Error) string {
	if len(err.Body) > 0 {
		if s, ok := err.Body[0].(string); ok {
			return s
		}
	}
	return err.Name
}
