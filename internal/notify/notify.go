// Package notify delivers desktop notifications through the freedesktop
// Notifications service, with actions to copy or open a finished recording.
// Everything here is best-effort: a notification failure never affects the
// recording session.
package notify

import (
	"context"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/godbus/dbus/v5"
	"github.com/xaionaro-go/observability"
)

const (
	notifService = "org.freedesktop.Notifications"
	notifPath    = "/org/freedesktop/Notifications"
	notifIface   = "org.freedesktop.Notifications"

	appName       = "screencastd"
	expireMillis  = 5000
	actionWindow  = 6 * time.Second
	actionCopy    = "copy-path"
	actionOpen    = "open-file"
)

// Notifier sends desktop notifications over the session bus. It implements
// session.Listener.
type Notifier struct {
	conn *dbus.Conn
}

// New wraps an existing session bus connection.
func New(conn *dbus.Conn) *Notifier {
	return &Notifier{conn: conn}
}

// RecordingStarted implements session.Listener. Start is already visible to
// the user (the capture tool's own indicator), so no notification is sent.
func (n *Notifier) RecordingStarted(ctx context.Context) {}

// RecordingStopped implements session.Listener: shows a "saved" notification
// with copy-path and open-file actions and listens for an invoked action
// within a bounded window.
func (n *Notifier) RecordingStopped(ctx context.Context, outputPath string) {
	actions := []string{actionCopy, "Copy Path", actionOpen, "Open File"}
	id, err := n.send(ctx, "video-x-generic", "Recording Saved", "Saved to: "+outputPath, actions)
	if err != nil {
		logger.Warnf(ctx, "failed to send recording-saved notification: %v", err)
		return
	}
	observability.Go(ctx, func(ctx context.Context) {
		n.listenForAction(ctx, id, outputPath)
	})
}

// Error shows an error notification.
func (n *Notifier) Error(ctx context.Context, message string) {
	if _, err := n.send(ctx, "dialog-error", "Screen Recorder Error", message, nil); err != nil {
		logger.Warnf(ctx, "failed to send error notification: %v", err)
	}
}

func (n *Notifier) send(ctx context.Context, icon, summary, body string, actions []string) (uint32, error) {
	if actions == nil {
		actions = []string{}
	}
	obj := n.conn.Object(notifService, notifPath)
	call := obj.CallWithContext(ctx, notifIface+".Notify", 0,
		appName,
		uint32(0),
		icon,
		summary,
		body,
		actions,
		map[string]dbus.Variant{},
		int32(expireMillis),
	)
	if call.Err != nil {
		return 0, call.Err
	}
	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// listenForAction waits for an ActionInvoked signal matching the
// notification id, for at most the action window.
func (n *Notifier) listenForAction(ctx context.Context, id uint32, outputPath string) {
	opts := []dbus.MatchOption{
		dbus.WithMatchInterface(notifIface),
		dbus.WithMatchMember("ActionInvoked"),
	}
	if err := n.conn.AddMatchSignalContext(ctx, opts...); err != nil {
		logger.Warnf(ctx, "failed to subscribe to notification actions: %v", err)
		return
	}
	defer func() {
		if err := n.conn.RemoveMatchSignal(opts...); err != nil {
			logger.Debugf(ctx, "failed to unsubscribe from notification actions: %v", err)
		}
	}()

	ch := make(chan *dbus.Signal, 8)
	n.conn.Signal(ch)
	defer n.conn.RemoveSignal(ch)

	deadline := time.NewTimer(actionWindow)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			return
		case sig, ok := <-ch:
			if !ok {
				return
			}
			sigID, key, ok := parseActionInvoked(sig)
			if !ok || sigID != id {
				continue
			}
			n.handleAction(ctx, key, outputPath)
			return
		}
	}
}

func parseActionInvoked(sig *dbus.Signal) (uint32, string, bool) {
	if sig.Name != notifIface+".ActionInvoked" || len(sig.Body) < 2 {
		return 0, "", false
	}
	id, ok := sig.Body[0].(uint32)
	if !ok {
		return 0, "", false
	}
	key, ok := sig.Body[1].(string)
	if !ok {
		return 0, "", false
	}
	return id, key, true
}

func (n *Notifier) handleAction(ctx context.Context, key, outputPath string) {
	switch key {
	case actionCopy:
		if err := copyToClipboard(outputPath); err != nil {
			logger.Errorf(ctx, "failed to copy path to clipboard: %v", err)
			return
		}
		logger.Infof(ctx, "copied path to clipboard: %s", outputPath)
	case actionOpen:
		if err := openFile(outputPath); err != nil {
			logger.Errorf(ctx, "failed to open file: %v", err)
			return
		}
		logger.Infof(ctx, "opened file: %s", outputPath)
	default:
		logger.Warnf(ctx, "unknown notification action: %s", key)
	}
}
