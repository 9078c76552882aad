package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/godbus/dbus/v5"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"github.com/xaionaro-go/observability"

	"github.com/tiroq/screencastd/internal/capture"
	"github.com/tiroq/screencastd/internal/config"
	"github.com/tiroq/screencastd/internal/ipc"
	"github.com/tiroq/screencastd/internal/notify"
	"github.com/tiroq/screencastd/internal/pidfile"
	"github.com/tiroq/screencastd/internal/region"
	"github.com/tiroq/screencastd/internal/session"
	"github.com/tiroq/screencastd/internal/version"
)

func NewDaemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the recording service",
		Long:  "Run the daemon that owns the recording session and serves bus requests.\nSIGINT/SIGTERM stop any active recording before exit.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd.Context())
		},
	}
}

func runDaemon(ctx context.Context) error {
	logger.Infof(ctx, "starting screencastd %s (pid=%d)", version.Version, os.Getpid())

	pf, err := pidfile.New(pidfile.Path())
	if err != nil {
		return err
	}
	defer func() {
		if err := pf.Remove(); err != nil {
			logger.Warnf(ctx, "failed to remove PID file: %v", err)
		}
	}()

	provider, err := config.NewProvider()
	if err != nil {
		return err
	}
	cfg := provider.Snapshot(ctx)
	logger.Infof(ctx, "config resolved (fps=%d container=%s codec=%s output_dir=%s)",
		cfg.FPS, cfg.Container, cfg.Codec, cfg.OutputDir)

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to the session bus: %w", err)
	}

	notifier := notify.New(conn)
	mgr := session.NewManager(
		provider,
		&dynamicSelector{provider: provider},
		session.NewCaptureAdapter(&capture.Supervisor{}),
	)
	mgr.Subscribe(notifier)

	srv, err := ipc.NewServer(ctx, conn, mgr, notifier)
	if err != nil {
		_ = conn.Close()
		return err
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	observability.Go(ctx, func(ctx context.Context) {
		if err := provider.Watch(ctx); err != nil {
			logger.Warnf(ctx, "config watch stopped: %v", err)
		}
	})

	logger.Infof(ctx, "daemon is running, waiting for requests")
	<-ctx.Done()
	logger.Infof(ctx, "shutdown signal received")

	// Cleanup must not be cut short by the cancelled signal context.
	shutdownCtx := context.WithoutCancel(ctx)

	var result *multierror.Error
	if err := mgr.Shutdown(shutdownCtx); err != nil {
		result = multierror.Append(result, fmt.Errorf("failed to stop active recording: %w", err))
	}
	if err := srv.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("failed to release bus name: %w", err))
	}
	if err := conn.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("failed to close bus connection: %w", err))
	}
	return result.ErrorOrNil()
}

// dynamicSelector resolves the selector command from the live config, so a
// hot-reloaded selector_cmd takes effect on the next start.
type dynamicSelector struct {
	provider *config.Provider
}

func (s *dynamicSelector) Select(ctx context.Context) (region.Region, error) {
	sel := &region.Selector{Cmd: s.provider.Snapshot(ctx).SelectorCmd}
	return sel.Select(ctx)
}
