package cli

import (
	"errors"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/spf13/cobra"

	"github.com/tiroq/screencastd/internal/ipc"
	"github.com/tiroq/screencastd/internal/version"
)

// LoggerLevel is bound to the persistent --log-level flag.
var LoggerLevel = logger.LevelInfo

// NewRootCmd builds the command tree. Every subcommand except daemon is a
// thin proxy for a bus call.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "screencastd",
		Short:        "Screen recorder daemon for niri",
		Long:         "A session daemon that records a selected screen region with gpu-screen-recorder,\ncontrolled over the D-Bus session bus.",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			l := logger.FromCtx(ctx).WithLevel(LoggerLevel)
			cmd.SetContext(logger.CtxWithLogger(ctx, l))
		},
	}

	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(version.Full() + "\n")
	rootCmd.PersistentFlags().Var(&LoggerLevel, "log-level", "log level (trace, debug, info, warning, error)")

	rootCmd.AddCommand(NewDaemonCmd())
	rootCmd.AddCommand(NewStartCmd())
	rootCmd.AddCommand(NewStopCmd())
	rootCmd.AddCommand(NewToggleCmd())
	rootCmd.AddCommand(NewStatusCmd())

	return rootCmd
}

// describeCallError turns a transport failure into the hint users actually
// need; daemon-side errors pass through as-is.
func describeCallError(err error) error {
	if errors.Is(err, ipc.ErrDaemonUnreachable) {
		return fmt.Errorf("could not connect to the daemon, is it running? (start it with: screencastd daemon)")
	}
	return err
}
