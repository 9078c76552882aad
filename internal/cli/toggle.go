package cli

import (
	"github.com/spf13/cobra"

	"github.com/tiroq/screencastd/internal/ipc"
)

func NewToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle",
		Short: "Toggle recording on/off",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ipc.NewClient()
			if err != nil {
				return describeCallError(err)
			}
			defer client.Close()

			if err := client.ToggleRecording(cmd.Context()); err != nil {
				return describeCallError(err)
			}
			return nil
		},
	}
}
