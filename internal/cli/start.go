package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tiroq/screencastd/internal/ipc"
)

// NewStartCmd starts a recording. Region selection happens on the daemon's
// side; a cancelled selection is a successful no-op.
func NewStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start a recording",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ipc.NewClient()
			if err != nil {
				return describeCallError(err)
			}
			defer client.Close()

			if err := client.StartRecording(cmd.Context()); err != nil {
				return describeCallError(err)
			}
			fmt.Println("Recording started")
			return nil
		},
	}
}
