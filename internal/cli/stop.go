package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tiroq/screencastd/internal/ipc"
)

func NewStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the current recording",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ipc.NewClient()
			if err != nil {
				return describeCallError(err)
			}
			defer client.Close()

			if err := client.StopRecording(cmd.Context()); err != nil {
				return describeCallError(err)
			}
			fmt.Println("Recording stopped")
			return nil
		},
	}
}
