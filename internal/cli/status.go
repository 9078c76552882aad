package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tiroq/screencastd/internal/ipc"
)

func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show recording status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ipc.NewClient()
			if err != nil {
				return describeCallError(err)
			}
			defer client.Close()

			ctx := cmd.Context()
			recording, err := client.IsRecording(ctx)
			if err != nil {
				return describeCallError(err)
			}
			if !recording {
				fmt.Println("Recording: no")
				return nil
			}

			file, err := client.GetCurrentFile(ctx)
			if err != nil {
				return describeCallError(err)
			}
			fmt.Println("Recording: yes")
			fmt.Println("File:", file)
			return nil
		},
	}
}
