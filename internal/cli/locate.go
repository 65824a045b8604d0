package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLocateCmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "locate",
		Short: "Print the transcription engine executable that requests would use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := app.wire()
			if err != nil {
				return err
			}

			path, err := svc.locator.Locate()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}
