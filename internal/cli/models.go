package cli

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newModelsCmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List known models and whether they are provisioned",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := app.wire()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tFILE\tSTATUS\tDEFAULT")
			for _, name := range svc.catalog.Names() {
				artifact := svc.provisioner.Artifact(name)
				status := "present"
				if _, err := os.Stat(artifact.Path); errors.Is(err, os.ErrNotExist) {
					status = "missing"
				} else if err != nil {
					status = "unreadable"
				}
				marker := ""
				if name == svc.catalog.Default().Name {
					marker = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, artifact.FileName, status, marker)
			}
			return w.Flush()
		},
	}
}
