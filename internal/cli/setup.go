package cli

import (
	"fmt"

	"github.com/fmueller/voxd/internal/catalog"
	"github.com/fmueller/voxd/internal/download"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSetupCmd(app *appState) *cobra.Command {
	var (
		model  string
		verify bool
	)

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Provision a model before the first request needs it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := app.wire()
			if err != nil {
				return err
			}

			name := svc.catalog.Effective(model)
			spin := startActivity(cmd.Context(), cmd.ErrOrStderr(), app.progressEnabled(), "Provisioning "+name)
			artifact, err := svc.provisioner.EnsureAvailable(cmd.Context(), model)
			spin.Stop()
			if err != nil {
				return err
			}

			if entry, ok := catalog.Lookup(artifact.Name); verify && ok && entry.SHA256 != "" {
				if err := download.VerifyFileChecksum(artifact.Path, entry.SHA256); err != nil {
					return fmt.Errorf("model %s at %s failed verification; remove it and run setup again: %w", artifact.Name, artifact.Path, err)
				}
				app.log().Info("model checksum verified", zap.String("model", artifact.Name))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Model %s available at %s\n", artifact.Name, artifact.Path)
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "Model to provision (default: --default-model)")
	cmd.Flags().BoolVar(&verify, "verify", true, "Verify the SHA-256 of models with a pinned checksum")
	return cmd
}
