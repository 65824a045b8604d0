package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newTranscribeCmd(app *appState) *cobra.Command {
	var model string

	cmd := &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Transcribe an audio file and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			audioPath := filepath.Clean(args[0])
			if _, err := os.Stat(audioPath); err != nil {
				return fmt.Errorf("audio file not found: %w", err)
			}

			svc, err := app.wire()
			if err != nil {
				return err
			}

			f, err := os.Open(audioPath)
			if err != nil {
				return fmt.Errorf("open audio file: %w", err)
			}
			defer f.Close()

			spin := startActivity(cmd.Context(), cmd.ErrOrStderr(), app.progressEnabled(), "Transcribing")
			result, err := svc.transcriber.Handle(cmd.Context(), f, model)
			spin.Stop()
			if err != nil {
				return err
			}

			switch {
			case isFailedTranscript(result.Transcript):
				app.log().Warn("engine produced no transcript; rerun with --verbose for engine output")
			case isBlankTranscript(result.Transcript):
				app.log().Warn(noSpeechHint())
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "Model to use (default: --default-model)")
	return cmd
}
