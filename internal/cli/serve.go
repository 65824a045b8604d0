package cli

import (
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/fmueller/voxd/internal/platform"
	"github.com/fmueller/voxd/internal/server"
	"github.com/fmueller/voxd/internal/version"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP transcription API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := app.wire()
			if err != nil {
				return err
			}

			cfg := app.cfg
			if !cfg.Verbose {
				gin.SetMode(gin.ReleaseMode)
			}

			info := version.Current()
			app.log().Info("starting voxd",
				zap.String("version", info.Version),
				zap.String("commit", info.ShortCommit()),
				zap.String("whisper_root", cfg.WhisperRoot),
				zap.String("models_dir", cfg.ModelsDir),
				zap.String("default_model", cfg.DefaultModel),
				zap.String("provisioner", cfg.Provisioner),
				zap.String("staging_dir", cfg.StagingDir),
			)
			app.preflight(svc)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(server.Options{
				Addr:            cfg.Addr,
				ServiceName:     cfg.ServiceName,
				Device:          platform.Describe(),
				MaxUploadBytes:  cfg.MaxUploadBytes,
				ShutdownTimeout: cfg.ShutdownTimeout,
			}, svc.transcriber, app.log())
			return srv.Run(ctx)
		},
	}
}

// preflight warns about missing tools without refusing to start; both may
// appear after startup.
func (a *appState) preflight(svc *services) {
	if _, err := svc.locator.Locate(); err != nil {
		a.log().Warn("transcription engine not found; requests fail until it is built", zap.Error(err))
	}
	if _, err := exec.LookPath(a.cfg.Resampler); err != nil {
		a.log().Warn("resampler not found", zap.String("resampler", a.cfg.Resampler), zap.Error(err))
	}
	if err := os.MkdirAll(svc.staging.Dir(), 0o755); err != nil {
		a.log().Warn("staging directory is not usable", zap.String("dir", svc.staging.Dir()), zap.Error(err))
	}
}
