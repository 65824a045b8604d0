package cli

import (
	"fmt"
	"path/filepath"

	"github.com/fmueller/voxd/internal/catalog"
	"github.com/fmueller/voxd/internal/config"
	"github.com/fmueller/voxd/internal/engine"
	"github.com/fmueller/voxd/internal/provision"
	"github.com/fmueller/voxd/internal/staging"
	"github.com/fmueller/voxd/internal/transcribe"
	"github.com/fmueller/voxd/internal/whisper"
	"go.uber.org/zap"
)

const downloadRetries = 3

type services struct {
	catalog     *catalog.Catalog
	provisioner *provision.Provisioner
	locator     *engine.Locator
	staging     *staging.Area
	transcriber *transcribe.Service
}

func (a *appState) wire() (*services, error) {
	cfg := a.cfg
	logger := a.log()

	cat, err := catalog.New(cfg.DefaultModel)
	if err != nil {
		return nil, err
	}

	builder, err := a.builder()
	if err != nil {
		return nil, err
	}

	provisioner := provision.New(cat, cfg.ModelsDir, builder, logger)
	locator := &engine.Locator{
		Canonical:  cfg.EnginePath,
		SearchRoot: cfg.EngineSearchRoot,
		Name:       cfg.EngineName,
		Logger:     logger,
	}
	area := staging.New(staging.Options{
		Dir:       cfg.StagingDir,
		Resampler: cfg.Resampler,
		Timeout:   cfg.ProcessTimeout,
	}, logger)
	invoker := whisper.NewInvoker(cfg.ProcessTimeout, logger)

	return &services{
		catalog:     cat,
		provisioner: provisioner,
		locator:     locator,
		staging:     area,
		transcriber: transcribe.New(area, provisioner, locator, invoker, logger),
	}, nil
}

func (a *appState) builder() (provision.Builder, error) {
	cfg := a.cfg

	switch cfg.Provisioner {
	case config.ProvisionerMake:
		if filepath.Clean(cfg.ModelsDir) != filepath.Join(cfg.WhisperRoot, "models") {
			a.log().Warn("make provisioning writes into <whisper-root>/models; models-dir points elsewhere",
				zap.String("whisper_root", cfg.WhisperRoot),
				zap.String("models_dir", cfg.ModelsDir),
			)
		}
		return provision.MakeBuilder{Tool: cfg.BuildTool, Dir: cfg.WhisperRoot, Timeout: cfg.BuildTimeout}, nil
	case config.ProvisionerDownload:
		return provision.DownloadBuilder{Retries: downloadRetries, NoProgress: cfg.NoProgress, Logger: a.log()}, nil
	default:
		return nil, fmt.Errorf("unknown provisioner %q", cfg.Provisioner)
	}
}
