// Package provision makes sure the ggml artifact for a requested model is on
// local disk, building it on first use.
package provision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fmueller/voxd/internal/catalog"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Artifact is a model file resolved on local storage.
type Artifact struct {
	Name     string
	FileName string
	Path     string
}

// Provisioner resolves model names to artifacts in Dir. Presence checks and
// builds of the same model run in one flight keyed by model name, so a
// caller never sees the file of a build that is still writing it and
// concurrent callers share one build and its outcome.
type Provisioner struct {
	catalog *catalog.Catalog
	dir     string
	builder Builder
	logger  *zap.Logger
	flights singleflight.Group
}

func New(cat *catalog.Catalog, dir string, builder Builder, logger *zap.Logger) *Provisioner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provisioner{
		catalog: cat,
		dir:     filepath.Clean(dir),
		builder: builder,
		logger:  logger.Named("provision"),
	}
}

// Artifact returns where the artifact for name lives, without touching disk.
func (p *Provisioner) Artifact(name string) Artifact {
	model, _ := p.catalog.Model(name)
	return p.artifact(model)
}

// EnsureAvailable returns the artifact for name, building it if it is not
// on disk yet. Unknown names are substituted with the catalog default.
func (p *Provisioner) EnsureAvailable(ctx context.Context, name string) (Artifact, error) {
	model, defaulted := p.catalog.Model(name)
	if defaulted && strings.TrimSpace(name) != "" {
		p.logger.Warn("unknown model requested; using default", zap.String("requested", name), zap.String("using", model.Name))
	}

	artifact := p.artifact(model)

	// The build outlives a caller that gives up so other waiters still get it.
	buildCtx := context.WithoutCancel(ctx)
	ch := p.flights.DoChan(model.Name, func() (any, error) {
		return nil, p.ensure(buildCtx, model, artifact)
	})

	select {
	case <-ctx.Done():
		return Artifact{}, fmt.Errorf("wait for model %q: %w", model.Name, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return Artifact{}, res.Err
		}
		return artifact, nil
	}
}

// ensure runs inside the model's flight; no build of the same model can be
// writing the artifact while it checks for it.
func (p *Provisioner) ensure(ctx context.Context, model catalog.Model, artifact Artifact) error {
	if present, err := artifactPresent(artifact.Path); err != nil {
		return &Error{Model: model.Name, Path: artifact.Path, Reason: ReasonStorage, Err: err}
	} else if present {
		p.logger.Debug("model present", zap.String("model", model.Name), zap.String("path", artifact.Path))
		return nil
	}

	p.logger.Info("model not found; building", zap.String("model", model.Name), zap.String("path", artifact.Path))
	diagnostics, err := p.builder.Build(ctx, model, artifact.Path)
	if err != nil {
		p.logger.Error("model build failed", zap.String("model", model.Name), zap.String("diagnostics", diagnostics), zap.Error(err))
		return &Error{Model: model.Name, Path: artifact.Path, Reason: ReasonBuildFailed, Diagnostics: diagnostics, Err: err}
	}

	present, err := artifactPresent(artifact.Path)
	if err != nil {
		return &Error{Model: model.Name, Path: artifact.Path, Reason: ReasonStorage, Err: err}
	}
	if !present {
		p.logger.Error("model still missing after build", zap.String("model", model.Name), zap.String("path", artifact.Path))
		return &Error{
			Model:       model.Name,
			Path:        artifact.Path,
			Reason:      ReasonArtifactMissingAfterBuild,
			Diagnostics: diagnostics,
			Err:         fmt.Errorf("%s not found after build", artifact.FileName),
		}
	}

	p.logger.Info("model built", zap.String("model", model.Name), zap.String("path", artifact.Path))
	return nil
}

func (p *Provisioner) artifact(model catalog.Model) Artifact {
	return Artifact{
		Name:     model.Name,
		FileName: model.FileName,
		Path:     filepath.Join(p.dir, model.FileName),
	}
}

func artifactPresent(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat model path: %w", err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("%s is a directory", path)
	}
	return true, nil
}
