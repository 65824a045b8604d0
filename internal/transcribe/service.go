// Package transcribe runs one transcription request from upload to result
// and guarantees the staged files are gone when it returns.
package transcribe

import (
	"context"
	"errors"
	"io"

	"github.com/fmueller/voxd/internal/provision"
	"github.com/fmueller/voxd/internal/staging"
	"github.com/fmueller/voxd/internal/whisper"
	"go.uber.org/zap"
)

type Stager interface {
	Stage(r io.Reader) (*staging.Audio, error)
	Resample(ctx context.Context, audio *staging.Audio) error
	Release(audio *staging.Audio)
}

type ModelProvider interface {
	EnsureAvailable(ctx context.Context, name string) (provision.Artifact, error)
}

type EngineLocator interface {
	Locate() (string, error)
}

type Engine interface {
	Run(ctx context.Context, executable, modelPath, inputPath string) (whisper.Result, error)
}

type Service struct {
	stager  Stager
	models  ModelProvider
	locator EngineLocator
	engine  Engine
	logger  *zap.Logger
}

func New(stager Stager, models ModelProvider, locator EngineLocator, engine Engine, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		stager:  stager,
		models:  models,
		locator: locator,
		engine:  engine,
		logger:  logger.Named("transcribe"),
	}
}

// Handle transcribes the audio read from r with the named model. An engine
// that runs but writes nothing yields whisper.FailedTranscript, not an error.
// Every returned error is an *Error and has already been logged.
func (s *Service) Handle(ctx context.Context, r io.Reader, model string) (whisper.Result, error) {
	if r == nil {
		return whisper.Result{}, s.fail(KindValidation, ErrNoUpload, model, "")
	}

	audio, err := s.stager.Stage(r)
	if err != nil {
		kind := KindIO
		if errors.Is(err, staging.ErrEmptyUpload) {
			kind = KindValidation
		}
		return whisper.Result{}, s.fail(kind, err, model, "")
	}
	defer s.stager.Release(audio)

	if err := s.stager.Resample(ctx, audio); err != nil {
		return whisper.Result{}, s.fail(KindResample, err, model, audio.ID)
	}

	artifact, err := s.models.EnsureAvailable(ctx, model)
	if err != nil {
		return whisper.Result{}, s.fail(KindProvisioning, err, model, audio.ID)
	}

	executable, err := s.locator.Locate()
	if err != nil {
		return whisper.Result{}, s.fail(KindEngineNotFound, err, model, audio.ID)
	}

	result, err := s.engine.Run(ctx, executable, artifact.Path, audio.OutputBase())
	if err != nil {
		return whisper.Result{}, s.fail(KindEngine, err, model, audio.ID)
	}

	s.logger.Info("request transcribed",
		zap.String("model", artifact.Name),
		zap.String("staged_id", audio.ID),
		zap.Bool("degraded", result.Transcript == whisper.FailedTranscript),
	)
	return result, nil
}

func (s *Service) fail(kind Kind, err error, model, stagedID string) error {
	fields := []zap.Field{zap.String("kind", string(kind)), zap.String("model", model), zap.Error(err)}
	if stagedID != "" {
		fields = append(fields, zap.String("staged_id", stagedID))
	}
	if kind == KindValidation {
		s.logger.Warn("request rejected", fields...)
	} else {
		s.logger.Error("request failed", fields...)
	}
	return &Error{Kind: kind, Err: err}
}
