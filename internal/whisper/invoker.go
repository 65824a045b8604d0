package whisper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fmueller/voxd/internal/proc"
	"go.uber.org/zap"
)

// EngineError means the engine could not be run at all: it failed to
// start, was stopped by a timeout, or its output could not be read.
type EngineError struct {
	Executable  string
	Diagnostics string
	Err         error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("run %s: %v", e.Executable, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

type Invoker struct {
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

func NewInvoker(timeout time.Duration, logger *zap.Logger) *Invoker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Invoker{timeout: timeout, logger: logger.Named("whisper"), now: time.Now}
}

// Run transcribes inputPath. Whether the engine succeeded is decided by the
// presence of its transcript file, not by its exit status: a run that leaves
// no file yields FailedTranscript and no error.
func (iv *Invoker) Run(ctx context.Context, executable, modelPath, inputPath string) (Result, error) {
	inv := NewInvocation(executable, modelPath, inputPath)
	transcriptPath := inv.TranscriptPath()
	defer iv.removeTranscript(transcriptPath)

	iv.logger.Info("running engine", zap.String("engine", executable), zap.Strings("args", inv.Args()))
	out, err := proc.Run(ctx, proc.Command{Path: executable, Args: inv.Args(), Timeout: iv.timeout})
	if err != nil && !proc.IsExitError(err) {
		return Result{}, &EngineError{Executable: executable, Diagnostics: out.Diagnostics(), Err: err}
	}

	stderr := string(out.Stderr)
	result := Result{
		ProcessingTime: ParseProcessingTime(stderr),
		Timestamp:      iv.now(),
	}

	content, readErr := os.ReadFile(transcriptPath)
	switch {
	case errors.Is(readErr, os.ErrNotExist):
		fields := []zap.Field{
			zap.String("transcript_path", transcriptPath),
			zap.Int("exit_code", out.ExitCode),
			zap.String("stdout", strings.TrimSpace(string(out.Stdout))),
			zap.String("stderr", strings.TrimSpace(stderr)),
		}
		if hint := failureHint(stderr); hint != "" {
			fields = append(fields, zap.String("hint", hint))
		}
		iv.logger.Error("engine produced no transcript", fields...)
		result.Transcript = FailedTranscript
	case readErr != nil:
		return Result{}, &EngineError{Executable: executable, Diagnostics: out.Diagnostics(), Err: fmt.Errorf("read transcript: %w", readErr)}
	default:
		if out.ExitCode != 0 {
			iv.logger.Warn("engine exited non-zero but wrote a transcript", zap.Int("exit_code", out.ExitCode))
		}
		result.Transcript = strings.TrimSpace(string(content))
	}

	iv.logger.Info("transcription finished", zap.Duration("elapsed", out.Duration), zap.Int("chars", len(result.Transcript)))
	return result, nil
}

func (iv *Invoker) removeTranscript(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		iv.logger.Warn("failed to remove transcript file", zap.String("path", path), zap.Error(err))
	}
}
