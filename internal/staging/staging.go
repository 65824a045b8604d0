// Package staging owns the temporary files of one transcription request:
// the raw upload, its resampled copy, and whatever the engine derives from it.
package staging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/fmueller/voxd/internal/proc"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	filePrefix = "voxd-"
	// SampleRate, Channels and Codec are what whisper.cpp expects.
	SampleRate = 16000
	Channels   = 1
	Codec      = "pcm_s16le"
	// TranscriptSuffix is appended to the engine output base.
	TranscriptSuffix = ".txt"
)

type Options struct {
	Dir string
	// Resampler is the ffmpeg executable.
	Resampler string
	Timeout   time.Duration
}

// Area stages uploads in a directory shared by all requests. Every file it
// creates is named after the owning Audio's ID, so requests never collide.
type Area struct {
	dir       string
	resampler string
	timeout   time.Duration
	logger    *zap.Logger
}

// Audio is one staged upload. It must be released exactly once.
type Audio struct {
	ID            string
	OriginalPath  string
	ResampledPath string

	dir  string
	once sync.Once
}

func New(opts Options, logger *zap.Logger) *Area {
	if logger == nil {
		logger = zap.NewNop()
	}
	dir := opts.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	resampler := opts.Resampler
	if resampler == "" {
		resampler = "ffmpeg"
	}
	return &Area{dir: dir, resampler: resampler, timeout: opts.Timeout, logger: logger.Named("staging")}
}

func (a *Area) Dir() string {
	return a.dir
}

// Stage writes r to a new uniquely named file.
func (a *Area) Stage(r io.Reader) (*Audio, error) {
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return nil, &IOError{Op: "create directory", Path: a.dir, Err: err}
	}

	id := uuid.NewString()
	audio := &Audio{
		ID:           id,
		OriginalPath: filepath.Join(a.dir, filePrefix+id+".upload"),
		dir:          a.dir,
	}

	f, err := os.OpenFile(audio.OriginalPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, &IOError{Op: "create", Path: audio.OriginalPath, Err: err}
	}

	written, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		a.remove(audio.OriginalPath)
		return nil, &IOError{Op: "write", Path: audio.OriginalPath, Err: err}
	}
	if written == 0 {
		a.remove(audio.OriginalPath)
		return nil, ErrEmptyUpload
	}

	a.logger.Debug("upload staged", zap.String("id", id), zap.String("path", audio.OriginalPath), zap.Int64("bytes", written))
	return audio, nil
}

// Resample converts the staged upload to mono 16 kHz signed 16-bit PCM and
// records the result in audio.ResampledPath.
func (a *Area) Resample(ctx context.Context, audio *Audio) error {
	target := audio.resampledTarget()
	cmd := proc.Command{
		Path: a.resampler,
		Args: []string{
			"-nostdin", "-hide_banner", "-loglevel", "error", "-y",
			"-i", audio.OriginalPath,
			"-ar", strconv.Itoa(SampleRate),
			"-ac", strconv.Itoa(Channels),
			"-c:a", Codec,
			target,
		},
		Timeout: a.timeout,
	}

	a.logger.Debug("resampling", zap.String("id", audio.ID), zap.String("command", cmd.String()))
	result, err := proc.Run(ctx, cmd)
	if err != nil {
		exitCode := -1
		if result != nil {
			exitCode = result.ExitCode
		}
		return &ResampleError{ExitCode: exitCode, Diagnostics: result.Diagnostics(), Err: err}
	}

	audio.ResampledPath = target
	return nil
}

// Release deletes every file derived from audio. Failures are logged, never
// returned, so they cannot hide the error that ended the request. Calling it
// more than once is a no-op.
func (a *Area) Release(audio *Audio) {
	if audio == nil {
		return
	}
	audio.once.Do(func() {
		target := audio.resampledTarget()
		for _, path := range []string{audio.OriginalPath, target, target + TranscriptSuffix} {
			a.remove(path)
		}
		a.logger.Debug("staged audio released", zap.String("id", audio.ID))
	})
}

func (a *Area) remove(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		a.logger.Warn("failed to remove staged file", zap.String("path", path), zap.Error(err))
	}
}

// OutputBase is the path the engine derives its transcript file name from.
func (a *Audio) OutputBase() string {
	return a.ResampledPath
}

func (a *Audio) resampledTarget() string {
	return filepath.Join(a.dir, fmt.Sprintf("%s%s.16k.wav", filePrefix, a.ID))
}
