package provision

import (
	"context"
	"net/http"
	"time"

	"github.com/fmueller/voxd/internal/catalog"
	"github.com/fmueller/voxd/internal/download"
	"github.com/fmueller/voxd/internal/proc"
	"go.uber.org/zap"
)

// Builder produces the artifact for one model at destination. It returns
// the diagnostic text the underlying tool produced, if any.
type Builder interface {
	Build(ctx context.Context, model catalog.Model, destination string) (diagnostics string, err error)
}

// MakeBuilder runs "<tool> -j <model>" inside a whisper.cpp checkout, which
// fetches the named ggml model into its models directory.
type MakeBuilder struct {
	Tool    string
	Dir     string
	Timeout time.Duration
}

func (b MakeBuilder) Build(ctx context.Context, model catalog.Model, _ string) (string, error) {
	tool := b.Tool
	if tool == "" {
		tool = "make"
	}

	result, err := proc.Run(ctx, proc.Command{
		Path:    tool,
		Args:    []string{"-j", model.Name},
		Dir:     b.Dir,
		Timeout: b.Timeout,
	})
	return result.Diagnostics(), err
}

// DownloadBuilder fetches the artifact directly from the model's URL.
type DownloadBuilder struct {
	HTTPClient *http.Client
	Retries    int
	NoProgress bool
	Logger     *zap.Logger
}

func (b DownloadBuilder) Build(ctx context.Context, model catalog.Model, destination string) (string, error) {
	err := download.DownloadFile(ctx, download.Options{
		URL:            model.URL,
		Destination:    destination,
		ExpectedSHA256: model.SHA256,
		Retries:        b.Retries,
		NoProgress:     b.NoProgress,
		HTTPClient:     b.HTTPClient,
		Logger:         b.Logger,
	})
	return "", err
}
