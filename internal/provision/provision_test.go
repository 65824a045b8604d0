package provision

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fmueller/voxd/internal/catalog"
	"github.com/stretchr/testify/require"
)

type fakeBuilder struct {
	calls    atomic.Int32
	delay    time.Duration
	write    bool
	partial  bool
	started  chan struct{}
	finished atomic.Bool
	diag   string
	err    error
	mu     sync.Mutex
	models []string
}

func (f *fakeBuilder) Build(_ context.Context, model catalog.Model, destination string) (string, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.models = append(f.models, model.Name)
	f.mu.Unlock()

	if f.partial {
		if err := os.WriteFile(destination, []byte("gg"), 0o644); err != nil {
			return "", err
		}
	}
	if f.started != nil {
		close(f.started)
	}
	time.Sleep(f.delay)
	defer f.finished.Store(true)
	if f.err != nil {
		return f.diag, f.err
	}
	if f.write {
		if err := os.WriteFile(destination, []byte("ggml"), 0o644); err != nil {
			return "", err
		}
	}
	return f.diag, nil
}

func newTestProvisioner(t *testing.T, builder Builder) (*Provisioner, string) {
	t.Helper()

	cat, err := catalog.New("small.en")
	require.NoError(t, err)

	dir := t.TempDir()
	return New(cat, dir, builder, nil), dir
}

func TestEnsureAvailableReturnsExistingArtifactWithoutBuilding(t *testing.T) {
	t.Parallel()

	builder := &fakeBuilder{}
	p, dir := newTestProvisioner(t, builder)
	path := filepath.Join(dir, "ggml-tiny.en.bin")
	require.NoError(t, os.WriteFile(path, []byte("ggml"), 0o644))

	artifact, err := p.EnsureAvailable(context.Background(), "tiny.en")
	require.NoError(t, err)
	require.Equal(t, Artifact{Name: "tiny.en", FileName: "ggml-tiny.en.bin", Path: path}, artifact)
	require.Zero(t, builder.calls.Load())
}

func TestEnsureAvailableBuildsMissingArtifact(t *testing.T) {
	t.Parallel()

	builder := &fakeBuilder{write: true}
	p, dir := newTestProvisioner(t, builder)

	artifact, err := p.EnsureAvailable(context.Background(), "base")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "ggml-base.bin"), artifact.Path)
	require.FileExists(t, artifact.Path)
	require.Equal(t, []string{"base"}, builder.models)

	_, err = p.EnsureAvailable(context.Background(), "base")
	require.NoError(t, err)
	require.Equal(t, int32(1), builder.calls.Load())
}

func TestEnsureAvailableUnknownNameBuildsDefault(t *testing.T) {
	t.Parallel()

	builder := &fakeBuilder{write: true}
	p, dir := newTestProvisioner(t, builder)

	artifact, err := p.EnsureAvailable(context.Background(), "gigantic")
	require.NoError(t, err)
	require.Equal(t, "small.en", artifact.Name)
	require.Equal(t, filepath.Join(dir, "ggml-small.en.bin"), artifact.Path)
	require.Equal(t, []string{"small.en"}, builder.models)
}

func TestEnsureAvailableBuildFailure(t *testing.T) {
	t.Parallel()

	builder := &fakeBuilder{err: errors.New("exit status 2"), diag: "make: *** No rule to make target"}
	p, _ := newTestProvisioner(t, builder)

	_, err := p.EnsureAvailable(context.Background(), "tiny")
	require.Error(t, err)

	var provErr *Error
	require.ErrorAs(t, err, &provErr)
	require.Equal(t, ReasonBuildFailed, provErr.Reason)
	require.Equal(t, "tiny", provErr.Model)
	require.Contains(t, provErr.Diagnostics, "No rule to make target")
	require.Contains(t, err.Error(), "build_failed")
}

func TestEnsureAvailableArtifactMissingAfterSuccessfulBuild(t *testing.T) {
	t.Parallel()

	builder := &fakeBuilder{write: false}
	p, _ := newTestProvisioner(t, builder)

	artifact, err := p.EnsureAvailable(context.Background(), "medium")
	require.Error(t, err)
	require.Empty(t, artifact.Path)

	var provErr *Error
	require.ErrorAs(t, err, &provErr)
	require.Equal(t, ReasonArtifactMissingAfterBuild, provErr.Reason)
}

func TestEnsureAvailableSerializesConcurrentBuildsOfSameModel(t *testing.T) {
	t.Parallel()

	builder := &fakeBuilder{write: true, delay: 100 * time.Millisecond}
	p, _ := newTestProvisioner(t, builder)

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.EnsureAvailable(context.Background(), "tiny.en")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, int32(1), builder.calls.Load())
}

func TestEnsureAvailableWaitsForBuildWritingArtifact(t *testing.T) {
	t.Parallel()

	builder := &fakeBuilder{write: true, partial: true, delay: 150 * time.Millisecond, started: make(chan struct{})}
	p, dir := newTestProvisioner(t, builder)

	first := make(chan error, 1)
	go func() {
		_, err := p.EnsureAvailable(context.Background(), "tiny.en")
		first <- err
	}()

	<-builder.started
	require.FileExists(t, filepath.Join(dir, "ggml-tiny.en.bin"))

	artifact, err := p.EnsureAvailable(context.Background(), "tiny.en")
	require.NoError(t, err)
	require.True(t, builder.finished.Load(), "returned before the build finished")

	onDisk, err := os.ReadFile(artifact.Path)
	require.NoError(t, err)
	require.Equal(t, "ggml", string(onDisk))
	require.NoError(t, <-first)
	require.Equal(t, int32(1), builder.calls.Load())
}

func TestEnsureAvailableCallerCancellationDoesNotAbortBuild(t *testing.T) {
	t.Parallel()

	builder := &fakeBuilder{write: true, delay: 200 * time.Millisecond}
	p, dir := newTestProvisioner(t, builder)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.EnsureAvailable(ctx, "base.en")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	require.Eventually(t, func() bool {
		_, statErr := os.Stat(filepath.Join(dir, "ggml-base.en.bin"))
		return statErr == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestArtifactDoesNotTouchDisk(t *testing.T) {
	t.Parallel()

	builder := &fakeBuilder{}
	p, dir := newTestProvisioner(t, builder)

	artifact := p.Artifact("large-v3")
	require.Equal(t, filepath.Join(dir, "ggml-large-v3.bin"), artifact.Path)
	require.NoFileExists(t, artifact.Path)
	require.Zero(t, builder.calls.Load())
}

func TestMakeBuilderRunsToolInWhisperRoot(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	tool := filepath.Join(t.TempDir(), "make")
	script := "#!/bin/sh\n" +
		"[ \"$1\" = \"-j\" ] || { echo \"bad args: $*\" >&2; exit 2; }\n" +
		"mkdir -p models && printf ggml > \"models/ggml-$2.bin\"\n"
	require.NoError(t, os.WriteFile(tool, []byte(script), 0o755))

	cat, err := catalog.New("")
	require.NoError(t, err)
	p := New(cat, filepath.Join(root, "models"), MakeBuilder{Tool: tool, Dir: root, Timeout: 5 * time.Second}, nil)

	artifact, err := p.EnsureAvailable(context.Background(), "tiny.en")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "models", "ggml-tiny.en.bin"), artifact.Path)
	require.FileExists(t, artifact.Path)
}

func TestMakeBuilderFailureCarriesDiagnostics(t *testing.T) {
	t.Parallel()

	tool := filepath.Join(t.TempDir(), "make")
	require.NoError(t, os.WriteFile(tool, []byte("#!/bin/sh\necho 'download failed: 404' >&2\nexit 2\n"), 0o755))

	diagnostics, err := MakeBuilder{Tool: tool, Dir: t.TempDir()}.Build(context.Background(), catalog.Model{Name: "tiny"}, "")
	require.Error(t, err)
	require.Equal(t, "download failed: 404", diagnostics)
}

func TestDownloadBuilderFetchesModel(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ggml weights"))
	}))
	defer server.Close()

	destination := filepath.Join(t.TempDir(), "ggml-tiny.en.bin")
	_, err := DownloadBuilder{NoProgress: true, Retries: 1}.Build(context.Background(), catalog.Model{
		Name:     "tiny.en",
		FileName: "ggml-tiny.en.bin",
		URL:      server.URL + "/ggml-tiny.en.bin",
	}, destination)
	require.NoError(t, err)

	onDisk, err := os.ReadFile(destination)
	require.NoError(t, err)
	require.Equal(t, "ggml weights", string(onDisk))
}

func TestDownloadBuilderFailureIsReportedOnce(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	cat, err := catalog.New("")
	require.NoError(t, err)
	dir := t.TempDir()
	builder := &urlBuilder{DownloadBuilder: DownloadBuilder{NoProgress: true, Retries: 1}, url: server.URL + "/missing.bin"}
	p := New(cat, dir, builder, nil)

	_, err = p.EnsureAvailable(context.Background(), "tiny")
	var provErr *Error
	require.ErrorAs(t, err, &provErr)
	require.Equal(t, ReasonBuildFailed, provErr.Reason)
	require.Empty(t, provErr.Diagnostics)
	require.Equal(t, 1, strings.Count(err.Error(), provErr.Err.Error()))
}

// urlBuilder points a DownloadBuilder at a test server instead of the
// catalog URL.
type urlBuilder struct {
	DownloadBuilder
	url string
}

func (b *urlBuilder) Build(ctx context.Context, model catalog.Model, destination string) (string, error) {
	model.URL = b.url
	return b.DownloadBuilder.Build(ctx, model, destination)
}
