package proc

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, name, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestRunCapturesOutput(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "talk", "echo out\necho err >&2\n")

	result, err := Run(context.Background(), Command{Path: script})
	require.NoError(t, err)
	require.Equal(t, 0, result.ExitCode)
	require.Equal(t, "out\n", string(result.Stdout))
	require.Equal(t, "err\n", string(result.Stderr))
	require.Equal(t, "err", result.Diagnostics())
}

func TestRunNonZeroExit(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "fail", "echo broken >&2\nexit 3\n")

	result, err := Run(context.Background(), Command{Path: script})
	require.Error(t, err)
	require.True(t, IsExitError(err))
	require.Equal(t, 3, result.ExitCode)
	require.Equal(t, "broken", result.Diagnostics())
	require.Contains(t, err.Error(), "exited with code 3")
}

func TestRunUsesWorkingDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	script := writeScript(t, "pwd", "pwd\n")

	result, err := Run(context.Background(), Command{Path: script, Dir: dir})
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(string(result.Stdout[:len(result.Stdout)-1]))
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestRunMissingExecutable(t *testing.T) {
	t.Parallel()

	result, err := Run(context.Background(), Command{Path: filepath.Join(t.TempDir(), "nope")})
	require.Error(t, err)
	require.False(t, IsExitError(err))
	require.Equal(t, -1, result.ExitCode)
}

func TestRunEmptyPath(t *testing.T) {
	t.Parallel()

	_, err := Run(context.Background(), Command{})
	require.ErrorIs(t, err, ErrNoExecutable)
}

func TestRunTimeoutStopsProcess(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "hang", "while :; do sleep 0.05; done\n")

	started := time.Now()
	_, err := Run(context.Background(), Command{
		Path:        script,
		Timeout:     150 * time.Millisecond,
		GracePeriod: 200 * time.Millisecond,
	})
	require.Error(t, err)
	require.True(t, errors.Is(err, context.DeadlineExceeded))
	require.Less(t, time.Since(started), 3*time.Second)
}

func TestDiagnosticsFallsBackToStdout(t *testing.T) {
	t.Parallel()

	r := &Result{Stdout: []byte(" only stdout \n")}
	require.Equal(t, "only stdout", r.Diagnostics())

	var nilResult *Result
	require.Empty(t, nilResult.Diagnostics())
}

func TestCommandString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "make -j tiny.en", Command{Path: "make", Args: []string{"-j", "tiny.en"}}.String())
}
