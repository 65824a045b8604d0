// Package proc runs the external tools voxd depends on (make, ffmpeg,
// whisper-cli) and captures everything they print.
package proc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const defaultGracePeriod = 5 * time.Second

var ErrNoExecutable = errors.New("executable path is required")

// Command describes one external process invocation.
type Command struct {
	Path string
	Args []string
	// Dir is the working directory; empty means the current one.
	Dir string
	// Timeout bounds the whole run. Zero means no limit beyond ctx.
	Timeout time.Duration
	// GracePeriod is the wait between SIGTERM and SIGKILL on cancellation.
	GracePeriod time.Duration
}

// String renders the command line for logs.
func (c Command) String() string {
	return strings.TrimSpace(c.Path + " " + strings.Join(c.Args, " "))
}

// Result holds the captured output of a finished process.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
}

// Diagnostics returns the trimmed stderr, falling back to stdout when the
// tool reported nothing on stderr.
func (r *Result) Diagnostics() string {
	if r == nil {
		return ""
	}
	if text := strings.TrimSpace(string(r.Stderr)); text != "" {
		return text
	}
	return strings.TrimSpace(string(r.Stdout))
}

// Run executes cmd and waits for it. A non-zero exit returns both the result
// and an error matching IsExitError. If the process never started, the
// result carries ExitCode -1.
func Run(ctx context.Context, cmd Command) (*Result, error) {
	if strings.TrimSpace(cmd.Path) == "" {
		return nil, ErrNoExecutable
	}

	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	grace := cmd.GracePeriod
	if grace <= 0 {
		grace = defaultGracePeriod
	}

	c := exec.CommandContext(ctx, cmd.Path, cmd.Args...) //nolint:gosec // running configured tools is the point
	c.Dir = cmd.Dir
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	setProcessGroup(c)
	c.WaitDelay = grace

	started := time.Now()
	err := c.Run()
	result := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: -1,
		Duration: time.Since(started),
	}
	if c.ProcessState != nil {
		result.ExitCode = c.ProcessState.ExitCode()
	}

	if err == nil {
		return result, nil
	}

	name := filepath.Base(cmd.Path)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, fmt.Errorf("%s stopped: %w", name, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return result, fmt.Errorf("%s exited with code %d: %w", name, result.ExitCode, err)
	}

	return result, fmt.Errorf("start %s: %w", name, err)
}

// IsExitError reports whether err came from a process that ran and exited
// with a non-zero status, as opposed to one that could not be started.
func IsExitError(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}
