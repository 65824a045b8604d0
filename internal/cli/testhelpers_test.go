package cli

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args []string) (stdout string, stderr string, err error) {
	t.Helper()

	return runRootCommand(context.Background(), args)
}

func runRootCommand(ctx context.Context, args []string) (stdout string, stderr string, err error) {
	cmd := NewRootCmd()
	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)

	cmd.SetOut(outBuf)
	cmd.SetErr(errBuf)
	cmd.SetContext(ctx)
	cmd.SetArgs(args)

	err = cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

// toolStubs lays out a whisper.cpp checkout whose make, ffmpeg and
// whisper-cli are shell stubs, and returns the flags pointing voxd at it.
type toolStubs struct {
	root       string
	stagingDir string
	flags      []string
}

func newToolStubs(t *testing.T) *toolStubs {
	t.Helper()

	base := t.TempDir()
	s := &toolStubs{
		root:       filepath.Join(base, "whisper.cpp"),
		stagingDir: filepath.Join(base, "staging"),
	}
	bin := filepath.Join(s.root, "build", "bin")
	require.NoError(t, os.MkdirAll(bin, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(s.root, "models"), 0o755))

	writeStub(t, filepath.Join(base, "make"), `touch "models/ggml-$2.bin"
`)
	writeStub(t, filepath.Join(base, "ffmpeg"), `for arg in "$@"; do out="$arg"; done
prev=""
for arg in "$@"; do
  if [ "$prev" = "-i" ]; then cp "$arg" "$out"; fi
  prev="$arg"
done
`)
	writeStub(t, filepath.Join(bin, "whisper-cli"), `base=""
prev=""
for arg in "$@"; do
  if [ "$prev" = "-of" ]; then base="$arg"; fi
  prev="$arg"
done
echo "hello world" > "$base.txt"
echo "whisper_print_timings:    total time =    98.50 ms" >&2
`)

	s.flags = []string{
		"--whisper-root", s.root,
		"--build-tool", filepath.Join(base, "make"),
		"--resampler", filepath.Join(base, "ffmpeg"),
		"--staging-dir", s.stagingDir,
		"--no-progress",
	}
	return s
}

func (s *toolStubs) args(args ...string) []string {
	return append(args, s.flags...)
}

func writeStub(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
}

func makePCM16WAVForTest(samples []int16, sampleRate int, channels int) []byte {
	bytesPerSample := 2
	dataSize := len(samples) * bytesPerSample
	fmtChunkSize := 16
	riffSize := 4 + (8 + fmtChunkSize) + (8 + dataSize)

	out := make([]byte, 12+8+fmtChunkSize+8+dataSize)
	off := 0

	copy(out[off:], []byte("RIFF"))
	off += 4
	binary.LittleEndian.PutUint32(out[off:], uint32(riffSize))
	off += 4
	copy(out[off:], []byte("WAVE"))
	off += 4

	copy(out[off:], []byte("fmt "))
	off += 4
	binary.LittleEndian.PutUint32(out[off:], uint32(fmtChunkSize))
	off += 4
	binary.LittleEndian.PutUint16(out[off:], 1)
	off += 2
	binary.LittleEndian.PutUint16(out[off:], uint16(channels))
	off += 2
	binary.LittleEndian.PutUint32(out[off:], uint32(sampleRate))
	off += 4
	binary.LittleEndian.PutUint32(out[off:], uint32(sampleRate*channels*bytesPerSample))
	off += 4
	binary.LittleEndian.PutUint16(out[off:], uint16(channels*bytesPerSample))
	off += 2
	binary.LittleEndian.PutUint16(out[off:], 16)
	off += 2

	copy(out[off:], []byte("data"))
	off += 4
	binary.LittleEndian.PutUint32(out[off:], uint32(dataSize))
	off += 4

	for _, s := range samples {
		binary.LittleEndian.PutUint16(out[off:], uint16(s))
		off += 2
	}

	return out
}
