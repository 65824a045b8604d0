package staging

import (
	"errors"
	"fmt"
)

var ErrEmptyUpload = errors.New("uploaded file is empty")

// IOError is a failure writing an upload to the staging directory.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("staging %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ResampleError is a failure converting an upload to engine input.
// Diagnostics is what the resampler printed.
type ResampleError struct {
	ExitCode    int
	Diagnostics string
	Err         error
}

func (e *ResampleError) Error() string {
	if e.Diagnostics == "" {
		return fmt.Sprintf("resample audio: %v", e.Err)
	}
	return fmt.Sprintf("resample audio: %v (%s)", e.Err, e.Diagnostics)
}

func (e *ResampleError) Unwrap() error {
	return e.Err
}
