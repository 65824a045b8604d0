package transcribe

import (
	"errors"
	"net/http"
)

// Kind classifies why a request failed.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindIO             Kind = "io"
	KindResample       Kind = "resample"
	KindProvisioning   Kind = "provisioning"
	KindEngineNotFound Kind = "engine_not_found"
	KindEngine         Kind = "engine"
)

// HTTPStatus is the response status a request failing with k gets.
func (k Kind) HTTPStatus() int {
	if k == KindValidation {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

var (
	// ErrValidation matches every error of KindValidation.
	ErrValidation = errors.New("invalid request")
	ErrNoUpload   = errors.New("no file provided")
)

type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == ErrValidation && e.Kind == KindValidation
}

// KindOf returns the kind of err, or "" when err did not come from Handle.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
