package provision

import "fmt"

// Reason classifies why a model could not be provisioned.
type Reason string

const (
	// ReasonBuildFailed means the builder reported failure.
	ReasonBuildFailed Reason = "build_failed"
	// ReasonArtifactMissingAfterBuild means the builder reported success
	// but the artifact is still not on disk.
	ReasonArtifactMissingAfterBuild Reason = "artifact_missing_after_build"
	// ReasonStorage means the models directory could not be inspected.
	ReasonStorage Reason = "storage"
)

// Error is returned by EnsureAvailable when the artifact cannot be made
// available. Diagnostics holds whatever the build tool printed.
type Error struct {
	Model       string
	Path        string
	Reason      Reason
	Diagnostics string
	Err         error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("provision model %q (%s)", e.Model, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Diagnostics != "" {
		msg += ": " + e.Diagnostics
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}
