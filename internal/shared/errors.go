package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrImageRequired is returned when the video stage is asked to run on a
	// recipe that has no generated image yet.
	ErrImageRequired = errors.New("recipe has no image to animate")

	// ErrNoCredential is returned when no API credential is available and the
	// credential provider could not obtain one.
	ErrNoCredential = errors.New("no API credential available")

	// ErrVideoTimeout is returned when a video operation is still running after
	// the configured maximum wait.
	ErrVideoTimeout = errors.New("video generation did not complete in time")
)

// TransportError wraps a failed network call. It aborts the current
// operation and no partial state is kept.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError describes malformed model output. It never leaves the finalizer;
// it exists so the failure can be logged with a typed value.
type ParseError struct {
	Length int
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse recipe JSON (%d bytes): %v", e.Length, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// GenerationError reports that a media stage returned no usable artifact.
type GenerationError struct {
	Stage  string
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s generation failed: %s: %v", e.Stage, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s generation failed: %s", e.Stage, e.Reason)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// IsTransport reports whether err carries a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsGeneration reports whether err carries a GenerationError.
func IsGeneration(err error) bool {
	var ge *GenerationError
	return errors.As(err, &ge)
}
