package services

import (
	"errors"
	"fmt"
)

var (
	ErrWorkspace        = errors.New("workspace error")
	ErrInputAcquisition = errors.New("input acquisition error")
	ErrProcess          = errors.New("process error")
	ErrNoResults        = errors.New("no results")
	ErrEncoding         = errors.New("encoding error")
)

// GenerationError tags a failure with one of the markers above while keeping
// the message shown to callers free of the marker text. Process failures carry
// the tool's stderr verbatim as their message.
type GenerationError struct {
	Marker  error
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *GenerationError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Marker}
	}
	return []error{e.Marker, e.Err}
}

func wrap(marker error, message string, err error) error {
	return &GenerationError{Marker: marker, Message: message, Err: err}
}

// FailureType returns a short label for logs and error reporting.
func FailureType(err error) string {
	switch {
	case errors.Is(err, ErrWorkspace):
		return "workspace"
	case errors.Is(err, ErrInputAcquisition):
		return "input_acquisition"
	case errors.Is(err, ErrProcess):
		return "process"
	case errors.Is(err, ErrNoResults):
		return "no_results"
	case errors.Is(err, ErrEncoding):
		return "encoding"
	default:
		return "unknown"
	}
}
