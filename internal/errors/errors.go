// Package errors defines the typed error kinds the extraction pipeline can
// surface for a single document, following the factory-function pattern the
// rest of this module's ambient error handling uses.
package errors

import (
	"fmt"
)

// Kind enumerates the per-document failure modes spec.md names.
type Kind string

const (
	UnsupportedFileType Kind = "UnsupportedFileType"
	RasterizationError  Kind = "RasterizationError"
	ImageReadError      Kind = "ImageReadError"
	OCRError            Kind = "OCRError"
	RemoteError         Kind = "RemoteError"
	TransportError      Kind = "TransportError"
	ParseError          Kind = "ParseError"
	IOError             Kind = "IOError"
	ConfigError         Kind = "ConfigError"
)

// PipelineError is a structured, causable error carrying one of the Kinds
// above plus enough context to log or store.
type PipelineError struct {
	Kind    Kind
	Message string
	Details map[string]interface{}
	Cause   error
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// New builds a PipelineError of the given kind.
func New(kind Kind, message string, cause error) *PipelineError {
	return &PipelineError{Kind: kind, Message: message, Cause: cause}
}

// Newf builds a PipelineError with a formatted message.
func Newf(kind Kind, cause error, format string, args ...interface{}) *PipelineError {
	return &PipelineError{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf extracts the Kind from err if it (or something it wraps) is a
// *PipelineError; returns "" otherwise.
func KindOf(err error) Kind {
	for err != nil {
		if pe, ok := err.(*PipelineError); ok {
			return pe.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return ""
}
