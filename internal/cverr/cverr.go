// Package cverr defines the error kinds reported for a failed file
// conversion. Every error that crosses the per-file boundary carries one
// of these kinds so the batch layer can report a machine-readable cause.
package cverr

import (
	"errors"
	"fmt"
)

// Kind classifies a conversion failure.
type Kind string

const (
	// KindInputRead means the source file could not be read.
	KindInputRead Kind = "input_read_error"
	// KindMetadata means the sidecar descriptor is missing, malformed,
	// or lacks the required url key.
	KindMetadata Kind = "metadata_error"
	// KindSegmentation means the segment tree violated an internal
	// invariant while being built.
	KindSegmentation Kind = "segmentation_error"
	// KindExternalTool means an external OCR/transcription tool produced
	// output the adapter could not consume.
	KindExternalTool Kind = "external_tool_error"
	// KindWrite means an output path could not be written.
	KindWrite Kind = "write_error"
)

// Error pairs a failure kind with the underlying cause.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a conversion error with the given kind and message.
func New(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Wrap attaches a kind to an existing error. A nil err returns nil.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// KindOf extracts the kind from an error chain. Errors without a kind
// report an empty Kind.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
