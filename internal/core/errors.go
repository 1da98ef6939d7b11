package core

import (
	"errors"
	"fmt"
)

var ErrTranscriptionUnavailable = errors.New("audio transcription is not configured")

// ValidationError is returned before any mutation when a required field is missing.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// FormatError is returned before any mutation when bulk input is unusable.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return e.Reason
}

type TranscriptionError struct {
	Err error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription failed: %v", e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }
