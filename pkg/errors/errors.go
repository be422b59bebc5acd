package fileflow_errors

import "errors"

// Common errors
var (
	ErrInvalidRequest    = errors.New("invalid request")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrETagMismatch      = errors.New("etag mismatch")
	ErrIncompleteUpload  = errors.New("incomplete upload")
	ErrAlreadyExists     = errors.New("already exists")
)
