// Package apperr defines the sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalid           = errors.New("invalid record")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrInvalidDocument   = errors.New("invalid document")
)
