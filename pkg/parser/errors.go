package parser

import "errors"

var (
	// ErrUnsupportedFormat is returned when the input format is not supported.
	ErrUnsupportedFormat = errors.New("parser: unsupported format")

	// ErrEmptyInput is returned when the input has no header or no rows.
	ErrEmptyInput = errors.New("parser: empty input")

	// ErrMissingColumn is returned when a required column is missing
	// from the header.
	ErrMissingColumn = errors.New("parser: required column missing")

	// ErrContextCanceled is returned when the context is canceled.
	ErrContextCanceled = errors.New("parser: context canceled")
)
