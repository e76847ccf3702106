package domain

import "errors"

var (
	// ErrUnsupportedFormat signals an output extension no renderer handles.
	ErrUnsupportedFormat = errors.New("unsupported output format")
	// ErrInvalidHeadingLevel signals a heading level outside 0..9.
	ErrInvalidHeadingLevel = errors.New("heading level must be between 0 and 9")
	// ErrPDFUnavailable signals a PDF was requested without a PDF backend.
	ErrPDFUnavailable = errors.New("pdf rendering is not configured")
)
