package core

import "errors"

// Structural failures surfaced verbatim to the user. Neither is transient,
// so callers should not retry.
var (
	// ErrNoNavigationData means the source file has no usable outline,
	// nav document, or NCX. Callers depend on this to distinguish "file
	// has no structure" from "empty book".
	ErrNoNavigationData = errors.New("no table of contents found in document")

	// ErrMalformedContainer means container.xml, content.opf, or the
	// outline root is missing or invalid.
	ErrMalformedContainer = errors.New("malformed document container")
)
