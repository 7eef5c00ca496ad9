package files

import "errors"

var (
	// ErrNotFound indicates no metadata record matches the lookup.
	ErrNotFound = errors.New("not found")

	// ErrNoContent indicates the record exists but has no extracted text.
	ErrNoContent = errors.New("no content")

	// ErrStoreInconsistency indicates a record whose blob the object store can no longer produce.
	ErrStoreInconsistency = errors.New("store inconsistency")

	// ErrUpstreamWrite indicates the blob or metadata write failed during upload.
	ErrUpstreamWrite = errors.New("upstream write failed")

	// ErrInvalidInput indicates validation or bad input.
	ErrInvalidInput = errors.New("invalid input")
)
