package object

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrNotFound indicates the store holds no object under the requested key.
	ErrNotFound = errors.New("object not found")

	// ErrInvalidKey indicates a storage key that cannot be addressed safely.
	ErrInvalidKey = errors.New("invalid storage key")
)

// DefaultContentType is used when a caller does not declare one.
const DefaultContentType = "application/octet-stream"

// BlobStore defines the contract for writing and reading binary objects by key.
type BlobStore interface {
	// Put writes the full contents of r under key. size is the payload length,
	// or -1 when unknown.
	Put(ctx context.Context, key string, contentType string, r io.Reader, size int64) error
	// Get returns the bytes stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
}
