package storage

import (
	"context"
	"io"
)

// Backend persists attachment bytes under an opaque key. Implementations do
// not validate content; callers are expected to have done so already.
type Backend interface {
	// Save writes the stream under key and returns a stable URI.
	Save(ctx context.Context, key string, r io.Reader, size int64, mimeType string) (string, error)
	// Open returns a reader for the stored object.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// URLPresigner is implemented by backends that can hand out temporary
// direct-download URLs instead of streaming through the API.
type URLPresigner interface {
	PresignURL(ctx context.Context, key string) (string, error)
}
