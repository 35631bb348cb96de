package outbound

import (
	"context"
	"errors"
	"io"
)

// ErrBlobNotFound is returned by blob stores for unknown keys or prefixes.
var ErrBlobNotFound = errors.New("blob not found")

// BlobStorePort defines the byte storage behind the media store.
type BlobStorePort interface {
	// Put writes data at key. Keys are never overwritten by the media store.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Open returns a reader for the object at key.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// FindByPrefix returns the first key starting with prefix.
	FindByPrefix(ctx context.Context, prefix string) (string, error)
}
