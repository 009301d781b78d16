// Package storage defines the blob store consumed by the assembly layer.
// Documents are opaque byte blobs keyed by document id; published copies are
// keyed by slug in a separate namespace.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound indicates a requested blob is missing.
var ErrNotFound = errors.New("blob not found")

// Store persists rendered documents. Implementations must be safe for
// concurrent use; cross-process coordination is the implementation's
// responsibility, not the caller's.
type Store interface {
	// Get returns the blob for a document id, or ErrNotFound.
	Get(ctx context.Context, id string) ([]byte, error)
	// Put stores the blob for a document id, replacing any previous value.
	Put(ctx context.Context, id string, data []byte) error
	// PutPublished stores a public copy under a publish slug.
	PutPublished(ctx context.Context, slug string, data []byte) error
	// Delete removes a document blob. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error
}
