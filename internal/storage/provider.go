// Package storage defines the interface for publishing generated site
// artifacts (sitemap.xml) to a blob store. Implementations live in the gcs,
// local and memory subpackages.
package storage

import (
	"context"
	"io"
)

// BlobStore writes an object and returns a URI describing where it landed.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}
