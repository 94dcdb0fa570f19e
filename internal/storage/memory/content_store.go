package memory

import (
	"context"

	"github.com/JakeFAU/paintco-web/internal/store"
)

// ContentStore serves a fixed list of published paths.
type ContentStore struct {
	paths []store.PublishedPath
}

// NewContentStore constructs a ContentStore.
func NewContentStore(paths ...store.PublishedPath) *ContentStore {
	return &ContentStore{paths: append([]store.PublishedPath(nil), paths...)}
}

// ListPublishedPaths returns a copy of the configured paths.
func (s *ContentStore) ListPublishedPaths(_ context.Context) ([]store.PublishedPath, error) {
	return append([]store.PublishedPath(nil), s.paths...), nil
}
