package postgres

import (
	"context"
	"fmt"

	"github.com/JakeFAU/paintco-web/internal/store"
)

// ContentStore lists published content pages for the sitemap.
type ContentStore struct {
	db    DB
	table string
}

// NewContentStore builds a ContentStore. An empty table defaults to "content_pages".
func NewContentStore(db DB, table string) (*ContentStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	t, err := tableName(table, "content_pages")
	if err != nil {
		return nil, err
	}
	return &ContentStore{db: db, table: t}, nil
}

// ListPublishedPaths returns every published page ordered by path.
func (s *ContentStore) ListPublishedPaths(ctx context.Context) ([]store.PublishedPath, error) {
	query := fmt.Sprintf(`
SELECT path, updated_at
FROM %s
WHERE is_published = true
ORDER BY path`, s.table)

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list published paths: %w", err)
	}
	defer rows.Close()

	var out []store.PublishedPath
	for rows.Next() {
		var p store.PublishedPath
		if err := rows.Scan(&p.Path, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan published path: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate published paths: %w", err)
	}
	return out, nil
}
