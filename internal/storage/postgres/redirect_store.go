package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JakeFAU/paintco-web/internal/store"
)

// RedirectStore implements store.RedirectRepository on a redirects table.
type RedirectStore struct {
	db    DB
	table string
}

// NewRedirectStore builds a RedirectStore over db. An empty table defaults to "redirects".
func NewRedirectStore(db DB, table string) (*RedirectStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	t, err := tableName(table, "redirects")
	if err != nil {
		return nil, err
	}
	return &RedirectStore{db: db, table: t}, nil
}

// ListActive returns the (from_path, to_path, status_code) of every active
// rule. NULL columns come back as zero values.
func (s *RedirectStore) ListActive(ctx context.Context) ([]store.Redirect, error) {
	query := fmt.Sprintf(`
SELECT from_path, to_path, status_code
FROM %s
WHERE is_active = true`, s.table)

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query active redirects: %w", err)
	}
	defer rows.Close()

	var out []store.Redirect
	for rows.Next() {
		var from, to pgtype.Text
		var status pgtype.Int4
		if err := rows.Scan(&from, &to, &status); err != nil {
			return nil, fmt.Errorf("scan redirect row: %w", err)
		}
		out = append(out, store.Redirect{
			FromPath:   from.String,
			ToPath:     to.String,
			StatusCode: int(status.Int32),
			IsActive:   true,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate redirect rows: %w", err)
	}
	return out, nil
}

// List returns a page of rules ordered by from_path.
func (s *RedirectStore) List(ctx context.Context, limit, offset int) ([]store.Redirect, error) {
	query := fmt.Sprintf(`
SELECT id, from_path, to_path, status_code, is_active, created_at, updated_at
FROM %s
ORDER BY from_path
LIMIT $1 OFFSET $2`, s.table)

	rows, err := s.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list redirects: %w", err)
	}
	defer rows.Close()

	out := []store.Redirect{}
	for rows.Next() {
		r, err := scanRedirect(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate redirect rows: %w", err)
	}
	return out, nil
}

// Get loads a rule by ID.
func (s *RedirectStore) Get(ctx context.Context, id uuid.UUID) (store.Redirect, error) {
	query := fmt.Sprintf(`
SELECT id, from_path, to_path, status_code, is_active, created_at, updated_at
FROM %s
WHERE id = $1`, s.table)

	r, err := scanRedirect(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Redirect{}, store.ErrNotFound
		}
		return store.Redirect{}, err
	}
	return r, nil
}

// Create inserts a rule.
func (s *RedirectStore) Create(ctx context.Context, r store.Redirect) error {
	query := fmt.Sprintf(`
INSERT INTO %s (id, from_path, to_path, status_code, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`, s.table)

	_, err := s.db.Exec(ctx, query,
		r.ID, r.FromPath, r.ToPath, r.StatusCode, r.IsActive, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("insert redirect: %w", err)
	}
	return nil
}

// Update replaces the mutable columns of a rule.
func (s *RedirectStore) Update(ctx context.Context, r store.Redirect) error {
	query := fmt.Sprintf(`
UPDATE %s
SET from_path = $2, to_path = $3, status_code = $4, is_active = $5, updated_at = $6
WHERE id = $1`, s.table)

	tag, err := s.db.Exec(ctx, query, r.ID, r.FromPath, r.ToPath, r.StatusCode, r.IsActive, r.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("update redirect: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Delete removes a rule.
func (s *RedirectStore) Delete(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.table)
	tag, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete redirect: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanRedirect(row pgx.Row) (store.Redirect, error) {
	var r store.Redirect
	err := row.Scan(&r.ID, &r.FromPath, &r.ToPath, &r.StatusCode, &r.IsActive, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Redirect{}, err
		}
		return store.Redirect{}, fmt.Errorf("scan redirect: %w", err)
	}
	return r, nil
}
