package postgres

import (
	"context"
	"fmt"

	"github.com/JakeFAU/paintco-web/internal/store"
)

// ContactStore writes contact form submissions.
type ContactStore struct {
	db    DB
	table string
}

// NewContactStore builds a ContactStore. An empty table defaults to "contact_submissions".
func NewContactStore(db DB, table string) (*ContactStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	t, err := tableName(table, "contact_submissions")
	if err != nil {
		return nil, err
	}
	return &ContactStore{db: db, table: t}, nil
}

// SaveSubmission inserts one submission.
func (s *ContactStore) SaveSubmission(ctx context.Context, sub store.ContactSubmission) error {
	query := fmt.Sprintf(`
INSERT INTO %s (id, name, email, phone, service, message, remote_addr, submitted_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, s.table)

	_, err := s.db.Exec(ctx, query,
		sub.ID, sub.Name, sub.Email, sub.Phone, sub.Service, sub.Message, sub.RemoteAddr, sub.SubmittedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("insert contact submission: %w", err)
	}
	return nil
}
