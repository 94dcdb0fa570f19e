package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound signals that the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict signals a uniqueness violation (e.g. a duplicate from_path).
	ErrConflict = errors.New("record already exists")
	// ErrInvalid signals that a record failed validation before it was written.
	ErrInvalid = errors.New("invalid record")
)

// Redirect models one row of the redirects table.
type Redirect struct {
	ID uuid.UUID
	// FromPath is the inbound path, always beginning with "/". Trailing
	// slashes are stored as authored.
	FromPath string
	// ToPath is either an absolute URL or an in-site path.
	ToPath string
	// StatusCode is the HTTP status to redirect with.
	StatusCode int
	// IsActive gates whether the rule is served.
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RedirectRepository persists redirect rules.
type RedirectRepository interface {
	// ListActive returns every rule with is_active = true. Rows with missing
	// columns are returned zero-valued so callers can decide how to treat them.
	ListActive(ctx context.Context) ([]Redirect, error)
	// List returns rules ordered by from_path with limit/offset paging.
	List(ctx context.Context, limit, offset int) ([]Redirect, error)
	// Get loads one rule or returns ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (Redirect, error)
	// Create inserts a rule; a duplicate from_path yields ErrConflict.
	Create(ctx context.Context, r Redirect) error
	// Update replaces a rule by ID or returns ErrNotFound.
	Update(ctx context.Context, r Redirect) error
	// Delete removes a rule by ID or returns ErrNotFound.
	Delete(ctx context.Context, id uuid.UUID) error
}

// ContactSubmission is one message sent through the site's contact form.
type ContactSubmission struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	Service     string    `json:"service,omitempty"`
	Message     string    `json:"message"`
	RemoteAddr  string    `json:"remote_addr,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// ContactRepository stores contact form submissions.
type ContactRepository interface {
	SaveSubmission(ctx context.Context, s ContactSubmission) error
}

// PublishedPath is a content page (blog post, gallery page, service page)
// that should be listed in the sitemap.
type PublishedPath struct {
	Path      string
	UpdatedAt time.Time
}

// ContentRepository exposes read-only content metadata.
type ContentRepository interface {
	ListPublishedPaths(ctx context.Context) ([]PublishedPath, error)
}
