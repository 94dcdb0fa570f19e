package contact

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/paintco-web/internal/metrics"
	"github.com/JakeFAU/paintco-web/internal/policy/ratelimit"
	"github.com/JakeFAU/paintco-web/internal/publisher"
	"github.com/JakeFAU/paintco-web/internal/store"
)

// MaxMessageLength caps the free-text message, counted in runes.
const MaxMessageLength = 5000

const maxFieldLength = 200

// ErrRateLimited is returned when a client submits too often.
var ErrRateLimited = errors.New("too many contact submissions")

// ValidationError lists the fields that failed validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid contact submission: " + strings.Join(parts, "; ")
}

// Unwrap lets callers match on store.ErrInvalid.
func (e *ValidationError) Unwrap() error { return store.ErrInvalid }

// Request is the JSON body accepted from the form.
type Request struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
	Service string `json:"service"`
}

// IDGenerator issues submission IDs.
type IDGenerator interface {
	NewID() (uuid.UUID, error)
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// Service handles contact submissions.
type Service struct {
	repo    store.ContactRepository
	pub     publisher.Publisher
	limiter *ratelimit.Limiter
	ids     IDGenerator
	clock   Clock
	logger  *zap.Logger
}

// NewService wires a Service. The publisher and limiter are optional.
func NewService(
	repo store.ContactRepository,
	pub publisher.Publisher,
	limiter *ratelimit.Limiter,
	ids IDGenerator,
	clock Clock,
	logger *zap.Logger,
) (*Service, error) {
	if repo == nil {
		return nil, errors.New("contact repository is required")
	}
	if ids == nil || clock == nil {
		return nil, errors.New("id generator and clock are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, pub: pub, limiter: limiter, ids: ids, clock: clock, logger: logger}, nil
}

// Submit validates req, stores it and publishes a notification. clientKey
// identifies the sender for rate limiting (normally the remote IP). A publish
// failure is logged but does not fail the call once the submission is stored.
func (s *Service) Submit(ctx context.Context, req Request, clientKey string) (store.ContactSubmission, error) {
	if s.limiter != nil && !s.limiter.Allow(clientKey) {
		metrics.ObserveContactSubmission(metrics.ContactRateLimited)
		return store.ContactSubmission{}, ErrRateLimited
	}

	req = normalize(req)
	if err := Validate(req); err != nil {
		metrics.ObserveContactSubmission(metrics.ContactInvalid)
		return store.ContactSubmission{}, err
	}

	id, err := s.ids.NewID()
	if err != nil {
		return store.ContactSubmission{}, fmt.Errorf("assign submission id: %w", err)
	}
	sub := store.ContactSubmission{
		ID:          id,
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Service:     req.Service,
		Message:     req.Message,
		RemoteAddr:  clientKey,
		SubmittedAt: s.clock.Now(),
	}
	if err := s.repo.SaveSubmission(ctx, sub); err != nil {
		metrics.ObserveContactSubmission(metrics.ContactFailed)
		return store.ContactSubmission{}, fmt.Errorf("save contact submission: %w", err)
	}
	metrics.ObserveContactSubmission(metrics.ContactAccepted)

	if s.pub != nil {
		msgID, err := s.pub.Publish(ctx, publisher.Event{Type: publisher.EventContactSubmitted, Payload: sub})
		if err != nil {
			s.logger.Warn("contact notification not published",
				zap.String("submission_id", sub.ID.String()),
				zap.Error(err),
			)
		} else {
			s.logger.Debug("contact notification published",
				zap.String("submission_id", sub.ID.String()),
				zap.String("message_id", msgID),
			)
		}
	}
	return sub, nil
}

// Validate checks required fields and lengths.
func Validate(req Request) error {
	fields := map[string]string{}
	if req.Name == "" {
		fields["name"] = "required"
	} else if utf8.RuneCountInString(req.Name) > maxFieldLength {
		fields["name"] = "too long"
	}
	switch {
	case req.Email == "":
		fields["email"] = "required"
	case !validEmail(req.Email):
		fields["email"] = "not a valid address"
	}
	if utf8.RuneCountInString(req.Phone) > maxFieldLength {
		fields["phone"] = "too long"
	}
	if utf8.RuneCountInString(req.Service) > maxFieldLength {
		fields["service"] = "too long"
	}
	switch {
	case req.Message == "":
		fields["message"] = "required"
	case utf8.RuneCountInString(req.Message) > MaxMessageLength:
		fields["message"] = fmt.Sprintf("must be at most %d characters", MaxMessageLength)
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func normalize(req Request) Request {
	return Request{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Phone:   strings.TrimSpace(req.Phone),
		Message: strings.TrimSpace(req.Message),
		Service: strings.TrimSpace(req.Service),
	}
}

func validEmail(addr string) bool {
	parsed, err := mail.ParseAddress(addr)
	if err != nil || parsed.Address != addr {
		return false
	}
	at := strings.LastIndex(addr, "@")
	domain := addr[at+1:]
	return strings.Contains(domain, ".") && !strings.HasSuffix(domain, ".")
}
