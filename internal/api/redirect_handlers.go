package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/paintco-web/internal/clock/system"
	idgen "github.com/JakeFAU/paintco-web/internal/id/uuid"
	"github.com/JakeFAU/paintco-web/internal/redirect"
	"github.com/JakeFAU/paintco-web/internal/store"
)

const (
	defaultRedirectLimit = 50
	maxRedirectLimit     = 500
	adminTimeout         = 5 * time.Second
)

// RedirectHandler exposes admin CRUD over redirect rules. Every successful
// write invalidates the resolver so the next lookup reloads the rules.
type RedirectHandler struct {
	repo     store.RedirectRepository
	resolver Resolver
	ids      IDGenerator
	clock    Clock
	timeout  time.Duration
	logger   *zap.Logger
}

// NewRedirectHandler wires the repository, resolver and logger.
func NewRedirectHandler(
	repo store.RedirectRepository,
	resolver Resolver,
	ids IDGenerator,
	clock Clock,
	logger *zap.Logger,
) *RedirectHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ids == nil {
		ids = idgen.New()
	}
	if clock == nil {
		clock = system.New()
	}
	return &RedirectHandler{
		repo:     repo,
		resolver: resolver,
		ids:      ids,
		clock:    clock,
		timeout:  adminTimeout,
		logger:   logger,
	}
}

type redirectRequest struct {
	FromPath   string `json:"from_path"`
	ToPath     string `json:"to_path"`
	StatusCode int    `json:"status_code"`
	IsActive   *bool  `json:"is_active"`
}

type redirectDTO struct {
	ID         string    `json:"id"`
	FromPath   string    `json:"from_path"`
	ToPath     string    `json:"to_path"`
	StatusCode int       `json:"status_code"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type refreshDTO struct {
	Outcome     string     `json:"outcome"`
	Rules       int        `json:"rules"`
	Skipped     int        `json:"skipped"`
	RefreshedAt *time.Time `json:"refreshed_at,omitempty"`
	DurationMS  int64      `json:"duration_ms"`
	Error       string     `json:"error,omitempty"`
}

// List handles GET /admin/api/redirects?limit=&offset=. It returns
// {"redirects": [...]} on success, 400 for invalid paging, 503 when the repo
// is unavailable, or 500 if the repository call fails.
func (h *RedirectHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "redirect repository unavailable")
		return
	}
	limit, offset, err := parseLimitOffset(r, defaultRedirectLimit, maxRedirectLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	rules, err := h.repo.List(ctx, limit, offset)
	if err != nil {
		h.logger.Error("list redirects failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list redirects")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"redirects": toRedirectDTOs(rules)})
}

// Get handles GET /admin/api/redirects/{redirect_id}.
func (h *RedirectHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "redirect repository unavailable")
		return
	}
	id, err := parseRedirectID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	rule, err := h.repo.Get(ctx, id)
	if err != nil {
		h.writeStoreError(w, "get redirect", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"redirect": toRedirectDTO(rule)})
}

// Create handles POST /admin/api/redirects. New rules are active unless
// is_active is false. It returns 201 with the stored rule, 400 for invalid
// input, and 409 when from_path already has a rule.
func (h *RedirectHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "redirect repository unavailable")
		return
	}
	var req redirectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	id, err := h.ids.NewID()
	if err != nil {
		h.logger.Error("generate redirect id failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create redirect")
		return
	}
	now := h.clock.Now()
	rule, err := redirect.Normalize(store.Redirect{
		ID:         id,
		FromPath:   req.FromPath,
		ToPath:     req.ToPath,
		StatusCode: req.StatusCode,
		IsActive:   req.IsActive == nil || *req.IsActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.repo.Create(ctx, rule); err != nil {
		h.writeStoreError(w, "create redirect", err)
		return
	}
	h.invalidate()
	writeJSON(w, http.StatusCreated, map[string]any{"redirect": toRedirectDTO(rule)})
}

// Update handles PUT /admin/api/redirects/{redirect_id}. Omitted is_active
// keeps the stored value.
func (h *RedirectHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "redirect repository unavailable")
		return
	}
	id, err := parseRedirectID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req redirectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	existing, err := h.repo.Get(ctx, id)
	if err != nil {
		h.writeStoreError(w, "load redirect", err)
		return
	}
	active := existing.IsActive
	if req.IsActive != nil {
		active = *req.IsActive
	}
	rule, err := redirect.Normalize(store.Redirect{
		ID:         id,
		FromPath:   req.FromPath,
		ToPath:     req.ToPath,
		StatusCode: req.StatusCode,
		IsActive:   active,
		CreatedAt:  existing.CreatedAt,
		UpdatedAt:  h.clock.Now(),
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.repo.Update(ctx, rule); err != nil {
		h.writeStoreError(w, "update redirect", err)
		return
	}
	h.invalidate()
	writeJSON(w, http.StatusOK, map[string]any{"redirect": toRedirectDTO(rule)})
}

// Delete handles DELETE /admin/api/redirects/{redirect_id}.
func (h *RedirectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "redirect repository unavailable")
		return
	}
	id, err := parseRedirectID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.repo.Delete(ctx, id); err != nil {
		h.writeStoreError(w, "delete redirect", err)
		return
	}
	h.invalidate()
	w.WriteHeader(http.StatusNoContent)
}

// Refresh handles POST /admin/api/redirects/refresh. It reloads the rules
// immediately and reports the outcome: 200 on success, 503 when the store
// could not be read (the previous rules stay in service).
func (h *RedirectHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h.resolver == nil {
		writeError(w, http.StatusServiceUnavailable, "redirect resolver unavailable")
		return
	}
	res := h.resolver.Refresh(r.Context())
	dto := refreshDTO{
		Outcome:    res.Outcome.String(),
		Rules:      len(res.Snapshot),
		Skipped:    len(res.Skipped),
		DurationMS: res.Duration.Milliseconds(),
	}
	if res.Outcome == redirect.RefreshFailed {
		dto.Rules = h.resolver.Status().Rules
		if res.Err != nil {
			dto.Error = res.Err.Error()
		}
		writeJSON(w, http.StatusServiceUnavailable, dto)
		return
	}
	dto.RefreshedAt = &res.At
	writeJSON(w, http.StatusOK, dto)
}

func (h *RedirectHandler) invalidate() {
	if h.resolver != nil {
		h.resolver.Invalidate()
	}
}

func (h *RedirectHandler) writeStoreError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "redirect not found")
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, "a redirect for this from_path already exists")
	case errors.Is(err, store.ErrInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error(op+" failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to "+op)
	}
}

func parseRedirectID(r *http.Request) (uuid.UUID, error) {
	idStr := chi.URLParam(r, "redirect_id")
	if idStr == "" {
		return uuid.UUID{}, errors.New("redirect_id is required")
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.UUID{}, errors.New("invalid redirect_id")
	}
	return id, nil
}

func parseLimitOffset(r *http.Request, def, maxLimit int) (int, int, error) {
	q := r.URL.Query()
	limit := def
	if limStr := q.Get("limit"); limStr != "" {
		val, err := strconv.Atoi(limStr)
		if err != nil || val <= 0 {
			return 0, 0, errors.New("invalid limit")
		}
		if val > maxLimit {
			val = maxLimit
		}
		limit = val
	}
	offset := 0
	if offStr := q.Get("offset"); offStr != "" {
		val, err := strconv.Atoi(offStr)
		if err != nil || val < 0 {
			return 0, 0, errors.New("invalid offset")
		}
		offset = val
	}
	return limit, offset, nil
}

func toRedirectDTOs(in []store.Redirect) []redirectDTO {
	out := make([]redirectDTO, 0, len(in))
	for _, rule := range in {
		out = append(out, toRedirectDTO(rule))
	}
	return out
}

func toRedirectDTO(rule store.Redirect) redirectDTO {
	return redirectDTO{
		ID:         rule.ID.String(),
		FromPath:   rule.FromPath,
		ToPath:     rule.ToPath,
		StatusCode: rule.StatusCode,
		IsActive:   rule.IsActive,
		CreatedAt:  rule.CreatedAt,
		UpdatedAt:  rule.UpdatedAt,
	}
}
