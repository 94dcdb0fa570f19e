package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/paintco-web/internal/contact"
)

const defaultContactMaxBody = 64 << 10

type contactHandler struct {
	svc        *contact.Service
	maxBody    int64
	trustProxy bool
	logger     *zap.Logger
}

type contactResponse struct {
	ID          string    `json:"id"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// submit handles POST /api/contact. It returns 202 with the submission ID,
// 400 for malformed or invalid input, 413 for oversized bodies, 429 when the
// client is rate limited, and 500 if the submission could not be stored.
func (h *contactHandler) submit(w http.ResponseWriter, r *http.Request) {
	if h.svc == nil {
		writeError(w, http.StatusServiceUnavailable, "contact form unavailable")
		return
	}
	limit := h.maxBody
	if limit <= 0 {
		limit = defaultContactMaxBody
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	var req contact.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	sub, err := h.svc.Submit(r.Context(), req, clientIP(r, h.trustProxy))
	if err != nil {
		var verr *contact.ValidationError
		switch {
		case errors.As(err, &verr):
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "invalid submission",
				"fields": verr.Fields,
			})
		case errors.Is(err, contact.ErrRateLimited):
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "too many submissions, try again later")
		default:
			h.logger.Error("contact submission failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to submit message")
		}
		return
	}
	writeJSON(w, http.StatusAccepted, contactResponse{ID: sub.ID.String(), SubmittedAt: sub.SubmittedAt})
}
