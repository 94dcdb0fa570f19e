package api

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/paintco-web/internal/hash/sha256"
	"github.com/JakeFAU/paintco-web/internal/sitemap"
)

const sitemapTimeout = 5 * time.Second

type siteHandler struct {
	sitemap *sitemap.Generator
	hasher  *sha256.Hasher
	logger  *zap.Logger
}

// sitemapXML renders the sitemap on every request and answers 304 when the
// client already holds the same document.

func (h *siteHandler) sitemapXML(w http.ResponseWriter, r *http.Request) {
	if h.sitemap == nil {
		writeError(w, http.StatusServiceUnavailable, "sitemap unavailable")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), sitemapTimeout)
	defer cancel()

	doc, err := h.sitemap.Render(ctx)
	if err != nil {
		h.logger.Error("render sitemap failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to render sitemap")
		return
	}
	etag := h.hasher.ETag(doc)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if inm := r.Header.Get("If-None-Match"); inm != "" && sha256.Matches(inm, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", sitemap.ContentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc); err != nil {
		h.logger.Debug("write sitemap failed", zap.Error(err))
	}
}
