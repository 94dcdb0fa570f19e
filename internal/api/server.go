package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/paintco-web/internal/auth"
	"github.com/JakeFAU/paintco-web/internal/contact"
	"github.com/JakeFAU/paintco-web/internal/hash/sha256"
	"github.com/JakeFAU/paintco-web/internal/metrics"
	"github.com/JakeFAU/paintco-web/internal/redirect"
	"github.com/JakeFAU/paintco-web/internal/sitemap"
	"github.com/JakeFAU/paintco-web/internal/store"
	"github.com/JakeFAU/paintco-web/internal/telemetry"
)

const defaultRequestTimeout = 30 * time.Second

// Resolver is the redirect cache as seen by the HTTP layer.
type Resolver interface {
	Resolve(ctx context.Context, path string) redirect.Decision
	Refresh(ctx context.Context) redirect.RefreshResult
	Invalidate()
	Status() redirect.Status
}

// IDGenerator issues IDs for new redirect rules.
type IDGenerator interface {
	NewID() (uuid.UUID, error)
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// Deps are the collaborators the server routes to. Contact and Sitemap may be
// nil, in which case their routes answer 503.
type Deps struct {
	Resolver  Resolver
	Redirects store.RedirectRepository
	Contact   *contact.Service
	Sitemap   *sitemap.Generator
	IDs       IDGenerator
	Clock     Clock
}

// Options tune HTTP behavior.
type Options struct {
	StaticDir         string
	TrustProxyHeaders bool
	RequestTimeout    time.Duration
	ContactMaxBody    int64
	AdminEnabled      bool
	AdminCookieName   string
	AdminCookieValue  string
	// Filter decides which paths consult the resolver. Zero value uses DefaultPathFilter.
	Filter PathFilter
}

// Server wires HTTP handlers to the redirect resolver and site services.
type Server struct {
	router chi.Router
	logger *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(deps Deps, opts Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if len(opts.Filter.Prefixes) == 0 {
		opts.Filter = DefaultPathFilter()
	}
	s := &Server{logger: logger}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(telemetry.Middleware)
	r.Use(metrics.Middleware)
	r.Use(timeoutMiddleware(opts.RequestTimeout))
	if deps.Resolver != nil {
		r.Use(redirectMiddleware(deps.Resolver, opts.Filter, opts.TrustProxyHeaders, logger.Named("redirect")))
	}

	ops := &opsHandler{resolver: deps.Resolver}
	r.Route(InternalPrefix, func(r chi.Router) {
		r.Get("/healthz", ops.healthz)
		r.Get("/readyz", ops.readyz)
		r.Handle("/metrics", metrics.Handler())
	})

	site := &siteHandler{sitemap: deps.Sitemap, hasher: sha256.New(), logger: logger}
	r.Get("/sitemap.xml", site.sitemapXML)

	contactH := &contactHandler{
		svc:        deps.Contact,
		maxBody:    opts.ContactMaxBody,
		trustProxy: opts.TrustProxyHeaders,
		logger:     logger.Named("contact"),
	}
	r.Route(APIPrefix, func(r chi.Router) {
		r.Post("/contact", contactH.submit)
	})

	if opts.AdminEnabled {
		admin := NewRedirectHandler(deps.Redirects, deps.Resolver, deps.IDs, deps.Clock, logger.Named("admin"))
		r.Route(AdminPrefix+"/api", func(r chi.Router) {
			r.Use(auth.RequireAdmin(opts.AdminCookieName, opts.AdminCookieValue, logger))
			r.Route("/redirects", func(r chi.Router) {
				r.Get("/", admin.List)
				r.Post("/", admin.Create)
				r.Post("/refresh", admin.Refresh)
				r.Route("/{redirect_id}", func(r chi.Router) {
					r.Get("/", admin.Get)
					r.Put("/", admin.Update)
					r.Delete("/", admin.Delete)
				})
			})
		})
	}

	r.NotFound(staticHandler(opts.StaticDir))

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

type requestIDKey struct{}

// RequestID returns the request ID stored by the request ID middleware.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" || len(reqID) > 128 {
			reqID = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
				zap.String("request_id", RequestID(r.Context())),
			)
		})
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error("panic recovered",
						zap.Any("panic", rec),
						zap.String("path", r.URL.Path),
						zap.Stack("stack"),
					)
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := rw.ResponseWriter.(http.Hijacker); ok {
		conn, buf, err := h.Hijack()
		if err != nil {
			return nil, nil, fmt.Errorf("hijack connection: %w", err)
		}
		return conn, buf, nil
	}
	return nil, nil, errors.New("hijacker not supported")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
