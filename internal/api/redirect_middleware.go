package api

import (
	"net"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// Reserved path prefixes that never consult the redirect resolver.
const (
	InternalPrefix = "/_internal"
	APIPrefix      = "/api"
	AdminPrefix    = "/admin"
)

// PathFilter decides which request paths are eligible for redirect lookup.
type PathFilter struct {
	// Prefixes are matched on whole path segments: "/api" excludes "/api" and
	// "/api/contact" but not "/apiary".
	Prefixes []string
}

// DefaultPathFilter excludes the internal, API and admin prefixes.
func DefaultPathFilter() PathFilter {
	return PathFilter{Prefixes: []string{InternalPrefix, APIPrefix, AdminPrefix}}
}

// ShouldResolve reports whether p should be looked up. Paths containing a dot
// are treated as static assets.
func (f PathFilter) ShouldResolve(p string) bool {
	if strings.Contains(p, ".") {
		return false
	}
	for _, prefix := range f.Prefixes {
		prefix = strings.TrimRight(prefix, "/")
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return false
		}
	}
	return true
}

func redirectMiddleware(resolver Resolver, filter PathFilter, trustProxy bool, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if !filter.ShouldResolve(path) {
				next.ServeHTTP(w, r)
				return
			}
			d := resolver.Resolve(r.Context(), path)
			if !d.Redirect {
				next.ServeHTTP(w, r)
				return
			}
			location := d.Location(requestURL(r, trustProxy))
			logger.Debug("redirecting",
				zap.String("path", path),
				zap.String("matched", d.MatchedPath),
				zap.String("location", location),
				zap.Int("status", d.StatusCode),
			)
			http.Redirect(w, r, location, d.StatusCode)
		})
	}
}

// requestURL reconstructs the absolute URL the client asked for so relative
// destinations resolve against the same origin.
func requestURL(r *http.Request, trustProxy bool) *url.URL {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	host := r.Host
	if trustProxy {
		if proto := firstHeaderValue(r, "X-Forwarded-Proto"); proto == "http" || proto == "https" {
			scheme = proto
		}
		if fwdHost := firstHeaderValue(r, "X-Forwarded-Host"); fwdHost != "" {
			host = fwdHost
		}
	}
	return &url.URL{Scheme: scheme, Host: host, Path: r.URL.Path}
}

func firstHeaderValue(r *http.Request, name string) string {
	v := r.Header.Get(name)
	if i := strings.IndexByte(v, ','); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}

// clientIP returns the caller's address, preferring the first
// X-Forwarded-For hop when proxy headers are trusted.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := firstHeaderValue(r, "X-Forwarded-For"); fwd != "" {
			return fwd
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
