package redirect

import (
	"net/url"
	"strings"
)

// Decision is the result of Resolve. The zero value means no redirect.
type Decision struct {
	Redirect    bool
	Destination string
	StatusCode  int
	// MatchedPath is the snapshot key that produced the decision.
	MatchedPath string
}

// NoRedirect is returned when no rule applies.
var NoRedirect = Decision{}

// IsAbsolute reports whether the destination is an external URL that must be
// emitted unchanged.
func (d Decision) IsAbsolute() bool {
	return isAbsolute(d.Destination)
}

// NeedsOrigin reports whether the destination is a site-relative path that has
// to be resolved against the current request's scheme and host.
func (d Decision) NeedsOrigin() bool {
	return d.Redirect && !d.IsAbsolute()
}

// Location returns the value for the Location header. Absolute destinations
// are returned as stored; relative ones are resolved against base, which is
// the URL of the request being redirected.
func (d Decision) Location(base *url.URL) string {
	if !d.NeedsOrigin() || base == nil {
		return d.Destination
	}
	ref, err := url.Parse(d.Destination)
	if err != nil {
		origin := url.URL{Scheme: base.Scheme, Host: base.Host}
		return origin.String() + ensureLeadingSlash(d.Destination)
	}
	return base.ResolveReference(ref).String()
}

func isAbsolute(dest string) bool {
	return strings.HasPrefix(dest, "http")
}

func ensureLeadingSlash(p string) string {
	if strings.HasPrefix(p, "/") {
		return p
	}
	return "/" + p
}
