package redirect

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/JakeFAU/paintco-web/internal/store"
)

// DefaultStatusCode is applied when a rule is entered without a status.
const DefaultStatusCode = http.StatusMovedPermanently

var allowedStatusCodes = map[int]bool{
	http.StatusMovedPermanently:  true,
	http.StatusFound:             true,
	http.StatusSeeOther:          true,
	http.StatusTemporaryRedirect: true,
	http.StatusPermanentRedirect: true,
}

// Normalize validates a rule at data-entry time. from_path is trimmed and
// forced to begin with "/", the status defaults to 301. Trailing slashes are
// left as authored since Match tolerates both forms.
func Normalize(r store.Redirect) (store.Redirect, error) {
	r.FromPath = strings.TrimSpace(r.FromPath)
	r.ToPath = strings.TrimSpace(r.ToPath)
	if r.FromPath == "" {
		return r, fmt.Errorf("%w: from_path is required", store.ErrInvalid)
	}
	if !strings.HasPrefix(r.FromPath, "/") {
		r.FromPath = "/" + r.FromPath
	}
	if strings.ContainsAny(r.FromPath, " ?#") {
		return r, fmt.Errorf("%w: from_path must be a bare path", store.ErrInvalid)
	}
	if r.ToPath == "" {
		return r, fmt.Errorf("%w: to_path is required", store.ErrInvalid)
	}
	if r.StatusCode == 0 {
		r.StatusCode = DefaultStatusCode
	}
	if !allowedStatusCodes[r.StatusCode] {
		return r, fmt.Errorf("%w: status_code %d is not a redirect status", store.ErrInvalid, r.StatusCode)
	}
	return r, nil
}
