package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type opsHandler struct {
	resolver Resolver
}

func (h *opsHandler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readyz always answers 200: pages render without redirect rules, so a store
// outage only shows up in the payload.
func (h *opsHandler) readyz(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{"status": "ready"}
	if h.resolver != nil {
		st := h.resolver.Status()
		redirects := map[string]any{
			"loaded": st.Loaded,
			"rules":  st.Rules,
			"stale":  st.Stale,
		}
		if !st.RefreshedAt.IsZero() {
			redirects["refreshed_at"] = st.RefreshedAt
			redirects["age_seconds"] = int64(time.Since(st.RefreshedAt).Seconds())
		}
		body["redirects"] = redirects
	}
	writeJSON(w, http.StatusOK, body)
}

// staticHandler serves files from dir for unmatched routes, or a JSON 404 when
// no directory is configured. Extensionless paths fall back to index.html in
// the matching directory via http.FileServer.
func staticHandler(dir string) http.HandlerFunc {
	if dir == "" {
		return func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, http.StatusNotFound, "not found")
		}
	}
	root := http.Dir(dir)
	files := http.FileServer(root)
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		clean := filepath.Clean("/" + strings.TrimPrefix(r.URL.Path, "/"))
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(clean))); err != nil {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		files.ServeHTTP(w, r)
	}
}
