package redirect

import (
	"strings"

	"github.com/JakeFAU/paintco-web/internal/store"
)

// http.ResponseWriter.WriteHeader panics outside this range.
const (
	minStatusCode = 100
	maxStatusCode = 999
)

// Target is where a matched path is sent.
type Target struct {
	Destination string
	StatusCode  int
}

// Snapshot maps a rule's from_path to its target. A Snapshot is never mutated
// after BuildSnapshot returns it.
type Snapshot map[string]Target

// SkippedRow describes a row that BuildSnapshot refused to load.
type SkippedRow struct {
	FromPath string
	Reason   string
}

// BuildSnapshot converts active rows into a Snapshot. Rows with a missing
// from_path or to_path are skipped, as are rows whose status code is not a
// three-digit HTTP status and duplicates of an already loaded from_path
// (first row wins).
func BuildSnapshot(rows []store.Redirect) (Snapshot, []SkippedRow) {
	snap := make(Snapshot, len(rows))
	var skipped []SkippedRow
	for _, row := range rows {
		switch {
		case row.FromPath == "":
			skipped = append(skipped, SkippedRow{FromPath: row.FromPath, Reason: "missing from_path"})
			continue
		case row.ToPath == "":
			skipped = append(skipped, SkippedRow{FromPath: row.FromPath, Reason: "missing to_path"})
			continue
		case row.StatusCode == 0:
			skipped = append(skipped, SkippedRow{FromPath: row.FromPath, Reason: "missing status_code"})
			continue
		case row.StatusCode < minStatusCode || row.StatusCode > maxStatusCode:
			skipped = append(skipped, SkippedRow{FromPath: row.FromPath, Reason: "invalid status_code"})
			continue
		}
		if _, dup := snap[row.FromPath]; dup {
			skipped = append(skipped, SkippedRow{FromPath: row.FromPath, Reason: "duplicate from_path"})
			continue
		}
		snap[row.FromPath] = Target{Destination: row.ToPath, StatusCode: row.StatusCode}
	}
	return snap, skipped
}

// Match looks up p, then p with a trailing slash added (when it has none), then
// p with its trailing slash removed (when it has one and is not "/"). It
// returns the key that matched.
func (s Snapshot) Match(p string) (string, Target, bool) {
	for _, key := range candidates(p) {
		if t, ok := s[key]; ok {
			return key, t, true
		}
	}
	return "", Target{}, false
}

func candidates(p string) []string {
	switch {
	case !strings.HasSuffix(p, "/"):
		return []string{p, p + "/"}
	case p != "/":
		return []string{p, strings.TrimSuffix(p, "/")}
	default:
		return []string{p}
	}
}
