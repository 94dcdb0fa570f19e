package redirect

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/paintco-web/internal/store"
)

func TestSnapshotMatch(t *testing.T) {
	t.Parallel()

	snap := Snapshot{
		"/old":            {Destination: "/new", StatusCode: 301},
		"/services/":      {Destination: "/painting/", StatusCode: 308},
		"/cabinets":       {Destination: "/kitchen-cabinets/", StatusCode: 302},
		"/":               {Destination: "/home/", StatusCode: 302},
		"/exterior/decks": {Destination: "https://example.com/decks", StatusCode: 301},
	}

	tests := []struct {
		name    string
		path    string
		wantKey string
		wantOK  bool
	}{
		{name: "exact match", path: "/old", wantKey: "/old", wantOK: true},
		{name: "adds trailing slash", path: "/services", wantKey: "/services/", wantOK: true},
		{name: "strips trailing slash", path: "/cabinets/", wantKey: "/cabinets", wantOK: true},
		{name: "exact wins over variant", path: "/services/", wantKey: "/services/", wantOK: true},
		{name: "root only as-is", path: "/", wantKey: "/", wantOK: true},
		{name: "nested path", path: "/exterior/decks/", wantKey: "/exterior/decks", wantOK: true},
		{name: "no match", path: "/unmapped", wantOK: false},
		{name: "only one slash stripped", path: "/cabinets//", wantOK: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			key, _, ok := snap.Match(tc.path)
			require.Equal(t, tc.wantOK, ok)
			require.Equal(t, tc.wantKey, key)
		})
	}
}

func TestSnapshotMatchRootNeverStripped(t *testing.T) {
	t.Parallel()

	require.Equal(t, []string{"/"}, candidates("/"))

	// An empty key must never be consulted for "/".
	snap := Snapshot{"": {Destination: "/trap", StatusCode: 301}}
	_, _, ok := snap.Match("/")
	require.False(t, ok)
}

func TestBuildSnapshotSkipsMalformedRows(t *testing.T) {
	t.Parallel()

	rows := []store.Redirect{
		{FromPath: "/a", ToPath: "/b", StatusCode: 301},
		{FromPath: "", ToPath: "/b", StatusCode: 301},
		{FromPath: "/c", ToPath: "", StatusCode: 301},
		{FromPath: "/d", ToPath: "/e", StatusCode: 0},
		{FromPath: "/odd", ToPath: "/new", StatusCode: 1000},
		{FromPath: "/neg", ToPath: "/new", StatusCode: -301},
		{FromPath: "/low", ToPath: "/new", StatusCode: 42},
		{FromPath: "/a", ToPath: "/other", StatusCode: 302},
	}

	snap, skipped := BuildSnapshot(rows)

	require.Len(t, snap, 1)
	require.Equal(t, Target{Destination: "/b", StatusCode: 301}, snap["/a"])
	require.Len(t, skipped, 7)
	require.Equal(t, "missing from_path", skipped[0].Reason)
	require.Equal(t, "missing to_path", skipped[1].Reason)
	require.Equal(t, "missing status_code", skipped[2].Reason)
	for i, from := range []string{"/odd", "/neg", "/low"} {
		require.Equal(t, SkippedRow{FromPath: from, Reason: "invalid status_code"}, skipped[3+i])
	}
	require.Equal(t, "duplicate from_path", skipped[6].Reason)
}

func TestBuildSnapshotEmpty(t *testing.T) {
	t.Parallel()

	snap, skipped := BuildSnapshot(nil)
	require.NotNil(t, snap)
	require.Empty(t, snap)
	require.Empty(t, skipped)
}
