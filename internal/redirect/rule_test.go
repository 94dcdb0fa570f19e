package redirect

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/paintco-web/internal/store"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	got, err := Normalize(store.Redirect{FromPath: "  old-page/ ", ToPath: " /new-page/ "})
	require.NoError(t, err)
	require.Equal(t, "/old-page/", got.FromPath)
	require.Equal(t, "/new-page/", got.ToPath)
	require.Equal(t, 301, got.StatusCode)
}

func TestNormalizeRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   store.Redirect
		want string
	}{
		{name: "missing from", in: store.Redirect{ToPath: "/x"}, want: "from_path is required"},
		{name: "missing to", in: store.Redirect{FromPath: "/x"}, want: "to_path is required"},
		{name: "query in from", in: store.Redirect{FromPath: "/x?y=1", ToPath: "/z"}, want: "bare path"},
		{name: "non redirect status", in: store.Redirect{FromPath: "/x", ToPath: "/z", StatusCode: 200}, want: "not a redirect status"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Normalize(tc.in)
			require.ErrorIs(t, err, store.ErrInvalid)
			require.Contains(t, err.Error(), tc.want)
		})
	}
}
