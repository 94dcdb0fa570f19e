package sha256

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHasherHashDeterministic(t *testing.T) {
	t.Parallel()

	h := New()
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	require.Equal(t, want, h.Hash([]byte("hello world")))
	require.Equal(t, h.Hash([]byte("hello world")), h.Hash([]byte("hello world")))
}

func TestETagQuotedAndContentSensitive(t *testing.T) {
	t.Parallel()

	h := New()
	tag := h.ETag([]byte("hello world"))
	require.Equal(t, `"b94d27b9934d3e08a52e52d7da7dabfa"`, tag)
	require.NotEqual(t, tag, h.ETag([]byte("hello world!")))
}

func TestMatches(t *testing.T) {
	t.Parallel()

	etag := `"abc"`
	require.True(t, Matches(`"abc"`, etag))
	require.True(t, Matches(`"zzz", W/"abc"`, etag))
	require.True(t, Matches(`*`, etag))
	require.False(t, Matches(`"abd"`, etag))
	require.False(t, Matches(``, etag))
}
