package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/paintco-web/internal/redirect"
	"github.com/JakeFAU/paintco-web/internal/store"
)

type redirectEnvelope struct {
	Redirect redirectDTO `json:"redirect"`
}

func TestAdminRoutesRequireCookie(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/admin/api/redirects", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/admin/api/redirects", nil)
	req.AddCookie(&http.Cookie{Name: "paintco_admin", Value: "guess"})
	require.Equal(t, http.StatusUnauthorized, env.do(req).Code)

	rec = env.do(adminRequest(http.MethodGet, "/admin/api/redirects", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"redirects":[]}`, rec.Body.String())
}

func TestAdminRoutesDisabled(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil, func(o *Options, _ *Deps) { o.AdminEnabled = false })

	rec := env.do(adminRequest(http.MethodGet, "/admin/api/redirects", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminRedirectLifecycleInvalidatesResolver(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)

	// Load an empty snapshot first so the new rule only appears after invalidation.
	rec := env.do(httptest.NewRequest(http.MethodGet, "http://www.example-painting.com/spring-sale", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.True(t, env.resolver.Status().Loaded)

	rec = env.do(adminRequest(http.MethodPost, "/admin/api/redirects",
		strings.NewReader(`{"from_path":"spring-sale","to_path":"/promotions/spring/"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created redirectEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "/spring-sale", created.Redirect.FromPath)
	require.Equal(t, http.StatusMovedPermanently, created.Redirect.StatusCode)
	require.True(t, created.Redirect.IsActive)
	require.Equal(t, "00000000-0000-7000-8000-000000000001", created.Redirect.ID)
	require.True(t, env.resolver.Status().Stale)

	rec = env.do(httptest.NewRequest(http.MethodGet, "http://www.example-painting.com/spring-sale/", nil))
	require.Equal(t, http.StatusMovedPermanently, rec.Code)
	require.Equal(t, "http://www.example-painting.com/promotions/spring/", rec.Header().Get("Location"))

	path := "/admin/api/redirects/" + created.Redirect.ID
	rec = env.do(adminRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	env.clock.Advance(time.Hour)
	rec = env.do(adminRequest(http.MethodPut, path,
		strings.NewReader(`{"from_path":"/spring-sale","to_path":"https://shop.example.org/spring","status_code":302}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	var updated redirectEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.True(t, updated.Redirect.IsActive, "omitted is_active keeps the stored value")
	require.Equal(t, created.Redirect.CreatedAt, updated.Redirect.CreatedAt)
	require.True(t, updated.Redirect.UpdatedAt.After(created.Redirect.UpdatedAt))

	rec = env.do(httptest.NewRequest(http.MethodGet, "/spring-sale", nil))
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "https://shop.example.org/spring", rec.Header().Get("Location"))

	rec = env.do(adminRequest(http.MethodDelete, path, nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/spring-sale", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(adminRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminDeactivatedRuleStopsRedirecting(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	rec := env.do(adminRequest(http.MethodPost, "/admin/api/redirects",
		strings.NewReader(`{"from_path":"/old","to_path":"/new","status_code":308}`)))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created redirectEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	require.Equal(t, http.StatusPermanentRedirect, env.do(httptest.NewRequest(http.MethodGet, "/old", nil)).Code)

	rec = env.do(adminRequest(http.MethodPut, "/admin/api/redirects/"+created.Redirect.ID,
		strings.NewReader(`{"from_path":"/old","to_path":"/new","status_code":308,"is_active":false}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	require.Equal(t, http.StatusNotFound, env.do(httptest.NewRequest(http.MethodGet, "/old", nil)).Code)
}

func TestAdminCreateErrors(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, []store.Redirect{
		{FromPath: "/taken", ToPath: "/elsewhere", StatusCode: 301, IsActive: true},
	})

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "malformed json", body: `{`, want: http.StatusBadRequest},
		{name: "missing destination", body: `{"from_path":"/a"}`, want: http.StatusBadRequest},
		{name: "unsupported status", body: `{"from_path":"/a","to_path":"/b","status_code":200}`, want: http.StatusBadRequest},
		{name: "duplicate from_path", body: `{"from_path":"/taken","to_path":"/b"}`, want: http.StatusConflict},
	}
	for _, tt := range tests {
		rec := env.do(adminRequest(http.MethodPost, "/admin/api/redirects", strings.NewReader(tt.body)))
		require.Equal(t, tt.want, rec.Code, tt.name)
	}
}

func TestAdminGetAndListErrors(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)

	rec := env.do(adminRequest(http.MethodGet, "/admin/api/redirects/not-a-uuid", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(adminRequest(http.MethodGet, "/admin/api/redirects/00000000-0000-7000-8000-000000000099", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(adminRequest(http.MethodDelete, "/admin/api/redirects/00000000-0000-7000-8000-000000000099", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(adminRequest(http.MethodGet, "/admin/api/redirects?limit=zero", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(adminRequest(http.MethodGet, "/admin/api/redirects?offset=-1", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminListPaging(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, []store.Redirect{
		{FromPath: "/a", ToPath: "/1", StatusCode: 301, IsActive: true},
		{FromPath: "/b", ToPath: "/2", StatusCode: 301, IsActive: false},
		{FromPath: "/c", ToPath: "/3", StatusCode: 301, IsActive: true},
	})

	rec := env.do(adminRequest(http.MethodGet, "/admin/api/redirects?limit=2&offset=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Redirects []redirectDTO `json:"redirects"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Redirects, 2)
	require.Equal(t, "/b", body.Redirects[0].FromPath)
	require.False(t, body.Redirects[0].IsActive)
}

func TestAdminRefresh(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, []store.Redirect{
		{FromPath: "/a", ToPath: "/1", StatusCode: 301, IsActive: true},
		{FromPath: "/b", ToPath: "", StatusCode: 301, IsActive: true},
	})

	rec := env.do(adminRequest(http.MethodPost, "/admin/api/redirects/refresh", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var dto refreshDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	require.Equal(t, "succeeded", dto.Outcome)
	require.Equal(t, 1, dto.Rules)
	require.Equal(t, 1, dto.Skipped)
	require.NotNil(t, dto.RefreshedAt)
}

func TestAdminRefreshFailureReports503(t *testing.T) {
	t.Parallel()

	resolver, err := redirect.NewResolver(failingSource{}, redirect.Config{}, &fakeClock{}, zap.NewNop())
	require.NoError(t, err)
	env := newTestEnv(t, nil, func(_ *Options, d *Deps) { d.Resolver = resolver })

	rec := env.do(adminRequest(http.MethodPost, "/admin/api/redirects/refresh", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var dto refreshDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	require.Equal(t, "failed", dto.Outcome)
	require.Contains(t, dto.Error, "database unavailable")
	require.Nil(t, dto.RefreshedAt)
}
