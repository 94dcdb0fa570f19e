package api

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/paintco-web/internal/contact"
	pubmemory "github.com/JakeFAU/paintco-web/internal/publisher/memory"
	"github.com/JakeFAU/paintco-web/internal/redirect"
	"github.com/JakeFAU/paintco-web/internal/sitemap"
	"github.com/JakeFAU/paintco-web/internal/storage/memory"
	"github.com/JakeFAU/paintco-web/internal/store"
)

const testAdminSecret = "let-me-in"

type testEnv struct {
	server    *Server
	redirects *memory.RedirectStore
	resolver  *redirect.Resolver
	clock     *fakeClock
	contacts  *memory.ContactStore
	published *pubmemory.Publisher
}

type envOption func(*Options, *Deps)

func newTestEnv(t *testing.T, seed []store.Redirect, opts ...envOption) *testEnv {
	t.Helper()

	clock := &fakeClock{now: time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)}
	repo := memory.NewRedirectStore(seed...)
	resolver, err := redirect.NewResolver(repo, redirect.Config{}, clock, zap.NewNop())
	require.NoError(t, err)

	contacts := memory.NewContactStore()
	published := pubmemory.New()
	svc, err := contact.NewService(contacts, published, nil, &fakeIDGen{}, clock, zap.NewNop())
	require.NoError(t, err)

	gen, err := sitemap.NewGenerator(sitemap.Config{
		BaseURL:     "https://www.example-painting.com",
		StaticPaths: []string{"/", "/about"},
	}, memory.NewContentStore(store.PublishedPath{Path: "/blog/spring-colors"}), nil, zap.NewNop())
	require.NoError(t, err)

	deps := Deps{
		Resolver:  resolver,
		Redirects: repo,
		Contact:   svc,
		Sitemap:   gen,
		IDs:       &fakeIDGen{},
		Clock:     clock,
	}
	options := Options{
		AdminEnabled:     true,
		AdminCookieValue: testAdminSecret,
	}
	for _, opt := range opts {
		opt(&options, &deps)
	}

	return &testEnv{
		server:    NewServer(deps, options, zap.NewNop()),
		redirects: repo,
		resolver:  resolver,
		clock:     clock,
		contacts:  contacts,
		published: published,
	}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func adminRequest(method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	req.AddCookie(&http.Cookie{Name: "paintco_admin", Value: testAdminSecret})
	return req
}

// --- helpers/fakes ---

type fakeIDGen struct {
	mu sync.Mutex
	n  int
}

func (f *fakeIDGen) NewID() (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	return uuid.MustParse(fmt.Sprintf("00000000-0000-7000-8000-%012d", f.n)), nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type countingResolver struct {
	mu    sync.Mutex
	paths []string
	d     redirect.Decision
}

func (c *countingResolver) Resolve(_ context.Context, path string) redirect.Decision {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths = append(c.paths, path)
	return c.d
}

func (c *countingResolver) Refresh(context.Context) redirect.RefreshResult {
	return redirect.RefreshResult{Outcome: redirect.RefreshFailed, Err: errors.New("not wired")}
}

func (c *countingResolver) Invalidate() {}

func (c *countingResolver) Status() redirect.Status { return redirect.Status{} }

func (c *countingResolver) seen() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.paths...)
}

type failingSource struct{}

func (failingSource) ListActive(context.Context) ([]store.Redirect, error) {
	return nil, errors.New("database unavailable")
}

type hijackableRecorder struct {
	*httptest.ResponseRecorder
	client net.Conn
}

func (h *hijackableRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	server, client := net.Pipe()
	h.client = client
	return server, bufio.NewReadWriter(bufio.NewReader(client), bufio.NewWriter(client)), nil
}

func (h *hijackableRecorder) CloseClient() error {
	if h.client != nil {
		if err := h.client.Close(); err != nil {
			return fmt.Errorf("close hijacker client: %w", err)
		}
	}
	return nil
}
