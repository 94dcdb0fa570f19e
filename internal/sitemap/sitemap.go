// Package sitemap renders the site's sitemap.xml from static pages and
// published content, and publishes it to blob storage.
package sitemap

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/paintco-web/internal/metrics"
	"github.com/JakeFAU/paintco-web/internal/storage"
	"github.com/JakeFAU/paintco-web/internal/store"
)

const (
	// Namespace is the sitemaps.org schema namespace.
	Namespace = "http://www.sitemaps.org/schemas/sitemap/0.9"
	// ContentType is served with the rendered document.
	ContentType = "application/xml; charset=utf-8"
	// DefaultObjectPath is where Publish writes when no path is configured.
	DefaultObjectPath = "sitemap.xml"
)

// Entry is one page in the sitemap.
type Entry struct {
	Path    string
	LastMod time.Time
}

type urlset struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []urlEl  `xml:"url"`
}

type urlEl struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// CanonicalPath returns p with a leading slash and exactly one trailing slash.
// The root stays "/".
func CanonicalPath(p string) string {
	p = strings.TrimSpace(p)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	p = strings.TrimRight(p, "/")
	return p + "/"
}

// Build renders entries as a sitemaps.org urlset rooted at baseURL. Paths are
// canonicalized and deduplicated; the newest LastMod wins for duplicates.
func Build(baseURL string, entries []Entry) ([]byte, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	latest := make(map[string]time.Time, len(entries))
	for _, e := range entries {
		p := CanonicalPath(e.Path)
		if cur, ok := latest[p]; !ok || e.LastMod.After(cur) {
			latest[p] = e.LastMod
		}
	}
	paths := make([]string, 0, len(latest))
	for p := range latest {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	doc := urlset{Xmlns: Namespace, URLs: make([]urlEl, 0, len(paths))}
	for _, p := range paths {
		loc := base.ResolveReference(&url.URL{Path: p})
		el := urlEl{Loc: loc.String()}
		if mod := latest[p]; !mod.IsZero() {
			el.LastMod = mod.UTC().Format("2006-01-02")
		}
		doc.URLs = append(doc.URLs, el)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode sitemap: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Generator collects sitemap entries and renders or publishes the document.
type Generator struct {
	baseURL     string
	staticPaths []string
	content     store.ContentRepository
	blobs       storage.BlobStore
	objectPath  string
	logger      *zap.Logger
}

// Config configures a Generator.
type Config struct {
	BaseURL     string
	StaticPaths []string
	ObjectPath  string
}

// NewGenerator builds a Generator. content and blobs may be nil: without
// content only static paths are listed, and without blobs Publish fails.
func NewGenerator(cfg Config, content store.ContentRepository, blobs storage.BlobStore, logger *zap.Logger) (*Generator, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("sitemap base url is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	objectPath := cfg.ObjectPath
	if objectPath == "" {
		objectPath = DefaultObjectPath
	}
	return &Generator{
		baseURL:     cfg.BaseURL,
		staticPaths: append([]string(nil), cfg.StaticPaths...),
		content:     content,
		blobs:       blobs,
		objectPath:  objectPath,
		logger:      logger,
	}, nil
}

// Entries returns the static paths followed by published content paths.
func (g *Generator) Entries(ctx context.Context) ([]Entry, error) {
	entries := make([]Entry, 0, len(g.staticPaths))
	for _, p := range g.staticPaths {
		entries = append(entries, Entry{Path: p})
	}
	if g.content == nil {
		return entries, nil
	}
	published, err := g.content.ListPublishedPaths(ctx)
	if err != nil {
		return nil, fmt.Errorf("list published paths: %w", err)
	}
	for _, p := range published {
		entries = append(entries, Entry{Path: p.Path, LastMod: p.UpdatedAt})
	}
	return entries, nil
}

// Render returns the current sitemap document.
func (g *Generator) Render(ctx context.Context) ([]byte, error) {
	entries, err := g.Entries(ctx)
	if err != nil {
		return nil, err
	}
	return Build(g.baseURL, entries)
}

// Publish renders the sitemap and uploads it, returning the object location.
func (g *Generator) Publish(ctx context.Context, now time.Time) (string, error) {
	if g.blobs == nil {
		return "", errors.New("no blob store configured for sitemap publishing")
	}
	doc, err := g.Render(ctx)
	if err != nil {
		return "", err
	}
	location, err := g.blobs.PutObject(ctx, g.objectPath, ContentType, bytes.NewReader(doc))
	if err != nil {
		return "", fmt.Errorf("upload sitemap: %w", err)
	}
	metrics.SetSitemapPublished(now)
	g.logger.Info("sitemap published", zap.String("location", location), zap.Int("bytes", len(doc)))
	return location, nil
}
