package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Redirects.TTL != 5*time.Minute {
		t.Fatalf("expected default ttl 5m, got %v", cfg.Redirects.TTL)
	}
	if cfg.Redirects.FetchTimeout != 3*time.Second {
		t.Fatalf("expected default fetch timeout 3s, got %v", cfg.Redirects.FetchTimeout)
	}
	if cfg.Storage.Backend != StorageMemory || cfg.Database.DSN != "" {
		t.Fatalf("expected in-memory defaults, got %+v %+v", cfg.Storage, cfg.Database)
	}
	if cfg.PubSub.Enabled() {
		t.Fatal("expected pubsub disabled by default")
	}
	if len(cfg.Site.SitemapPaths) == 0 || cfg.Site.SitemapPaths[0] != "/" {
		t.Fatalf("expected default sitemap paths, got %v", cfg.Site.SitemapPaths)
	}
}

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  port: 9090
  shutdown_timeout: 20s
site:
  base_url: https://www.example-painting.com
  static_dir: ./public
  sitemap_paths: ["/", "/services/cabinet-refinishing"]
admin:
  enabled: true
  cookie_value: s3cret
redirects:
  ttl: 90s
  fetch_timeout: 500ms
database:
  dsn: postgres://site:pw@localhost:5432/site
  max_conns: 4
storage:
  backend: gcs
  bucket: paintco-public
pubsub:
  project_id: paintco
  topic_name: contact-submissions
contact:
  rate_per_minute: 1.5
  burst: 2
logging:
  development: false
  level: warn
tracing:
  enabled: true
  sample_ratio: 1
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 || cfg.Server.ShutdownTimeout != 20*time.Second {
		t.Fatalf("expected server overrides, got %+v", cfg.Server)
	}
	if cfg.Redirects.TTL != 90*time.Second || cfg.Redirects.FetchTimeout != 500*time.Millisecond {
		t.Fatalf("expected redirect overrides, got %+v", cfg.Redirects)
	}
	if !cfg.Admin.Enabled || cfg.Admin.CookieValue != "s3cret" || cfg.Admin.CookieName != "paintco_admin" {
		t.Fatalf("expected admin overrides with default cookie name, got %+v", cfg.Admin)
	}
	if cfg.Database.MaxConns != 4 || cfg.Database.DSN == "" {
		t.Fatalf("expected database overrides, got %+v", cfg.Database)
	}
	if cfg.Storage.Backend != StorageGCS || cfg.Storage.Bucket != "paintco-public" {
		t.Fatalf("expected gcs storage, got %+v", cfg.Storage)
	}
	if !cfg.PubSub.Enabled() {
		t.Fatal("expected pubsub enabled")
	}
	if cfg.Contact.RatePerMinute != 1.5 || cfg.Contact.Burst != 2 {
		t.Fatalf("expected contact overrides, got %+v", cfg.Contact)
	}
	if len(cfg.Site.SitemapPaths) != 2 {
		t.Fatalf("expected sitemap paths from file, got %v", cfg.Site.SitemapPaths)
	}
	if cfg.Logging.Development || cfg.Logging.Level != "warn" || !cfg.Tracing.Enabled {
		t.Fatalf("expected logging/tracing overrides")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PAINTCO_REDIRECTS_TTL", "30s")
	t.Setenv("PAINTCO_SERVER_PORT", "9191")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Redirects.TTL != 30*time.Second {
		t.Fatalf("expected env ttl 30s, got %v", cfg.Redirects.TTL)
	}
	if cfg.Server.Port != 9191 {
		t.Fatalf("expected env port 9191, got %d", cfg.Server.Port)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Server:    ServerConfig{Port: 8080},
		Site:      SiteConfig{BaseURL: "https://example.com"},
		Redirects: RedirectsConfig{TTL: time.Minute, FetchTimeout: time.Second},
		Storage:   StorageConfig{Backend: StorageMemory},
		Contact:   ContactConfig{MaxBodyBytes: 1024},
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("base config should validate: %v", err)
	}

	tests := []struct {
		name string
		mod  func(*Config)
		want string
	}{
		{name: "invalid port", mod: func(c *Config) { c.Server.Port = 0 }, want: "server.port"},
		{name: "zero ttl", mod: func(c *Config) { c.Redirects.TTL = 0 }, want: "redirects.ttl"},
		{name: "zero fetch timeout", mod: func(c *Config) { c.Redirects.FetchTimeout = 0 }, want: "redirects.fetch_timeout"},
		{name: "relative base url", mod: func(c *Config) { c.Site.BaseURL = "/site" }, want: "site.base_url"},
		{name: "admin without secret", mod: func(c *Config) { c.Admin.Enabled = true }, want: "admin.cookie_value"},
		{name: "gcs without bucket", mod: func(c *Config) { c.Storage.Backend = StorageGCS }, want: "storage.bucket"},
		{name: "local without dir", mod: func(c *Config) { c.Storage.Backend = StorageLocal }, want: "storage.base_dir"},
		{name: "unknown backend", mod: func(c *Config) { c.Storage.Backend = "s3" }, want: "storage.backend"},
		{name: "half pubsub", mod: func(c *Config) { c.PubSub.ProjectID = "paintco" }, want: "pubsub"},
		{name: "bad sample ratio", mod: func(c *Config) { c.Tracing.SampleRatio = 2 }, want: "tracing.sample_ratio"},
		{name: "unknown log level", mod: func(c *Config) { c.Logging.Level = "loud" }, want: "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := base
			tt.mod(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
