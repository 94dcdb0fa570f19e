// Package config loads and validates site service configuration via Viper.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// Storage backends accepted by storage.backend.
const (
	StorageMemory = "memory"
	StorageLocal  = "local"
	StorageGCS    = "gcs"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Site      SiteConfig      `mapstructure:"site"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Redirects RedirectsConfig `mapstructure:"redirects"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	PubSub    PubSubConfig    `mapstructure:"pubsub"`
	Contact   ContactConfig   `mapstructure:"contact"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

// SiteConfig describes the public site.
type SiteConfig struct {
	// BaseURL is the canonical origin used in the sitemap.
	BaseURL string `mapstructure:"base_url"`
	// StaticDir, when set, is served for routes nothing else handles.
	StaticDir string `mapstructure:"static_dir"`
	// SitemapPaths are the fixed marketing pages listed in the sitemap.
	SitemapPaths []string `mapstructure:"sitemap_paths"`
	// TrustProxyHeaders honors X-Forwarded-Proto/Host when building redirect origins.
	TrustProxyHeaders bool `mapstructure:"trust_proxy_headers"`
}

// AdminConfig gates the admin API.
type AdminConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	CookieName  string `mapstructure:"cookie_name"`
	CookieValue string `mapstructure:"cookie_value"`
}

// RedirectsConfig tunes the redirect cache.
type RedirectsConfig struct {
	TTL          time.Duration `mapstructure:"ttl"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	Table        string        `mapstructure:"table"`
}

// DatabaseConfig controls access to Postgres. An empty DSN selects the
// in-memory repositories.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	ContactTable    string        `mapstructure:"contact_table"`
	ContentTable    string        `mapstructure:"content_table"`
}

// StorageConfig selects where generated artifacts such as the sitemap are written.
type StorageConfig struct {
	Backend      string `mapstructure:"backend"`
	Bucket       string `mapstructure:"bucket"`
	BaseDir      string `mapstructure:"base_dir"`
	SitemapPath  string `mapstructure:"sitemap_path"`
	CacheControl string `mapstructure:"cache_control"`
}

// PubSubConfig holds the topic contact notifications are published to.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// Enabled reports whether a topic is configured.
func (p PubSubConfig) Enabled() bool {
	return p.ProjectID != "" && p.TopicName != ""
}

// ContactConfig limits the contact form.
type ContactConfig struct {
	RatePerMinute float64 `mapstructure:"rate_per_minute"`
	Burst         int     `mapstructure:"burst"`
	MaxBodyBytes  int64   `mapstructure:"max_body_bytes"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
	// Output is a file path or zap sink URL; empty means stderr.
	Output string `mapstructure:"output"`
}

// TracingConfig controls OpenTelemetry tracing.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// Load builds a Config from disk/environment. Environment variables use the
// PAINTCO_ prefix with dots replaced by underscores, e.g. PAINTCO_REDIRECTS_TTL.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PAINTCO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_header_timeout", "5s")
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("site.base_url", "http://localhost:8080")
	v.SetDefault("site.static_dir", "")
	v.SetDefault("site.sitemap_paths", []string{"/", "/about", "/services", "/gallery", "/blog", "/contact"})
	v.SetDefault("site.trust_proxy_headers", false)
	v.SetDefault("admin.enabled", false)
	v.SetDefault("admin.cookie_name", "paintco_admin")
	v.SetDefault("admin.cookie_value", "")
	v.SetDefault("redirects.ttl", "5m")
	v.SetDefault("redirects.fetch_timeout", "3s")
	v.SetDefault("redirects.table", "redirects")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 0)
	v.SetDefault("database.max_conn_lifetime", "30m")
	v.SetDefault("database.contact_table", "contact_submissions")
	v.SetDefault("database.content_table", "content_pages")
	v.SetDefault("storage.backend", StorageMemory)
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.base_dir", "data/public")
	v.SetDefault("storage.sitemap_path", "sitemap.xml")
	v.SetDefault("storage.cache_control", "public, max-age=3600")
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic_name", "")
	v.SetDefault("contact.rate_per_minute", 3)
	v.SetDefault("contact.burst", 3)
	v.SetDefault("contact.max_body_bytes", 64<<10)
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
	v.SetDefault("logging.output", "")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "paintco-web")
	v.SetDefault("tracing.sample_ratio", 0.1)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Redirects.TTL <= 0 {
		return fmt.Errorf("redirects.ttl must be > 0")
	}
	if c.Redirects.FetchTimeout <= 0 {
		return fmt.Errorf("redirects.fetch_timeout must be > 0")
	}
	base, err := url.Parse(c.Site.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return fmt.Errorf("site.base_url must be an absolute URL, got %q", c.Site.BaseURL)
	}
	if c.Admin.Enabled && c.Admin.CookieValue == "" {
		return fmt.Errorf("admin.cookie_value must be set when admin is enabled")
	}
	switch c.Storage.Backend {
	case StorageMemory:
	case StorageLocal:
		if c.Storage.BaseDir == "" {
			return fmt.Errorf("storage.base_dir is required for the local backend")
		}
	case StorageGCS:
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required for the gcs backend")
		}
	default:
		return fmt.Errorf("storage.backend must be one of memory, local, gcs, got %q", c.Storage.Backend)
	}
	if (c.PubSub.ProjectID == "") != (c.PubSub.TopicName == "") {
		return fmt.Errorf("pubsub.project_id and pubsub.topic_name must be set together")
	}
	if c.Contact.Burst < 0 || c.Contact.MaxBodyBytes <= 0 {
		return fmt.Errorf("contact.burst must be >= 0 and contact.max_body_bytes > 0")
	}
	if c.Logging.Level != "" {
		if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
			return fmt.Errorf("logging.level: %w", err)
		}
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio must be within [0, 1]")
	}
	return nil
}
