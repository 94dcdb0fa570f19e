// Package app initializes and holds long-lived application services, acting as a dependency injection container.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cloud.google.com/go/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/JakeFAU/paintco-web/internal/clock/system"
	"github.com/JakeFAU/paintco-web/internal/config"
	"github.com/JakeFAU/paintco-web/internal/contact"
	idgen "github.com/JakeFAU/paintco-web/internal/id/uuid"
	"github.com/JakeFAU/paintco-web/internal/policy/ratelimit"
	"github.com/JakeFAU/paintco-web/internal/publisher"
	memorypublisher "github.com/JakeFAU/paintco-web/internal/publisher/memory"
	gcppublisher "github.com/JakeFAU/paintco-web/internal/publisher/pubsub"
	"github.com/JakeFAU/paintco-web/internal/redirect"
	"github.com/JakeFAU/paintco-web/internal/sitemap"
	blobstorage "github.com/JakeFAU/paintco-web/internal/storage"
	gcsstorage "github.com/JakeFAU/paintco-web/internal/storage/gcs"
	localstorage "github.com/JakeFAU/paintco-web/internal/storage/local"
	memorystorage "github.com/JakeFAU/paintco-web/internal/storage/memory"
	pgstore "github.com/JakeFAU/paintco-web/internal/storage/postgres"
	"github.com/JakeFAU/paintco-web/internal/store"
	"github.com/JakeFAU/paintco-web/internal/telemetry"
)

// App holds all the shared, long-lived services for the application.
// It is built once at startup and handed to the HTTP server and CLI commands.
type App struct {
	cfg    config.Config
	logger *zap.Logger

	pool      *pgxpool.Pool
	gcsClient *storage.Client
	pubsub    *gcppublisher.Publisher

	redirects store.RedirectRepository
	contacts  store.ContactRepository
	content   store.ContentRepository
	blobs     blobstorage.BlobStore
	publisher publisher.Publisher

	resolver *redirect.Resolver
	contact  *contact.Service
	sitemap  *sitemap.Generator
	ids      *idgen.Generator
	clock    *system.Clock

	tracerShutdown telemetry.Shutdown

	closeOnce sync.Once
	closeErr  error
}

// Option customizes New.
type Option func(*options)

type options struct {
	redirects     store.RedirectRepository
	pubsubOptions []option.ClientOption
	gcsOptions    []option.ClientOption
}

// WithRedirectRepository replaces the configured redirect repository.
func WithRedirectRepository(repo store.RedirectRepository) Option {
	return func(o *options) { o.redirects = repo }
}

// WithPubSubOptions passes client options to the Pub/Sub client, e.g. an emulator endpoint.
func WithPubSubOptions(opts ...option.ClientOption) Option {
	return func(o *options) { o.pubsubOptions = append(o.pubsubOptions, opts...) }
}

// WithGCSOptions passes client options to the Cloud Storage client.
func WithGCSOptions(opts ...option.ClientOption) Option {
	return func(o *options) { o.gcsOptions = append(o.gcsOptions, opts...) }
}

// New creates and initializes the application services described by cfg.
// It fails fast if any configured backend cannot be reached; everything
// already opened is closed before returning the error.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{
		cfg:    cfg,
		logger: logger,
		ids:    idgen.New(),
		clock:  system.New(),
	}
	logger.Info("initializing application services",
		zap.String("storage_backend", cfg.Storage.Backend),
		zap.Bool("database", cfg.Database.DSN != ""),
		zap.Bool("pubsub", cfg.PubSub.Enabled()),
	)

	steps := []func(context.Context, *options) error{
		a.setupTracing,
		a.setupDatabase,
		a.setupStorage,
		a.setupPublisher,
		a.setupServices,
	}
	for _, step := range steps {
		if err := step(ctx, &o); err != nil {
			if cerr := a.Close(ctx); cerr != nil {
				logger.Warn("cleanup after failed init", zap.Error(cerr))
			}
			return nil, err
		}
	}

	logger.Info("application services initialized")
	return a, nil
}

// Config returns the configuration the App was built from.
func (a *App) Config() config.Config { return a.cfg }

// Logger returns the shared logger.
func (a *App) Logger() *zap.Logger { return a.logger }

// Resolver returns the redirect cache.
func (a *App) Resolver() *redirect.Resolver { return a.resolver }

// Redirects returns the redirect rule repository.
func (a *App) Redirects() store.RedirectRepository { return a.redirects }

// Contact returns the contact form service.
func (a *App) Contact() *contact.Service { return a.contact }

// Sitemap returns the sitemap generator.
func (a *App) Sitemap() *sitemap.Generator { return a.sitemap }

// IDs returns the ID generator shared by admin handlers.
func (a *App) IDs() *idgen.Generator { return a.ids }

// Clock returns the wall clock.
func (a *App) Clock() *system.Clock { return a.clock }

func (a *App) setupTracing(ctx context.Context, _ *options) error {
	shutdown, err := telemetry.InitTracing(ctx, telemetry.Config{
		Enabled:     a.cfg.Tracing.Enabled,
		ServiceName: a.cfg.Tracing.ServiceName,
		SampleRatio: a.cfg.Tracing.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("tracer init failed: %w", err)
	}
	a.tracerShutdown = shutdown
	return nil
}

func (a *App) setupDatabase(ctx context.Context, o *options) error {
	if a.cfg.Database.DSN == "" {
		a.logger.Warn("no database DSN configured, using in-memory repositories")
		a.redirects = memorystorage.NewRedirectStore()
		a.contacts = memorystorage.NewContactStore()
		a.content = memorystorage.NewContentStore()
		if o.redirects != nil {
			a.redirects = o.redirects
		}
		return nil
	}

	pool, err := pgstore.NewPool(ctx, pgstore.PoolConfig{
		DSN:             a.cfg.Database.DSN,
		MaxConns:        a.cfg.Database.MaxConns,
		MinConns:        a.cfg.Database.MinConns,
		MaxConnLifetime: a.cfg.Database.MaxConnLifetime,
	})
	if err != nil {
		return fmt.Errorf("database init failed: %w", err)
	}
	a.pool = pool

	if o.redirects != nil {
		a.redirects = o.redirects
	} else {
		a.redirects, err = pgstore.NewRedirectStore(pool, a.cfg.Redirects.Table)
		if err != nil {
			return fmt.Errorf("redirect store init failed: %w", err)
		}
	}
	if a.contacts, err = pgstore.NewContactStore(pool, a.cfg.Database.ContactTable); err != nil {
		return fmt.Errorf("contact store init failed: %w", err)
	}
	if a.content, err = pgstore.NewContentStore(pool, a.cfg.Database.ContentTable); err != nil {
		return fmt.Errorf("content store init failed: %w", err)
	}
	a.logger.Info("postgres repositories initialized",
		zap.String("redirects_table", a.cfg.Redirects.Table),
		zap.String("contact_table", a.cfg.Database.ContactTable),
		zap.String("content_table", a.cfg.Database.ContentTable),
	)
	return nil
}

func (a *App) setupStorage(ctx context.Context, o *options) error {
	switch a.cfg.Storage.Backend {
	case config.StorageGCS:
		client, err := storage.NewClient(ctx, o.gcsOptions...)
		if err != nil {
			return fmt.Errorf("gcs client init failed: %w", err)
		}
		a.gcsClient = client
		a.blobs, err = gcsstorage.New(client, gcsstorage.Config{
			Bucket:       a.cfg.Storage.Bucket,
			CacheControl: a.cfg.Storage.CacheControl,
		})
		if err != nil {
			return fmt.Errorf("gcs blob store init failed: %w", err)
		}
		a.logger.Info("using GCS storage backend", zap.String("bucket", a.cfg.Storage.Bucket))
	case config.StorageLocal:
		var err error
		a.blobs, err = localstorage.New(localstorage.Config{BaseDir: a.cfg.Storage.BaseDir})
		if err != nil {
			return fmt.Errorf("local blob store init failed: %w", err)
		}
		a.logger.Info("using local storage backend", zap.String("path", a.cfg.Storage.BaseDir))
	default:
		a.logger.Info("using in-memory storage backend")
		a.blobs = memorystorage.NewBlobStore()
	}
	return nil
}

func (a *App) setupPublisher(ctx context.Context, o *options) error {
	if !a.cfg.PubSub.Enabled() {
		a.logger.Warn("no Pub/Sub topic configured, using in-memory publisher")
		a.publisher = memorypublisher.New()
		return nil
	}
	pub, err := gcppublisher.Open(ctx, a.cfg.PubSub.ProjectID, a.cfg.PubSub.TopicName,
		a.logger.Named("pubsub"), o.pubsubOptions...)
	if err != nil {
		return fmt.Errorf("pubsub publisher init failed: %w", err)
	}
	a.pubsub = pub
	a.publisher = pub
	a.logger.Info("Pub/Sub publisher initialized",
		zap.String("project", a.cfg.PubSub.ProjectID),
		zap.String("topic", a.cfg.PubSub.TopicName),
	)
	return nil
}

func (a *App) setupServices(_ context.Context, _ *options) error {
	var err error
	a.resolver, err = redirect.NewResolver(a.redirects, redirect.Config{
		TTL:          a.cfg.Redirects.TTL,
		FetchTimeout: a.cfg.Redirects.FetchTimeout,
	}, a.clock, a.logger.Named("redirect"))
	if err != nil {
		return fmt.Errorf("redirect resolver init failed: %w", err)
	}

	limiter := ratelimit.New(ratelimit.Config{
		RatePerMinute: a.cfg.Contact.RatePerMinute,
		Burst:         a.cfg.Contact.Burst,
	})
	a.contact, err = contact.NewService(a.contacts, a.publisher, limiter, a.ids, a.clock, a.logger.Named("contact"))
	if err != nil {
		return fmt.Errorf("contact service init failed: %w", err)
	}

	a.sitemap, err = sitemap.NewGenerator(sitemap.Config{
		BaseURL:     a.cfg.Site.BaseURL,
		StaticPaths: a.cfg.Site.SitemapPaths,
		ObjectPath:  a.cfg.Storage.SitemapPath,
	}, a.content, a.blobs, a.logger.Named("sitemap"))
	if err != nil {
		return fmt.Errorf("sitemap generator init failed: %w", err)
	}
	a.logger.Debug("services initialized",
		zap.Duration("redirect_ttl", a.cfg.Redirects.TTL),
		zap.Duration("redirect_fetch_timeout", a.cfg.Redirects.FetchTimeout),
		zap.Float64("contact_rate_per_minute", a.cfg.Contact.RatePerMinute),
	)
	return nil
}

// Close shuts down every backend the App opened. It is safe to call more than
// once and on a partially initialized App.
func (a *App) Close(ctx context.Context) error {
	a.closeOnce.Do(func() { a.closeErr = a.close(ctx) })
	return a.closeErr
}

func (a *App) close(ctx context.Context) error {
	var errs []error
	if a.pubsub != nil {
		if err := a.pubsub.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.gcsClient != nil {
		if err := a.gcsClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close gcs client: %w", err))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.tracerShutdown != nil {
		if err := a.tracerShutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracer: %w", err))
		}
	}
	return errors.Join(errs...)
}
