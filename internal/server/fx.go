// Package server runs the public HTTP service on top of the application services.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/paintco-web/internal/api"
	"github.com/JakeFAU/paintco-web/internal/app"
	"github.com/JakeFAU/paintco-web/internal/config"
	"github.com/JakeFAU/paintco-web/internal/logging"
)

const defaultShutdownTimeout = 10 * time.Second

// Server owns the HTTP listener and the App it serves.
type Server struct {
	cfg       config.Config
	logger    *zap.Logger
	app       *app.App
	apiServer *api.Server
}

// New builds the HTTP handler tree for a.
func New(a *app.App) *Server {
	cfg := a.Config()
	logger := a.Logger()

	// Define a struct for logging only non-sensitive config fields
	type sanitizedConfig struct {
		Port         int    `json:"port"`
		BaseURL      string `json:"base_url"`
		StaticDir    string `json:"static_dir,omitempty"`
		AdminEnabled bool   `json:"admin_enabled"`
	}
	logger.Info("creating http server", zap.Any("config", sanitizedConfig{
		Port:         cfg.Server.Port,
		BaseURL:      cfg.Site.BaseURL,
		StaticDir:    cfg.Site.StaticDir,
		AdminEnabled: cfg.Admin.Enabled,
	}))

	apiServer := api.NewServer(api.Deps{
		Resolver:  a.Resolver(),
		Redirects: a.Redirects(),
		Contact:   a.Contact(),
		Sitemap:   a.Sitemap(),
		IDs:       a.IDs(),
		Clock:     a.Clock(),
	}, api.Options{
		StaticDir:         cfg.Site.StaticDir,
		TrustProxyHeaders: cfg.Site.TrustProxyHeaders,
		RequestTimeout:    cfg.Server.RequestTimeout,
		ContactMaxBody:    cfg.Contact.MaxBodyBytes,
		AdminEnabled:      cfg.Admin.Enabled,
		AdminCookieName:   cfg.Admin.CookieName,
		AdminCookieValue:  cfg.Admin.CookieValue,
	}, logger.Named("api"))

	return &Server{cfg: cfg, logger: logger, app: a, apiServer: apiServer}
}

// Build creates the logger, the App and the Server from cfg. The caller owns
// the returned Server and must call Close (Run does so on exit).
func Build(ctx context.Context, cfg config.Config) (*Server, error) {
	logger, err := logging.New(logging.FromConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}
	zap.ReplaceGlobals(logger)

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("app init failed: %w", err)
	}
	return New(a), nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.apiServer.Handler()
}

// Run listens on the configured port and blocks until ctx is canceled or a
// SIGINT/SIGTERM arrives, then drains in-flight requests and closes the App.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Server.Port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	readHeaderTimeout := s.cfg.Server.ReadHeaderTimeout
	if readHeaderTimeout <= 0 {
		readHeaderTimeout = 5 * time.Second
	}
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info("http server started", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", zap.Error(err))
			serveErr <- err
			stop()
		}
		close(serveErr)
	}()

	<-ctx.Done()
	s.logger.Info("shutdown initiated")

	timeout := s.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("server shutdown error", zap.Error(err))
	}
	closeErr := s.Close(shutdownCtx)
	if err := <-serveErr; err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	return closeErr
}

// Close releases the App's backends and flushes the logger.
func (s *Server) Close(ctx context.Context) error {
	err := s.app.Close(ctx)
	if err != nil {
		s.logger.Warn("application close failed", zap.Error(err))
	}
	s.logger.Info("shutdown complete")
	// Sync on a console writer can fail with EINVAL.
	_ = s.logger.Sync()
	return err
}
