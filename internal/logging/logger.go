// Package logging builds the zap loggers used by the site service.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/JakeFAU/paintco-web/internal/config"
)

// DefaultService is stamped on every entry when Config.Service is empty.
const DefaultService = "paintco-web"

// Config selects the encoder, minimum level and service name.
type Config struct {
	// Development switches to the colored console encoder at debug level.
	Development bool
	// Level overrides the minimum level ("debug", "info", "warn", ...).
	Level   string
	Service string
	// Outputs are zap sink URLs or file paths. Defaults to stderr.
	Outputs []string
}

// FromConfig maps the service configuration onto a logger Config. The
// service name is shared with tracing so logs and spans line up.
func FromConfig(cfg config.Config) Config {
	out := Config{
		Development: cfg.Logging.Development,
		Level:       cfg.Logging.Level,
		Service:     cfg.Tracing.ServiceName,
	}
	if cfg.Logging.Output != "" {
		out.Outputs = []string{cfg.Logging.Output}
	}
	return out
}

// New builds a zap.Logger for cfg. Every entry carries a "service" field.
func New(cfg Config) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zc.DisableStacktrace = false
	}
	zc.EncoderConfig.TimeKey = "ts"

	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}

	service := cfg.Service
	if service == "" {
		service = DefaultService
	}
	zc.InitialFields = map[string]any{"service": service}
	if len(cfg.Outputs) > 0 {
		zc.OutputPaths = cfg.Outputs
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
