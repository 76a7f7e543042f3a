// Package cli provides the initialization shared by the finsheets commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"finsheets/internal/amqp"
	"finsheets/internal/backend"
	"finsheets/internal/config"
	applog "finsheets/internal/log"
	"finsheets/internal/services"
	"finsheets/internal/sink"
	"finsheets/internal/storage"
)

// SetupLogger initializes structured logging at level and sets it as the
// default logger.
func SetupLogger(level string) *applog.Logger {
	cfg := applog.DefaultConfig()
	cfg.Level = applog.ParseLevel(level)
	logger := applog.New(cfg)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// Runtime holds the wired dependencies of a command.
type Runtime struct {
	Config  *config.Config
	Logger  *applog.Logger
	Backend backend.Backend

	journal  services.Journal
	notifier services.Notifier
	closers  []func() error
}

// NewRuntime builds the data backend and the optional run journal and AMQP
// publisher. The journal is required when configured; the publisher is
// skipped with a warning when the broker is unreachable.
func NewRuntime(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*Runtime, error) {
	rt := &Runtime{Config: cfg, Logger: logger}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	rt.Backend, err = backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}

	if cfg.SQLiteDBPath != "" {
		journal, err := storage.NewSQLiteJournal(cfg.SQLiteDBPath)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("failed to initialize run journal at %s: %w", cfg.SQLiteDBPath, err)
		}
		rt.journal = journal
		rt.closers = append(rt.closers, journal.Close)
		logger.WithComponent(applog.ComponentStorage).DebugContext(ctx, "Run journal enabled", "path", cfg.SQLiteDBPath)
	}

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.WithComponent(applog.ComponentAMQP).WarnContext(ctx, "Failed to initialize AMQP client, continuing without run events", applog.FieldError, err)
		} else {
			rt.notifier = client
			rt.closers = append(rt.closers, client.Close)
			logger.WithComponent(applog.ComponentAMQP).InfoContext(ctx, "Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	return rt, nil
}

// DownloadService returns a download service over the runtime's backend.
func (r *Runtime) DownloadService() *services.DownloadService {
	return services.NewDownloadService(r.Backend, r.journal, r.notifier, r.Logger)
}

// UploadService returns an upload service over the runtime's backend.
func (r *Runtime) UploadService() *services.UploadService {
	return services.NewUploadService(sink.NewWriter(r.Backend, r.Logger), r.journal, r.notifier, r.Logger)
}

// Close releases resources in reverse order of acquisition.
func (r *Runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}
