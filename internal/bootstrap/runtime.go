// Package bootstrap holds the start-up sequence shared by every binary:
// environment, config, logger, database and the optional backing services.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/config"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/db"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/logger"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/migrate"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/pubsub"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/redis"
)

// Runtime is the set of resources a binary owns for its lifetime.
type Runtime struct {
	Kind   string
	Config *config.Config
	Logger *logger.Logger
	DB     *db.Client

	closers []namedCloser
}

type namedCloser struct {
	name  string
	close func() error
}

// Options tweak Start for binaries that do not want the defaults.
type Options struct {
	// SkipDevMigrations keeps Start from applying embedded migrations in dev.
	SkipDevMigrations bool
}

// Start loads .env and config, builds the service logger and opens the
// database. In dev with auto-migrate on, the embedded migrations are applied.
func Start(ctx context.Context, kind string, opts Options) (*Runtime, error) {
	logg := logger.New(logger.Options{ServiceName: kind})
	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.Service.Kind = kind

	rt := &Runtime{
		Kind:   kind,
		Config: cfg,
		Logger: logger.New(logger.Options{
			ServiceName: kind,
			Level:       logger.ParseLevel(cfg.App.LogLevel),
			Format:      cfg.App.LogFormat,
			WarnStack:   cfg.App.LogWarnStack,
		}),
	}

	rt.DB, err = db.New(ctx, cfg.DB, rt.Logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	rt.onClose("database", rt.DB.Close)

	if !opts.SkipDevMigrations && cfg.App.IsDev() && cfg.FeatureFlags.AutoMigrate {
		if err := rt.migrateDev(ctx); err != nil {
			rt.Close(ctx)
			return nil, err
		}
	}
	return rt, nil
}

func (r *Runtime) migrateDev(ctx context.Context) error {
	sqlDB, err := r.DB.DB().DB()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}
	ctx = r.Logger.WithField(ctx, "source", "embedded")
	r.Logger.Info(ctx, "applying migrations (dev auto-migrate)")
	steps, err := migrate.Up(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}
	r.Logger.Info(r.Logger.WithField(ctx, "applied", len(steps)), "dev migrations complete")
	return nil
}

// Redis opens the shared redis client; it is closed with the runtime.
func (r *Runtime) Redis(ctx context.Context) (*redis.Client, error) {
	client, err := redis.New(ctx, r.Config.Redis, r.Logger)
	if err != nil {
		return nil, fmt.Errorf("open redis: %w", err)
	}
	r.onClose("redis", client.Close)
	return client, nil
}

// PubSub opens the Pub/Sub client and checks the notification topic.
func (r *Runtime) PubSub(ctx context.Context) (*pubsub.Client, error) {
	client, err := pubsub.NewClient(ctx, r.Config.GCP, r.Config.PubSub, r.Logger)
	if err != nil {
		return nil, fmt.Errorf("open pubsub: %w", err)
	}
	r.onClose("pubsub", client.Close)
	return client, nil
}

// SignalContext is canceled on SIGINT or SIGTERM and carries the runtime's
// identifying log fields.
func (r *Runtime) SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	return r.Logger.WithFields(ctx, map[string]any{
		"env":          r.Config.App.Env,
		"service_kind": r.Kind,
	}), stop
}

func (r *Runtime) onClose(name string, fn func() error) {
	r.closers = append(r.closers, namedCloser{name: name, close: fn})
}

// Close releases resources in reverse order of acquisition.
func (r *Runtime) Close(ctx context.Context) {
	var errs error
	for i := len(r.closers) - 1; i >= 0; i-- {
		c := r.closers[i]
		if err := c.close(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("close %s: %w", c.name, err))
		}
	}
	r.closers = nil
	if errs != nil {
		r.Logger.Error(ctx, "shutdown left resources open", errs)
	}
}

// Fatal logs err and exits; used only from main before anything is served.
func Fatal(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if logg == nil {
		logg = logger.New(logger.Options{ServiceName: "bootstrap"})
	}
	logg.Error(ctx, msg, err)
	os.Exit(1)
}
