package main

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/internal/bootstrap"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/internal/cart"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/internal/catalog"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/internal/cron"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/db"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/metrics"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/outbox"
)

func main() {
	rt, err := bootstrap.Start(context.Background(), "cron-worker", bootstrap.Options{})
	if err != nil {
		bootstrap.Fatal(context.Background(), nil, "cron-worker start-up failed", err)
	}
	ctx, stop := rt.SignalContext(context.Background())

	err = run(ctx, rt)
	stop()
	rt.Close(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		bootstrap.Fatal(ctx, rt.Logger, "cron worker stopped unexpectedly", err)
	}
	rt.Logger.Info(ctx, "cron worker stopped")
}

func run(ctx context.Context, rt *bootstrap.Runtime) error {
	cfg, logg := rt.Config, rt.Logger

	redisClient, err := rt.Redis(ctx)
	if err != nil {
		return err
	}
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(cron.LockName), cfg.Cron.Interval)
	if err != nil {
		return err
	}

	gormDB := rt.DB.DB()
	carts, err := cart.NewService(rt.DB, cart.NewRepository(gormDB), catalog.NewRepository(gormDB), db.RetryPolicy{
		Attempts:  cfg.Checkout.RetryAttempts,
		BaseDelay: cfg.Checkout.RetryBaseDelay,
	})
	if err != nil {
		return err
	}

	expiry, err := cron.NewCartExpiryJob(cron.CartExpiryJobParams{Logger: logg, Carts: carts, TTL: cfg.Cart.GuestTTL})
	if err != nil {
		return err
	}
	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		Repository: outbox.NewRepository(gormDB),
		Retention:  cfg.Outbox.Retention,
	})
	if err != nil {
		return err
	}

	svc, err := cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Registry:   cron.NewRegistry(expiry, retention),
		Lock:       lock,
		Metrics:    metrics.NewCronMetrics(prometheus.DefaultRegisterer),
		Interval:   cfg.Cron.Interval,
		JobTimeout: cfg.Cron.JobTimeout,
	})
	if err != nil {
		return err
	}

	logg.Info(ctx, "cron worker started")
	return svc.Run(ctx)
}
