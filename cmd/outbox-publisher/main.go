package main

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/internal/bootstrap"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/metrics"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/outbox"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/outbox/registry"
)

func main() {
	rt, err := bootstrap.Start(context.Background(), "outbox-publisher", bootstrap.Options{})
	if err != nil {
		bootstrap.Fatal(context.Background(), nil, "outbox-publisher start-up failed", err)
	}
	ctx, stop := rt.SignalContext(context.Background())

	err = run(ctx, rt)
	stop()
	rt.Close(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		bootstrap.Fatal(ctx, rt.Logger, "outbox publisher stopped unexpectedly", err)
	}
	rt.Logger.Info(ctx, "outbox publisher stopped")
}

func run(ctx context.Context, rt *bootstrap.Runtime) error {
	psClient, err := rt.PubSub(ctx)
	if err != nil {
		return err
	}
	events, err := registry.NewEventRegistry(rt.Config.PubSub)
	if err != nil {
		return err
	}

	gormDB := rt.DB.DB()
	svc, err := NewService(ServiceParams{
		Outbox:        rt.Config.Outbox,
		Logger:        rt.Logger,
		DB:            rt.DB,
		PubSub:        psClient,
		Repository:    outbox.NewRepository(gormDB),
		Registry:      events,
		DLQRepository: outbox.NewDLQRepository(gormDB),
		Metrics:       metrics.NewOutboxMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		return err
	}

	rt.Logger.Info(ctx, "outbox publisher started")
	return svc.Run(ctx)
}
