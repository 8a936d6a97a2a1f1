package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/api/routes"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/internal/bootstrap"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/internal/cart"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/internal/catalog"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/internal/checkout"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/internal/inventory"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/internal/notifications"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/internal/orders"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/internal/payments"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/internal/promotions"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/internal/shipping"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/auth/session"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/db"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/idempotency"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/metrics"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/outbox"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/square"
)

func main() {
	rt, err := bootstrap.Start(context.Background(), "api", bootstrap.Options{})
	if err != nil {
		bootstrap.Fatal(context.Background(), nil, "api start-up failed", err)
	}
	ctx, stop := rt.SignalContext(context.Background())

	err = serve(ctx, rt)
	stop()
	rt.Close(ctx)
	if err != nil {
		bootstrap.Fatal(ctx, rt.Logger, "api server stopped unexpectedly", err)
	}
	rt.Logger.Info(ctx, "api server shut down gracefully")
}

func serve(ctx context.Context, rt *bootstrap.Runtime) error {
	deps, err := wire(ctx, rt)
	if err != nil {
		return err
	}

	addr := ":" + rt.Config.App.Port
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(rt.Config, rt.Logger, deps),
		ReadHeaderTimeout: rt.Config.HTTP.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		rt.Logger.Info(rt.Logger.WithField(ctx, "addr", addr), "api server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), rt.Config.HTTP.ShutdownGracePeriod)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// wire builds the domain services behind the HTTP routes.
func wire(ctx context.Context, rt *bootstrap.Runtime) (routes.Dependencies, error) {
	cfg, logg := rt.Config, rt.Logger
	var none routes.Dependencies

	redisClient, err := rt.Redis(ctx)
	if err != nil {
		return none, err
	}
	sessions, err := session.NewManager(redisClient, cfg.Cart.GuestTTL)
	if err != nil {
		return none, err
	}
	idem, err := idempotency.NewManager(redisClient, cfg.Checkout.IdempotencyTTL)
	if err != nil {
		return none, err
	}
	webhookGuard, err := payments.NewGuard(idem)
	if err != nil {
		return none, err
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	checkoutMetrics := metrics.NewCheckoutMetrics(promRegistry)

	gormDB := rt.DB.DB()
	retry := db.RetryPolicy{Attempts: cfg.Checkout.RetryAttempts, BaseDelay: cfg.Checkout.RetryBaseDelay}
	dispatcher := notifications.NewDispatcher(gormDB, outbox.NewService(outbox.NewRepository(gormDB), logg), logg)
	cartRepo := cart.NewRepository(gormDB)
	catalogRepo := catalog.NewRepository(gormDB)
	ordersRepo := orders.NewRepository(gormDB)
	ledger := inventory.NewLedger(gormDB)

	carts, err := cart.NewService(rt.DB, cartRepo, catalogRepo, retry)
	if err != nil {
		return none, err
	}
	promos, err := promotions.NewService(promotions.NewRepository(gormDB))
	if err != nil {
		return none, err
	}
	ordersSvc, err := orders.NewService(orders.Deps{
		Tx:       rt.DB,
		Repo:     ordersRepo,
		Ledger:   ledger,
		Notifier: dispatcher,
		Metrics:  checkoutMetrics,
		Logger:   logg,
		Retry:    retry,
	})
	if err != nil {
		return none, err
	}
	gateway, err := cardGateway(ctx, rt)
	if err != nil {
		return none, err
	}
	checkoutSvc, err := checkout.NewService(checkout.Deps{
		Tx:         rt.DB,
		Repo:       checkout.NewRepository(gormDB),
		Carts:      cartRepo,
		Catalog:    catalogRepo,
		Promotions: promos,
		Shipping:   shipping.NewCalculator(cfg.Shipping),
		Ledger:     ledger,
		Orders:     ordersRepo,
		Gateway:    gateway,
		Notifier:   dispatcher,
		Metrics:    checkoutMetrics,
		Logger:     logg,
		Retry:      retry,
	})
	if err != nil {
		return none, err
	}
	webhooks, err := payments.NewWebhookService(ordersSvc, logg)
	if err != nil {
		return none, err
	}

	return routes.Dependencies{
		DB:              rt.DB,
		Redis:           redisClient,
		Sessions:        sessions,
		Carts:           carts,
		CartNotifier:    dispatcher,
		Promotions:      promos,
		Checkout:        checkoutSvc,
		Orders:          ordersSvc,
		SquareWebhooks:  webhooks,
		WebhookGuard:    webhookGuard,
		MetricsGatherer: promRegistry,
	}, nil
}

// cardGateway is nil unless gateway payments are switched on.
func cardGateway(ctx context.Context, rt *bootstrap.Runtime) (checkout.PaymentGateway, error) {
	cfg := rt.Config
	if !cfg.FeatureFlags.GatewayPayments {
		return nil, nil
	}
	if cfg.App.IsProd() && cfg.Square.Environment() != "production" {
		rt.Logger.Warn(ctx, "square sandbox configured in a production deployment")
	}
	client, err := square.NewClient(ctx, cfg.Square, rt.Logger)
	if err != nil {
		return nil, err
	}
	return payments.NewSquareGateway(client)
}
