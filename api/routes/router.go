package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/api/controllers"
	cartcontrollers "github.com/vinhvuiver2003/doantotnghiep-sub000/api/controllers/cart"
	ordercontrollers "github.com/vinhvuiver2003/doantotnghiep-sub000/api/controllers/orders"
	webhookcontrollers "github.com/vinhvuiver2003/doantotnghiep-sub000/api/controllers/webhooks"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/api/middleware"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/internal/cart"
	checkoutsvc "github.com/vinhvuiver2003/doantotnghiep-sub000/internal/checkout"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/internal/orders"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/internal/promotions"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/auth/session"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/config"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/db"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/enums"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/idempotency"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/logger"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/redis"
)

// GuestSessions issues, checks and revokes anonymous shopping sessions.
type GuestSessions interface {
	session.GuestSessionChecker
	cartcontrollers.GuestSessionRevoker
	controllers.GuestSessionIssuer
}

// RedisStore is the redis surface the HTTP layer needs.
type RedisStore interface {
	redis.IdempotencyStore
	redis.RateLimiter
	redis.Pinger
}

// Dependencies are the collaborators NewRouter wires into handlers.
type Dependencies struct {
	DB              db.Pinger
	Redis           RedisStore
	Sessions        GuestSessions
	Carts           cart.Service
	CartNotifier    cartcontrollers.MergeNotifier
	Promotions      *promotions.Service
	Checkout        checkoutsvc.Service
	Orders          orders.Service
	SquareWebhooks  webhookcontrollers.SquareWebhookService
	WebhookGuard    webhookcontrollers.SquareWebhookGuard
	MetricsGatherer prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.HTTP.CORSOrigins()),
	)

	promotionPolicy := middleware.NewRateLimitPolicy(
		"promotions",
		cfg.HTTP.PromotionRateWindow,
		cfg.HTTP.PromotionRateLimit,
	)
	var redisStore redis.IdempotencyStore
	if deps.Redis != nil {
		redisStore = deps.Redis
	}
	replay := idempotency.NewResponseCache(redisStore, cfg.Checkout.IdempotencyTTL)
	keyed := middleware.Idempotent(replay, middleware.KeyOptional, logg)

	var promotionValidator controllers.PromotionValidator
	if deps.Promotions != nil {
		promotionValidator = deps.Promotions
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readinessChecks(deps)))
	})
	if deps.MetricsGatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/square", webhookcontrollers.SquareWebhook(deps.SquareWebhooks, webhookcontrollers.SquareWebhookConfig{
			SignatureKey:    cfg.Square.WebhookSecret,
			NotificationURL: cfg.Square.WebhookURL,
		}, deps.WebhookGuard, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/guest-sessions", controllers.GuestSessionIssue(deps.Sessions, logg))
		r.With(middleware.RateLimit(promotionPolicy, deps.Redis, logg)).
			Post("/promotions/validate", controllers.PromotionValidate(promotionValidator, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Identity(cfg.JWT, deps.Sessions, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartcontrollers.CartFetch(deps.Carts, logg))
				r.Delete("/", cartcontrollers.CartClear(deps.Carts, logg))
				r.Post("/lines", cartcontrollers.CartAddLine(deps.Carts, logg))
				r.Patch("/lines/{lineId}", cartcontrollers.CartUpdateLine(deps.Carts, logg))
				r.Delete("/lines/{lineId}", cartcontrollers.CartRemoveLine(deps.Carts, logg))
				r.With(middleware.RequireUser(logg), keyed).
					Post("/merge", cartcontrollers.CartMerge(deps.Carts, deps.CartNotifier, deps.Sessions, logg))
			})

			r.With(middleware.Idempotent(replay, middleware.KeyRequired, logg)).
				Post("/checkout", controllers.Checkout(deps.Checkout, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Use(middleware.RequireUser(logg))
				r.Get("/", ordercontrollers.List(deps.Orders, logg))
				r.Get("/{orderId}", ordercontrollers.Detail(deps.Orders, logg))
				r.With(keyed).Post("/{orderId}/cancel", ordercontrollers.Cancel(deps.Orders, logg))
				r.With(keyed).Post("/{orderId}/confirm-delivery", ordercontrollers.ConfirmDelivery(deps.Orders, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(enums.RoleAdmin, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.AdminList(deps.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.AdminDetail(deps.Orders, logg))
			r.With(keyed).Post("/{orderId}/status", ordercontrollers.AdminUpdateStatus(deps.Orders, logg))
			r.Delete("/{orderId}", ordercontrollers.AdminDelete(deps.Orders, logg))
		})
	})

	return r
}

func readinessChecks(deps Dependencies) map[string]controllers.Pinger {
	checks := map[string]controllers.Pinger{}
	if deps.DB != nil {
		checks["db"] = deps.DB
	}
	if deps.Redis != nil {
		checks["redis"] = deps.Redis
	}
	return checks
}
