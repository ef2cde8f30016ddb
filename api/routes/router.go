package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/avelasquez/gearshare-backend/api/controllers"
	"github.com/avelasquez/gearshare-backend/api/middleware"
	"github.com/avelasquez/gearshare-backend/internal/bookings"
	"github.com/avelasquez/gearshare-backend/internal/items"
	"github.com/avelasquez/gearshare-backend/pkg/config"
	"github.com/avelasquez/gearshare-backend/pkg/db"
	"github.com/avelasquez/gearshare-backend/pkg/logger"
	"github.com/avelasquez/gearshare-backend/pkg/metrics"
	pkgredis "github.com/avelasquez/gearshare-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *pkgredis.Client,
	httpMetrics *metrics.HTTP,
	bookingService bookings.Service,
	itemService items.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
	)

	var redisPinger pkgredis.Pinger
	var idempotencyStore pkgredis.IdempotencyStore
	if redisClient != nil {
		redisPinger = redisClient
		idempotencyStore = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisPinger))
	})
	r.Method(http.MethodGet, "/metrics", httpMetrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Identity(logg))
		r.Use(middleware.Idempotency(idempotencyStore, cfg.Idempotency.TTL, logg))

		r.Route("/bookings", func(r chi.Router) {
			r.Post("/", controllers.BookingCreate(bookingService, logg))
			r.Get("/", controllers.BookingListAsBooker(bookingService, logg))
			r.Get("/owner", controllers.BookingListAsOwner(bookingService, logg))
			r.Get("/{bookingId}", controllers.BookingDetail(bookingService, logg))
			r.Patch("/{bookingId}", controllers.BookingDecide(bookingService, logg))
		})

		r.Route("/items", func(r chi.Router) {
			r.Get("/", controllers.ItemListAsOwner(itemService, logg))
			r.Get("/{itemId}", controllers.ItemDetail(itemService, logg))
		})
	})

	return r
}
