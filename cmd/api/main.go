package main

import (
	"context"
	"net/http"
	"os"

	"github.com/avelasquez/gearshare-backend/api/routes"
	"github.com/avelasquez/gearshare-backend/internal/bookings"
	"github.com/avelasquez/gearshare-backend/internal/items"
	"github.com/avelasquez/gearshare-backend/internal/users"
	"github.com/avelasquez/gearshare-backend/pkg/clock"
	"github.com/avelasquez/gearshare-backend/pkg/config"
	"github.com/avelasquez/gearshare-backend/pkg/db"
	"github.com/avelasquez/gearshare-backend/pkg/logger"
	"github.com/avelasquez/gearshare-backend/pkg/metrics"
	"github.com/avelasquez/gearshare-backend/pkg/migrate"
	"github.com/avelasquez/gearshare-backend/pkg/redis"
	"github.com/joho/godotenv"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	// redis is optional; without it the idempotency guard is disabled
	var redisClient *redis.Client
	if cfg.Redis.URL != "" || cfg.Redis.Address != "" {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(context.Background(), "redis not configured, idempotency guard disabled")
	}

	bookingRepo := bookings.NewRepository(dbClient.DB())
	itemRepo := items.NewRepository(dbClient.DB())
	userRepo := users.NewRepository(dbClient.DB())

	bookingService, err := bookings.NewService(bookings.ServiceParams{
		BookingRepo: bookingRepo,
		ItemRepo:    itemRepo,
		UserRepo:    userRepo,
		Clock:       clock.System(),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create booking service", err)
		os.Exit(1)
	}

	itemService, err := items.NewService(items.ServiceParams{
		ItemRepo: itemRepo,
		Resolver: bookingService,
		Clock:    clock.System(),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create item service", err)
		os.Exit(1)
	}

	httpMetrics := metrics.NewHTTP("api")

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, httpMetrics, bookingService, itemService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
