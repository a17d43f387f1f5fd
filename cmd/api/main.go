package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/bodyworks/scheduler-api/internal/config"
	appointmentHandler "github.com/bodyworks/scheduler-api/internal/handler/appointment"
	authHandler "github.com/bodyworks/scheduler-api/internal/handler/auth"
	availabilityHandler "github.com/bodyworks/scheduler-api/internal/handler/availability"
	healthHandler "github.com/bodyworks/scheduler-api/internal/handler/health"
	reportHandler "github.com/bodyworks/scheduler-api/internal/handler/report"
	"github.com/bodyworks/scheduler-api/internal/middleware"
	"github.com/bodyworks/scheduler-api/internal/repository"
	"github.com/bodyworks/scheduler-api/internal/repository/memory"
	"github.com/bodyworks/scheduler-api/internal/repository/postgres"
	"github.com/bodyworks/scheduler-api/internal/router"
	"github.com/bodyworks/scheduler-api/internal/service/scheduler"
	"github.com/bodyworks/scheduler-api/pkg/auth"
	"github.com/bodyworks/scheduler-api/pkg/logger"
	"github.com/bodyworks/scheduler-api/pkg/messaging"
	redisbroker "github.com/bodyworks/scheduler-api/pkg/messaging/redis"
	"github.com/bodyworks/scheduler-api/pkg/metrics"
	"github.com/bodyworks/scheduler-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logg := logger.NewLogger(nil)

	availability, err := cfg.Availability.ToModel()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid availability configuration")
	}

	// Store: postgres by default, in-memory when configured.
	var store repository.AppointmentStore
	var db *sqlx.DB
	if cfg.Database.Driver == "memory" {
		store = memory.NewStore()
	} else {
		db, err = postgres.NewDB(cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()
		store = postgres.NewAppointmentStore(db)
	}

	var broker messaging.Broker
	if cfg.Redis.URL != "" {
		broker, err = redisbroker.NewRedisBroker(redisbroker.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			RetryBackoff: cfg.Redis.RetryBackoff,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}, logg.Zerolog())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer broker.Close()
	}

	m := metrics.New("scheduler")
	m.Register(prometheus.DefaultRegisterer)

	schedulerSvc := scheduler.NewService(store, availability, broker, m)
	if err := schedulerSvc.Load(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to load appointments")
	}

	tokenSvc := auth.NewTokenService(cfg.Auth.TokenSecret, time.Duration(cfg.Auth.TokenExpiryHours)*time.Hour)
	hasher := security.NewBcryptHasher(12)

	r := router.NewRouter(
		middleware.NewAuthMiddleware(tokenSvc),
		m,
		router.Config{
			RateLimitEnabled: cfg.RateLimit.Enabled,
			RateLimit:        rateLimit(cfg),
			RateBurst:        cfg.RateLimit.Burst,
			CacheTTL:         15 * time.Second,
			RequestTimeout:   requestTimeout(cfg),
			CORS:             middleware.DefaultCORSConfig(),
		},
		[]router.Handler{
			authHandler.NewHandler(tokenSvc, hasher, cfg.Auth.OwnerPasswordHash),
			healthHandler.NewHandler(db),
		},
		[]router.Handler{
			appointmentHandler.NewHandler(schedulerSvc),
			availabilityHandler.NewHandler(schedulerSvc),
			reportHandler.NewHandler(schedulerSvc),
		},
	)
	r.Setup()

	// Retry any durable writes that failed after their booking was
	// already accepted in memory.
	flushCtx, cancelFlush := context.WithCancel(context.Background())
	defer cancelFlush()
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-flushCtx.Done():
				return
			case <-ticker.C:
				if err := schedulerSvc.FlushPending(flushCtx); err != nil {
					log.Warn().Err(err).Msg("pending writes not yet flushed")
				}
			}
		}
	}()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Server.Port).Msg("scheduler API listening")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}

func rateLimit(cfg *config.Config) rate.Limit {
	if cfg.RateLimit.RequestsPerSecond <= 0 {
		return 50
	}
	return rate.Limit(cfg.RateLimit.RequestsPerSecond)
}

func requestTimeout(cfg *config.Config) time.Duration {
	if cfg.Server.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(cfg.Server.TimeoutSeconds) * time.Second
}
