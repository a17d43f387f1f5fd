package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/bodyworks/scheduler-api/internal/config"
	"github.com/bodyworks/scheduler-api/internal/email"
	"github.com/bodyworks/scheduler-api/internal/repository/postgres"
	"github.com/bodyworks/scheduler-api/internal/service/reminder"
	"github.com/bodyworks/scheduler-api/internal/service/scheduler"
	"github.com/bodyworks/scheduler-api/pkg/logger"
	"github.com/bodyworks/scheduler-api/pkg/messaging"
	redisbroker "github.com/bodyworks/scheduler-api/pkg/messaging/redis"
	"github.com/bodyworks/scheduler-api/pkg/metrics"
)

// The reminder worker owns reminder delivery: it scans the calendar
// for appointments due a reminder, emails the practice inbox, and
// calls back into the scheduling core to mark them sent.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logg := logger.NewLogger(nil)

	// The worker runs as a separate process, so it needs a shared store
	// to see the API's bookings.
	if cfg.Database.Driver == "memory" {
		log.Fatal().Msg("reminder worker requires the postgres store")
	}
	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()
	store := postgres.NewAppointmentStore(db)

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

	m := metrics.New("reminder_worker")
	m.Register(prometheus.DefaultRegisterer)

	schedulerSvc := scheduler.NewService(store, nil, broker, m)
	if err := schedulerSvc.Load(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to load appointments")
	}

	emailSvc := email.NewSMTPService(email.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})

	reminderSvc := reminder.NewService(schedulerSvc, emailSvc, broker, m, reminder.Config{
		Lead:     cfg.Reminder.ReminderLead(),
		Interval: cfg.Reminder.Interval(),
		NotifyTo: cfg.Reminder.NotifyTo,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go reminderSvc.Run(ctx)
	log.Info().
		Dur("lead", cfg.Reminder.ReminderLead()).
		Dur("interval", cfg.Reminder.Interval()).
		Msg("reminder worker started")

	// Metrics endpoint for scrapes.
	metricsSrv := &http.Server{Addr: ":9091", Handler: promhttp.Handler()}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down worker...")

	cancel()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("metrics server forced to shutdown")
	}

	log.Info().Msg("worker exited properly")
}
