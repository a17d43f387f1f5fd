package reminder

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/bodyworks/scheduler-api/internal/email"
	"github.com/bodyworks/scheduler-api/internal/model"
	"github.com/bodyworks/scheduler-api/pkg/circuitbreaker"
	"github.com/bodyworks/scheduler-api/pkg/messaging"
	"github.com/bodyworks/scheduler-api/pkg/metrics"
)

// Scheduler is the slice of the scheduling core the reminder boundary
// needs: refresh from the store, find due reminders, and call back
// once delivery succeeded.
type Scheduler interface {
	Load(ctx context.Context) error
	DueReminders(now time.Time, lead time.Duration) []*model.Appointment
	MarkReminderSent(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
}

type Config struct {
	Lead     time.Duration
	Interval time.Duration
	// NotifyTo is the practice inbox reminders are delivered to; the
	// core holds only an opaque client id, never a contact address.
	NotifyTo string
}

// Service scans for appointments due a reminder, delivers them, and
// marks them sent. Delivery failures are retried on the next scan
// because the sent flag only flips after a successful send.
type Service struct {
	sched   Scheduler
	email   email.Service
	broker  messaging.Publisher
	metrics *metrics.Metrics
	cb      *circuitbreaker.CircuitBreaker
	cfg     Config
}

func NewService(sched Scheduler, emailSvc email.Service, broker messaging.Publisher, m *metrics.Metrics, cfg Config) *Service {
	if cfg.Lead <= 0 {
		cfg.Lead = 24 * time.Hour
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if m == nil {
		m = metrics.New("reminder")
	}
	return &Service{
		sched:   sched,
		email:   emailSvc,
		broker:  broker,
		metrics: m,
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "reminder-email",
			MaxRequests: 10,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
		}),
		cfg: cfg,
	}
}

// Run scans on the configured interval until the context is cancelled.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sent := s.ProcessDue(ctx)
			if sent > 0 {
				log.Info().Int("sent", sent).Msg("reminders delivered")
			}
		}
	}
}

// ProcessDue delivers every due reminder once and returns how many
// were sent. The API process owns writes, so every scan reloads from
// the store first; bookings made after the worker started are picked
// up on the next tick.
func (s *Service) ProcessDue(ctx context.Context) int {
	if err := s.sched.Load(ctx); err != nil {
		// Scan the last good snapshot rather than skipping the tick.
		log.Warn().Err(err).Msg("failed to refresh appointments")
	}

	sent := 0
	for _, apt := range s.sched.DueReminders(time.Now(), s.cfg.Lead) {
		if err := s.deliver(ctx, apt); err != nil {
			s.metrics.RemindersFailed.Inc()
			log.Error().Err(err).Str("appointment_id", apt.ID.String()).Msg("reminder delivery failed")
			continue
		}
		if _, err := s.sched.MarkReminderSent(ctx, apt.ID); err != nil {
			log.Error().Err(err).Str("appointment_id", apt.ID.String()).Msg("failed to mark reminder sent")
			continue
		}
		s.metrics.RemindersSent.Inc()
		sent++
	}
	return sent
}

func (s *Service) deliver(ctx context.Context, apt *model.Appointment) error {
	if err := s.cb.Execute(func() error {
		return s.email.SendReminder(ctx, s.cfg.NotifyTo, apt)
	}); err != nil {
		return err
	}
	if s.broker != nil {
		if err := s.broker.Publish(ctx, messaging.ChannelReminder, messaging.NewEvent(messaging.ChannelReminder, apt)); err != nil {
			log.Warn().Err(err).Msg("reminder event publish failed")
		}
	}
	return nil
}
