package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/bodyworks/scheduler-api/internal/model"
	"github.com/bodyworks/scheduler-api/internal/repository"
	"github.com/bodyworks/scheduler-api/pkg/errors"
	"github.com/bodyworks/scheduler-api/pkg/messaging"
	"github.com/bodyworks/scheduler-api/pkg/metrics"
)

// Service owns the therapist's calendar. All mutating entry points
// take the write lock around the full check-then-act sequence, so the
// collection never holds two non-terminal appointments whose
// intervals overlap. Readers share the lock and never observe a
// half-applied booking.
//
// Durability is written after the in-memory invariant already holds;
// a failed write is queued and retried by FlushPending without
// re-running the conflict check.
type Service struct {
	mu           sync.RWMutex
	store        repository.AppointmentStore
	availability *model.WeeklyAvailability
	publisher    messaging.Publisher
	metrics      *metrics.Metrics

	appointments map[uuid.UUID]*model.Appointment
	pending      map[uuid.UUID]struct{}
}

// NewService builds a scheduler against the given store. availability
// and publisher may be nil: without availability every slot is
// bookable, without a publisher no events are emitted.
func NewService(store repository.AppointmentStore, availability *model.WeeklyAvailability, publisher messaging.Publisher, m *metrics.Metrics) *Service {
	if m == nil {
		m = metrics.New("scheduler")
	}
	return &Service{
		store:        store,
		availability: availability,
		publisher:    publisher,
		metrics:      m,
		appointments: make(map[uuid.UUID]*model.Appointment),
		pending:      make(map[uuid.UUID]struct{}),
	}
}

// Load replaces the in-memory collection with the store's contents.
// Called once at startup before the service is exposed.
func (s *Service) Load(ctx context.Context) error {
	apts, err := s.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load appointments: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.appointments = make(map[uuid.UUID]*model.Appointment, len(apts))
	for _, apt := range apts {
		s.appointments[apt.ID] = apt
	}
	return nil
}

// Book creates a new scheduled appointment, rejecting intervals that
// overlap a non-terminal booking or fall outside working hours.
func (s *Service) Book(ctx context.Context, req *model.BookAppointmentRequest) (*model.Appointment, error) {
	if req.DurationMinutes <= 0 {
		return nil, errors.BadRequest("duration must be positive", nil)
	}
	duration := time.Duration(req.DurationMinutes) * time.Minute
	end := req.StartTime.Add(duration)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conflictLocked(req.StartTime, end, nil) {
		s.metrics.BookingConflicts.Inc()
		return nil, errors.Conflict("requested time overlaps an existing appointment")
	}
	if s.availability != nil && !s.availability.IsAvailable(req.StartTime, duration) {
		s.metrics.BookingsUnavailable.Inc()
		return nil, errors.Unavailable("requested time is outside working hours")
	}

	apt := model.NewAppointment(req.ClientID, req.StartTime, req.DurationMinutes, req.ServiceType, req.Price)
	apt.Notes = req.Notes
	s.appointments[apt.ID] = apt
	s.persist(ctx, apt)

	s.metrics.BookingsTotal.Inc()
	s.publish(ctx, messaging.ChannelBooked, apt.Clone())
	return apt.Clone(), nil
}

// Get returns a copy of the appointment.
func (s *Service) Get(id uuid.UUID) (*model.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	apt, ok := s.appointments[id]
	if !ok {
		return nil, errors.NotFound("appointment", nil)
	}
	return apt.Clone(), nil
}

// Confirm marks the booking confirmed. Allowed only from non-terminal
// states.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.mutate(ctx, id, func(apt *model.Appointment) error {
		if apt.Status.Terminal() {
			return errors.InvalidState(fmt.Sprintf("cannot confirm a %s appointment", apt.Status))
		}
		now := time.Now()
		apt.Confirmed = true
		apt.ConfirmedAt = &now
		apt.Status = model.AppointmentStatusConfirmed
		return nil
	})
}

// Start moves the booking to in-progress. A no-op when already in
// progress.
func (s *Service) Start(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.mutate(ctx, id, func(apt *model.Appointment) error {
		if apt.Status.Terminal() {
			return errors.InvalidState(fmt.Sprintf("cannot start a %s appointment", apt.Status))
		}
		apt.Status = model.AppointmentStatusInProgress
		return nil
	})
}

// Complete finishes the booking: completed when the client showed up,
// no-show otherwise. Terminal either way.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, showedUp bool) (*model.Appointment, error) {
	return s.mutate(ctx, id, func(apt *model.Appointment) error {
		if apt.Status.Terminal() {
			return errors.InvalidState(fmt.Sprintf("cannot complete a %s appointment", apt.Status))
		}
		if showedUp {
			apt.Status = model.AppointmentStatusCompleted
		} else {
			apt.Status = model.AppointmentStatusNoShow
		}
		apt.ShowedUp = &showedUp
		return nil
	})
}

// Cancel is a status transition, not a removal; the slot becomes
// bookable again because cancelled appointments never participate in
// conflict checks.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string) (*model.Appointment, error) {
	apt, err := s.mutate(ctx, id, func(apt *model.Appointment) error {
		if apt.Status.Terminal() {
			return errors.InvalidState(fmt.Sprintf("cannot cancel a %s appointment", apt.Status))
		}
		now := time.Now()
		apt.Status = model.AppointmentStatusCancelled
		apt.CancelledAt = &now
		if reason != "" {
			apt.CancelReason = &reason
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.CancellationsTotal.Inc()
	s.publish(ctx, messaging.ChannelCancelled, apt)
	return apt, nil
}

// Reschedule moves a non-terminal booking to a new start, excluding
// the appointment itself from the conflict check. On success the
// reminder state is cleared so a fresh reminder goes out for the new
// time. Status is unchanged.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, newStart time.Time) (*model.Appointment, error) {
	apt, err := s.mutate(ctx, id, func(apt *model.Appointment) error {
		if apt.Status.Terminal() {
			return errors.InvalidState(fmt.Sprintf("cannot reschedule a %s appointment", apt.Status))
		}
		end := newStart.Add(apt.Duration())
		if s.conflictLocked(newStart, end, &apt.ID) {
			s.metrics.BookingConflicts.Inc()
			return errors.Conflict("new time overlaps an existing appointment")
		}
		if s.availability != nil && !s.availability.IsAvailable(newStart, apt.Duration()) {
			s.metrics.BookingsUnavailable.Inc()
			return errors.Unavailable("new time is outside working hours")
		}
		apt.SetStart(newStart)
		apt.ReminderSent = false
		apt.ReminderSentAt = nil
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ReschedulesTotal.Inc()
	s.publish(ctx, messaging.ChannelRescheduled, apt)
	return apt, nil
}

// MarkPaid records payment. Rejected for cancelled and no-show
// bookings, for which nothing is owed.
func (s *Service) MarkPaid(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.mutate(ctx, id, func(apt *model.Appointment) error {
		if apt.Status == model.AppointmentStatusCancelled || apt.Status == model.AppointmentStatusNoShow {
			return errors.InvalidState(fmt.Sprintf("cannot mark a %s appointment paid", apt.Status))
		}
		apt.Paid = true
		return nil
	})
}

// MarkReminderSent is the delivery callback from the reminder
// boundary.
func (s *Service) MarkReminderSent(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.mutate(ctx, id, func(apt *model.Appointment) error {
		if apt.Status.Terminal() {
			return errors.InvalidState(fmt.Sprintf("cannot mark a reminder on a %s appointment", apt.Status))
		}
		now := time.Now()
		apt.ReminderSent = true
		apt.ReminderSentAt = &now
		return nil
	})
}

// DueReminders lists non-terminal appointments starting within lead of
// now whose reminder has not been sent, soonest first.
func (s *Service) DueReminders(now time.Time, lead time.Duration) []*model.Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var due []*model.Appointment
	for _, apt := range s.appointments {
		if apt.Status.Terminal() || apt.ReminderSent {
			continue
		}
		if apt.StartTime.After(now) && apt.StartTime.Sub(now) <= lead {
			due = append(due, apt.Clone())
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].StartTime.Before(due[j].StartTime) })
	return due
}

// CreateRecurringSeries books the first occurrence and expands the
// pattern up to its candidate ceiling. A conflicting or out-of-hours
// candidate is skipped and consumes its occurrence slot, so an
// "after N" series may create fewer than N appointments but never
// drifts past its planned horizon. The first occurrence itself must
// be bookable or the whole request fails with no mutation.
func (s *Service) CreateRecurringSeries(ctx context.Context, req *model.CreateRecurringSeriesRequest) ([]*model.Appointment, error) {
	pattern, err := model.NewRecurrencePattern(
		model.RecurrenceFrequency(req.Frequency),
		model.RecurrenceEnd(req.EndCondition),
		req.Occurrences,
		req.EndDate,
	)
	if err != nil {
		return nil, err
	}
	if req.DurationMinutes <= 0 {
		return nil, errors.BadRequest("duration must be positive", nil)
	}
	duration := time.Duration(req.DurationMinutes) * time.Minute

	s.mu.Lock()
	defer s.mu.Unlock()

	start := req.StartTime
	if s.conflictLocked(start, start.Add(duration), nil) {
		s.metrics.BookingConflicts.Inc()
		return nil, errors.Conflict("first occurrence overlaps an existing appointment")
	}
	if s.availability != nil && !s.availability.IsAvailable(start, duration) {
		s.metrics.BookingsUnavailable.Inc()
		return nil, errors.Unavailable("first occurrence is outside working hours")
	}

	parent := model.NewAppointment(req.ClientID, start, req.DurationMinutes, req.ServiceType, req.Price)
	parent.IsRecurring = true
	parent.Recurrence = pattern
	s.appointments[parent.ID] = parent
	created := []*model.Appointment{parent}
	parentID := parent.ID

	current := start
	for i := 1; i < pattern.CandidateCeiling(); i++ {
		next, err := pattern.NextAfter(current)
		if err != nil {
			return nil, err
		}
		current = next
		if pattern.Expired(next) {
			break
		}

		if s.conflictLocked(next, next.Add(duration), nil) ||
			(s.availability != nil && !s.availability.IsAvailable(next, duration)) {
			s.metrics.OccurrencesSkipped.Inc()
			continue
		}

		child := model.NewAppointment(req.ClientID, next, req.DurationMinutes, req.ServiceType, req.Price)
		child.IsRecurring = true
		child.ParentID = &parentID
		s.appointments[child.ID] = child
		created = append(created, child)
	}

	s.persist(ctx, created...)
	s.metrics.BookingsTotal.Add(float64(len(created)))
	s.metrics.SeriesCreated.Inc()

	out := make([]*model.Appointment, len(created))
	for i, apt := range created {
		out[i] = apt.Clone()
	}
	s.publish(ctx, messaging.ChannelSeries, out)
	return out, nil
}

// HasConflict reports whether a booking of the given duration at the
// given start would overlap a non-terminal appointment, excluding the
// one identified by exclude when non-nil. This is the single conflict
// predicate shared by booking, rescheduling and series expansion.
func (s *Service) HasConflict(at time.Time, duration time.Duration, exclude *uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conflictLocked(at, at.Add(duration), exclude)
}

// AvailableSlots lists unconflicted candidate slots of the given
// duration on a date. Empty when the therapist does not work that day.
func (s *Service) AvailableSlots(date time.Time, duration time.Duration) []model.TimeSlot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.availability == nil {
		return nil
	}
	var free []model.TimeSlot
	for _, slot := range s.availability.SlotsOn(date, duration) {
		if !s.conflictLocked(slot.Start, slot.End, nil) {
			free = append(free, slot)
		}
	}
	return free
}

// AppointmentsOn lists appointments starting on the given calendar
// day, ordered by start time.
func (s *Service) AppointmentsOn(date time.Time) []*model.Appointment {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return s.AppointmentsBetween(dayStart, dayStart.AddDate(0, 0, 1))
}

// AppointmentsBetween lists appointments starting in [from, to),
// ordered by start time.
func (s *Service) AppointmentsBetween(from, to time.Time) []*model.Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.Appointment
	for _, apt := range s.betweenLocked(from, to) {
		out = append(out, apt.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

// Statistics aggregates the appointments starting in [from, to).
func (s *Service) Statistics(from, to time.Time) *model.Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Compute(s.betweenLocked(from, to))
}

// FlushPending retries every queued durable write. Safe to call from a
// background ticker.
func (s *Service) FlushPending(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.pending {
		apt, ok := s.appointments[id]
		if !ok {
			delete(s.pending, id)
			continue
		}
		if err := s.store.Save(ctx, apt); err != nil {
			return fmt.Errorf("failed to flush appointment %s: %w", id, err)
		}
		delete(s.pending, id)
	}
	return nil
}

// PendingWrites reports how many mutations still await a durable
// write.
func (s *Service) PendingWrites() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pending)
}

// conflictLocked is the overlap scan against every non-terminal
// appointment. Callers hold at least the read lock. O(n) over the
// calendar, which stays in the hundreds for a single practice.
func (s *Service) conflictLocked(start, end time.Time, exclude *uuid.UUID) bool {
	for _, apt := range s.appointments {
		if apt.Status.Terminal() {
			continue
		}
		if exclude != nil && apt.ID == *exclude {
			continue
		}
		if apt.OverlapsInterval(start, end) {
			return true
		}
	}
	return false
}

func (s *Service) betweenLocked(from, to time.Time) []*model.Appointment {
	var out []*model.Appointment
	for _, apt := range s.appointments {
		if !apt.StartTime.Before(from) && apt.StartTime.Before(to) {
			out = append(out, apt)
		}
	}
	return out
}

// mutate runs fn on the live appointment under the write lock, stamps
// updated-at and persists on success. fn returning an error leaves the
// appointment untouched.
func (s *Service) mutate(ctx context.Context, id uuid.UUID, fn func(*model.Appointment) error) (*model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	apt, ok := s.appointments[id]
	if !ok {
		return nil, errors.NotFound("appointment", nil)
	}
	if err := fn(apt); err != nil {
		return nil, err
	}
	apt.UpdatedAt = time.Now()
	s.persist(ctx, apt)
	return apt.Clone(), nil
}

// persist writes after the in-memory state is already consistent.
// Failures queue the appointments for FlushPending instead of rolling
// back the booking. Callers hold the write lock.
func (s *Service) persist(ctx context.Context, apts ...*model.Appointment) {
	var err error
	if len(apts) == 1 {
		err = s.store.Save(ctx, apts[0])
	} else {
		err = s.store.SaveBatch(ctx, apts)
	}
	if err != nil {
		for _, apt := range apts {
			s.pending[apt.ID] = struct{}{}
		}
		log.Error().Err(err).Int("count", len(apts)).Msg("appointment save failed, queued for retry")
	}
}

func (s *Service) publish(ctx context.Context, channel string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, channel, messaging.NewEvent(channel, payload)); err != nil {
		log.Warn().Err(err).Str("channel", channel).Msg("event publish failed")
	}
}
