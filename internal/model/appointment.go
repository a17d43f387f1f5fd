package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled  AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed  AppointmentStatus = "confirmed"
	AppointmentStatusInProgress AppointmentStatus = "in_progress"
	AppointmentStatusCompleted  AppointmentStatus = "completed"
	AppointmentStatusNoShow     AppointmentStatus = "no_show"
	AppointmentStatusCancelled  AppointmentStatus = "cancelled"
)

// Terminal reports whether the status permits no further transitions.
// Terminal appointments never participate in conflict checks.
func (s AppointmentStatus) Terminal() bool {
	switch s {
	case AppointmentStatusCompleted, AppointmentStatusNoShow, AppointmentStatusCancelled:
		return true
	}
	return false
}

type ServiceType string

const (
	ServiceSwedish     ServiceType = "swedish"
	ServiceDeepTissue  ServiceType = "deep_tissue"
	ServiceSports      ServiceType = "sports"
	ServiceHotStone    ServiceType = "hot_stone"
	ServicePrenatal    ServiceType = "prenatal"
	ServiceReflexology ServiceType = "reflexology"
)

type Appointment struct {
	Base
	ClientID        uuid.UUID          `db:"client_id" json:"client_id"`
	StartTime       time.Time          `db:"start_time" json:"start_time"`
	EndTime         time.Time          `db:"end_time" json:"end_time"`
	DurationMinutes int                `db:"duration_minutes" json:"duration_minutes"`
	ServiceType     ServiceType        `db:"service_type" json:"service_type"`
	Status          AppointmentStatus  `db:"status" json:"status"`
	Price           *float64           `db:"price" json:"price,omitempty"`
	Paid            bool               `db:"paid" json:"paid"`
	Confirmed       bool               `db:"confirmed" json:"confirmed"`
	ConfirmedAt     *time.Time         `db:"confirmed_at" json:"confirmed_at,omitempty"`
	CancelReason    *string            `db:"cancel_reason" json:"cancel_reason,omitempty"`
	CancelledAt     *time.Time         `db:"cancelled_at" json:"cancelled_at,omitempty"`
	ShowedUp        *bool              `db:"showed_up" json:"showed_up,omitempty"`
	ReminderSent    bool               `db:"reminder_sent" json:"reminder_sent"`
	ReminderSentAt  *time.Time         `db:"reminder_sent_at" json:"reminder_sent_at,omitempty"`
	Notes           string             `db:"notes" json:"notes,omitempty"`
	IsRecurring     bool               `db:"is_recurring" json:"is_recurring"`
	ParentID        *uuid.UUID         `db:"parent_id" json:"parent_id,omitempty"`
	Recurrence      *RecurrencePattern `db:"recurrence" json:"recurrence,omitempty"`
}

// NewAppointment builds a scheduled appointment with the derived end
// time. Duration must already be validated (> 0) by the caller.
func NewAppointment(clientID uuid.UUID, start time.Time, durationMinutes int, serviceType ServiceType, price *float64) *Appointment {
	now := time.Now()
	return &Appointment{
		Base: Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		ClientID:        clientID,
		StartTime:       start,
		EndTime:         start.Add(time.Duration(durationMinutes) * time.Minute),
		DurationMinutes: durationMinutes,
		ServiceType:     serviceType,
		Status:          AppointmentStatusScheduled,
		Price:           price,
	}
}

// Duration returns the booked span.
func (a *Appointment) Duration() time.Duration {
	return time.Duration(a.DurationMinutes) * time.Minute
}

// SetStart moves the appointment and recomputes the derived end time.
// The end time is never mutated independently of the start.
func (a *Appointment) SetStart(start time.Time) {
	a.StartTime = start
	a.EndTime = start.Add(a.Duration())
}

// OverlapsInterval reports whether this booking intersects the
// half-open interval [start, end).
func (a *Appointment) OverlapsInterval(start, end time.Time) bool {
	return Overlaps(a.StartTime, a.EndTime, start, end)
}

// Clone returns a deep copy safe to hand to callers while the
// scheduler keeps mutating its own instance.
func (a *Appointment) Clone() *Appointment {
	c := *a
	c.Price = clonePtr(a.Price)
	c.ConfirmedAt = clonePtr(a.ConfirmedAt)
	c.CancelReason = clonePtr(a.CancelReason)
	c.CancelledAt = clonePtr(a.CancelledAt)
	c.ShowedUp = clonePtr(a.ShowedUp)
	c.ReminderSentAt = clonePtr(a.ReminderSentAt)
	c.ParentID = clonePtr(a.ParentID)
	if a.Recurrence != nil {
		r := *a.Recurrence
		c.Recurrence = &r
	}
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

type BookAppointmentRequest struct {
	ClientID        uuid.UUID   `json:"client_id" binding:"required"`
	StartTime       time.Time   `json:"start_time" binding:"required"`
	DurationMinutes int         `json:"duration_minutes" binding:"required,gt=0"`
	ServiceType     ServiceType `json:"service_type" binding:"required,oneof=swedish deep_tissue sports hot_stone prenatal reflexology"`
	Price           *float64    `json:"price" binding:"omitempty,gte=0"`
	Notes           string      `json:"notes" binding:"max=1000"`
}

type RescheduleAppointmentRequest struct {
	NewStart time.Time `json:"new_start" binding:"required"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

type CompleteAppointmentRequest struct {
	ShowedUp *bool `json:"showed_up" binding:"required"`
}

type CreateRecurringSeriesRequest struct {
	ClientID        uuid.UUID   `json:"client_id" binding:"required"`
	StartTime       time.Time   `json:"start_time" binding:"required"`
	DurationMinutes int         `json:"duration_minutes" binding:"required,gt=0"`
	ServiceType     ServiceType `json:"service_type" binding:"required,oneof=swedish deep_tissue sports hot_stone prenatal reflexology"`
	Price           *float64    `json:"price" binding:"omitempty,gte=0"`
	Frequency       string      `json:"frequency" binding:"required"`
	EndCondition    string      `json:"end_condition" binding:"required,oneof=never after_count on_date"`
	Occurrences     int         `json:"occurrences" binding:"omitempty,gte=1"`
	EndDate         *time.Time  `json:"end_date"`
}
