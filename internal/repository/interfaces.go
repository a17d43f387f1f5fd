package repository

import (
	"context"

	"github.com/bodyworks/scheduler-api/internal/model"
)

// AppointmentStore is the durability boundary underneath the
// scheduler. The scheduler loads the full collection once at startup
// and writes each mutation after the in-memory invariant already
// holds; a failed write may be retried without re-running the
// conflict check.
type AppointmentStore interface {
	LoadAll(ctx context.Context) ([]*model.Appointment, error)
	// Save inserts the appointment or updates it when the id exists.
	Save(ctx context.Context, apt *model.Appointment) error
	SaveBatch(ctx context.Context, apts []*model.Appointment) error
}
