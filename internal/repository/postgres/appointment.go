package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/bodyworks/scheduler-api/internal/model"
	"github.com/bodyworks/scheduler-api/internal/repository"
)

type appointmentStore struct {
	db *sqlx.DB
}

func NewAppointmentStore(db *sqlx.DB) repository.AppointmentStore {
	return &appointmentStore{db: db}
}

const appointmentColumns = `
	id, client_id, start_time, end_time, duration_minutes,
	service_type, status, price, paid,
	confirmed, confirmed_at, cancel_reason, cancelled_at,
	showed_up, reminder_sent, reminder_sent_at, notes,
	is_recurring, parent_id, recurrence,
	created_at, updated_at
`

func (s *appointmentStore) LoadAll(ctx context.Context) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments ORDER BY start_time ASC`

	var appointments []*model.Appointment
	if err := s.db.SelectContext(ctx, &appointments, query); err != nil {
		return nil, fmt.Errorf("failed to load appointments: %w", err)
	}
	return appointments, nil
}

func (s *appointmentStore) Save(ctx context.Context, apt *model.Appointment) error {
	query := `
		INSERT INTO appointments (` + appointmentColumns + `)
		VALUES (
			:id, :client_id, :start_time, :end_time, :duration_minutes,
			:service_type, :status, :price, :paid,
			:confirmed, :confirmed_at, :cancel_reason, :cancelled_at,
			:showed_up, :reminder_sent, :reminder_sent_at, :notes,
			:is_recurring, :parent_id, :recurrence,
			:created_at, :updated_at
		)
		ON CONFLICT (id) DO UPDATE SET
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			duration_minutes = EXCLUDED.duration_minutes,
			status = EXCLUDED.status,
			price = EXCLUDED.price,
			paid = EXCLUDED.paid,
			confirmed = EXCLUDED.confirmed,
			confirmed_at = EXCLUDED.confirmed_at,
			cancel_reason = EXCLUDED.cancel_reason,
			cancelled_at = EXCLUDED.cancelled_at,
			showed_up = EXCLUDED.showed_up,
			reminder_sent = EXCLUDED.reminder_sent,
			reminder_sent_at = EXCLUDED.reminder_sent_at,
			notes = EXCLUDED.notes,
			updated_at = EXCLUDED.updated_at
	`

	if _, err := s.db.NamedExecContext(ctx, query, apt); err != nil {
		return fmt.Errorf("failed to save appointment: %w", err)
	}
	return nil
}

func (s *appointmentStore) SaveBatch(ctx context.Context, apts []*model.Appointment) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, apt := range apts {
		query := `
			INSERT INTO appointments (` + appointmentColumns + `)
			VALUES (
				:id, :client_id, :start_time, :end_time, :duration_minutes,
				:service_type, :status, :price, :paid,
				:confirmed, :confirmed_at, :cancel_reason, :cancelled_at,
				:showed_up, :reminder_sent, :reminder_sent_at, :notes,
				:is_recurring, :parent_id, :recurrence,
				:created_at, :updated_at
			)
			ON CONFLICT (id) DO UPDATE SET
				start_time = EXCLUDED.start_time,
				end_time = EXCLUDED.end_time,
				status = EXCLUDED.status,
				updated_at = EXCLUDED.updated_at
		`
		if _, err := tx.NamedExecContext(ctx, query, apt); err != nil {
			return fmt.Errorf("failed to save appointment %s: %w", apt.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
