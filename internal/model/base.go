package model

import (
	"time"

	"github.com/google/uuid"
)

// Base contains common fields for all models. Appointments are never
// deleted, only cancelled, so there is no soft-delete marker.
type Base struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
