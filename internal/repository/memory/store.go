package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/bodyworks/scheduler-api/internal/model"
)

// Store is an in-process AppointmentStore used in tests and in
// single-node deployments that accept losing state on restart.
type Store struct {
	mu   sync.RWMutex
	apts map[uuid.UUID]*model.Appointment
}

func NewStore() *Store {
	return &Store{apts: make(map[uuid.UUID]*model.Appointment)}
}

func (s *Store) LoadAll(ctx context.Context) ([]*model.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Appointment, 0, len(s.apts))
	for _, apt := range s.apts {
		out = append(out, apt.Clone())
	}
	return out, nil
}

func (s *Store) Save(ctx context.Context, apt *model.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.apts[apt.ID] = apt.Clone()
	return nil
}

func (s *Store) SaveBatch(ctx context.Context, apts []*model.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, apt := range apts {
		s.apts[apt.ID] = apt.Clone()
	}
	return nil
}

// Len reports the number of stored appointments.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.apts)
}
