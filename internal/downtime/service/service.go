// Package service implements the downtime log use cases.
package service

import (
	"context"
	"strings"
	"time"

	"labequip_backend/internal/downtime/domain"
	"labequip_backend/internal/events"
	"labequip_backend/platform/apperr"
	"labequip_backend/platform/logger"
)

// Store is the persistence capability the downtime service needs.
type Store interface {
	Insert(ctx context.Context, d *domain.Downtime) (*domain.Downtime, error)
	Close(ctx context.Context, id int64, endedAt time.Time) error
	ListByEquipment(ctx context.Context, equipmentID int64) ([]domain.Downtime, error)
	GetByID(ctx context.Context, id int64) (*domain.Downtime, error)
}

// Service manages downtime periods for equipment.
type Service struct {
	store Store
	bus   events.Bus
	log   *logger.Logger
	now   func() time.Time
}

// New creates a downtime service. The bus is optional; when set, a
// DowntimeOpened event is published for every opened period.
func New(store Store, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		store: store,
		bus:   bus,
		log:   log,
		now:   time.Now,
	}
}

// SetClock overrides the service's time source. Tests only.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Open records the start of an unavailability period. A zero startedAt
// means the period starts now.
func (s *Service) Open(ctx context.Context, equipmentID int64, reason string, startedAt time.Time) (*domain.Downtime, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperr.Validation("reason is required")
	}
	if startedAt.IsZero() {
		startedAt = s.now()
	}

	saved, err := s.store.Insert(ctx, &domain.Downtime{
		EquipmentID: equipmentID,
		Reason:      reason,
		StartedAt:   startedAt,
	})
	if err != nil {
		return nil, err
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.DowntimeOpened{
			BaseEvent:   events.NewBaseEvent(),
			DowntimeID:  saved.ID,
			EquipmentID: saved.EquipmentID,
			Reason:      saved.Reason,
		})
	}

	return saved, nil
}

// Close ends an open period. A zero endedAt means it ends now. Closing a
// period before it started is rejected.
func (s *Service) Close(ctx context.Context, id int64, endedAt time.Time) error {
	existing, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !existing.Open() {
		return apperr.Conflict("downtime already closed")
	}

	if endedAt.IsZero() {
		endedAt = s.now()
	}
	if endedAt.Before(existing.StartedAt) {
		return apperr.Validation("ended_at must not precede started_at")
	}

	return s.store.Close(ctx, id, endedAt)
}

// List returns all downtime periods for one piece of equipment.
func (s *Service) List(ctx context.Context, equipmentID int64) ([]domain.Downtime, error) {
	return s.store.ListByEquipment(ctx, equipmentID)
}
