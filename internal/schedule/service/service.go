package service

import (
	"context"
	"time"

	"labequip_backend/internal/events"
	"labequip_backend/internal/schedule/domain"
	"labequip_backend/internal/schedule/repository"
	"labequip_backend/internal/schedule/transport"
	"labequip_backend/platform/apperr"
	"labequip_backend/platform/logger"
)

// Service provides the schedule read surface and the manual completion
// path. Automatic reconciliation lives in Reconciler/Runner.
type Service struct {
	store    Store
	policies *domain.PolicySet
	bus      events.Bus
	log      *logger.Logger
	now      func() time.Time
}

// New creates a new schedule service.
func New(store Store, policies *domain.PolicySet, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		store:    store,
		policies: policies,
		bus:      bus,
		log:      log,
		now:      time.Now,
	}
}

// SetClock overrides the service's time source. Tests only.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Get returns one schedule.
func (s *Service) Get(ctx context.Context, family domain.Family, id int64) (*domain.Schedule, error) {
	return s.store.GetByID(ctx, family, id)
}

// List returns a page of schedules for the dashboard collaborator.
func (s *Service) List(ctx context.Context, family domain.Family, req transport.ListSchedulesRequest) (*transport.ListSchedulesResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	params := repository.ListParams{
		EquipmentID: req.EquipmentID,
		Page:        page,
		PageSize:    pageSize,
	}
	if req.State != nil {
		state := domain.State(*req.State)
		params.State = &state
	}

	result, err := s.store.List(ctx, family, params)
	if err != nil {
		return nil, err
	}

	items := make([]transport.ScheduleResponse, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, transport.NewScheduleResponse(item))
	}

	return &transport.ListSchedulesResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}, nil
}

// History returns the audit trail for a schedule, newest first.
func (s *Service) History(ctx context.Context, family domain.Family, scheduleID int64) ([]transport.HistoryResponse, error) {
	if _, err := s.store.GetByID(ctx, family, scheduleID); err != nil {
		return nil, err
	}

	records, err := s.store.ListHistory(ctx, family, scheduleID)
	if err != nil {
		return nil, err
	}

	out := make([]transport.HistoryResponse, 0, len(records))
	for _, record := range records {
		out = append(out, transport.NewHistoryResponse(record))
	}
	return out, nil
}

// Complete records a human marking a schedule as done: the state moves to
// the family's compliant state, the due date advances one frequency
// interval from the completion day, and the row is stamped manual so the
// reconciler honors the human's word until the new due date approaches.
func (s *Service) Complete(ctx context.Context, family domain.Family, id int64, req transport.CompleteScheduleRequest) (*domain.Schedule, error) {
	schedule, err := s.store.GetByID(ctx, family, id)
	if err != nil {
		return nil, err
	}

	policy := s.policies.For(family)
	now := s.now()

	performed := now
	if req.PerformedDate != nil {
		performed = *req.PerformedDate
	}
	completed := now
	if req.CompletedDate != nil {
		completed = *req.CompletedDate
	}
	if completed.Before(performed) {
		return nil, apperr.Validation("completedDate must not be before performedDate")
	}

	previous := schedule.State
	schedule.State = policy.Compliant
	schedule.NextDueDate = domain.NextDate(schedule.Frequency, domain.NormalizeToNoon(completed))
	schedule.LastUpdatedAt = now
	schedule.LastUpdatedBy = domain.UpdatedByManual

	record := &domain.HistoryRecord{
		ScheduleID:    schedule.ID,
		Family:        family,
		PreviousState: previous,
		NewState:      schedule.State,
		PerformedDate: performed,
		CompletedDate: completed,
		Notes:         req.Notes,
		RecordedBy:    domain.UpdatedByManual,
		CreatedAt:     now,
	}

	if err := s.store.SaveManualCompletion(ctx, schedule, record); err != nil {
		return nil, err
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.ScheduleStateChanged{
			BaseEvent:     events.NewBaseEvent(),
			ScheduleID:    schedule.ID,
			EquipmentID:   schedule.EquipmentID,
			Family:        family,
			PreviousState: previous,
			NewState:      schedule.State,
			NextDueDate:   schedule.NextDueDate,
			Responsible:   schedule.Responsible,
			Description:   schedule.Description,
			UpdatedBy:     domain.UpdatedByManual,
			Compliant:     true,
		})
	}

	return schedule, nil
}
