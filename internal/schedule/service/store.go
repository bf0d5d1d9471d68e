package service

import (
	"context"

	"labequip_backend/internal/events"
	"labequip_backend/internal/schedule/domain"
	"labequip_backend/internal/schedule/repository"
)

// Store is the persistence capability the schedule engine needs. The pgx
// repository satisfies it; tests inject fakes. The engine is the sole
// writer of the reconciler-owned columns, so the store exposes exactly the
// operations the engine performs and nothing broader.
type Store interface {
	FetchPage(ctx context.Context, family domain.Family, limit, offset int) ([]domain.Schedule, error)
	GetByID(ctx context.Context, family domain.Family, id int64) (*domain.Schedule, error)
	List(ctx context.Context, family domain.Family, params repository.ListParams) (*repository.ListResult, error)
	UpdateReconciled(ctx context.Context, s *domain.Schedule) error
	InsertHistory(ctx context.Context, record *domain.HistoryRecord) error
	ListHistory(ctx context.Context, family domain.Family, scheduleID int64) ([]domain.HistoryRecord, error)
	SaveManualCompletion(ctx context.Context, s *domain.Schedule, record *domain.HistoryRecord) error
}

// Notifier delivers a transition to the recipients that should hear about
// it. Implementations are best-effort: the return value feeds the batch
// counters, and no error ever propagates back into reconciliation.
type Notifier interface {
	Dispatch(ctx context.Context, transition events.ScheduleStateChanged) bool
}
