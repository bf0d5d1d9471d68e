package service

import (
	"context"
	"time"

	"labequip_backend/internal/schedule/domain"
	"labequip_backend/platform/logger"
)

// ReconcileResult describes what one reconciliation pass did to a schedule.
type ReconcileResult struct {
	Schedule     domain.Schedule
	Transitioned bool
	Compliant    bool
	Skipped      bool
	History      *domain.HistoryRecord
}

// Reconciler reclassifies a single schedule and conditionally rolls its due
// date forward. One instance serves all three families; the per-family
// differences live entirely in the injected policy set.
type Reconciler struct {
	store    Store
	policies *domain.PolicySet
	log      *logger.Logger
}

// NewReconciler creates a reconciler over the given store and policies.
func NewReconciler(store Store, policies *domain.PolicySet, log *logger.Logger) *Reconciler {
	return &Reconciler{store: store, policies: policies, log: log}
}

// Reconcile runs one pass over a single schedule.
//
// A schedule last touched manually while in a non-compliant state is left
// alone: a human decided it needs attention, and only a human action or a
// transition into the compliant state clears that. Otherwise the schedule
// is reclassified from its due date; whenever the resulting state is
// compliant the due date advances one frequency interval anchored at today
// noon, which makes a same-day re-run land on the same date.
func (r *Reconciler) Reconcile(ctx context.Context, s domain.Schedule, now time.Time) (ReconcileResult, error) {
	policy := r.policies.For(s.Family)

	if s.LastUpdatedBy == domain.UpdatedByManual && !policy.IsCompliant(s.State) {
		return ReconcileResult{Schedule: s, Skipped: true}, nil
	}

	previous := s.State
	newState := domain.Classify(s.NextDueDate, now, policy)

	if s.NextDueDate.IsZero() {
		r.log.Warn("schedule has no due date, treating as due today",
			"family", s.Family, "schedule_id", s.ID)
	}

	if policy.IsCompliant(newState) {
		s.NextDueDate = domain.NextDate(s.Frequency, domain.NormalizeToNoon(now))
	}
	s.State = newState
	s.LastUpdatedAt = now
	s.LastUpdatedBy = domain.UpdatedByAutomatic

	if err := r.store.UpdateReconciled(ctx, &s); err != nil {
		return ReconcileResult{Schedule: s}, err
	}

	result := ReconcileResult{
		Schedule:     s,
		Transitioned: previous != newState,
		Compliant:    policy.IsCompliant(newState),
	}

	// History rows record transitions only; a pass that re-confirms the
	// current state leaves no audit row.
	if result.Transitioned {
		record := &domain.HistoryRecord{
			ScheduleID:    s.ID,
			Family:        s.Family,
			PreviousState: previous,
			NewState:      newState,
			PerformedDate: now,
			CompletedDate: now,
			RecordedBy:    domain.UpdatedByAutomatic,
			CreatedAt:     now,
		}
		if err := r.store.InsertHistory(ctx, record); err != nil {
			return result, err
		}
		result.History = record
	}

	return result, nil
}
