package service

import (
	"context"
	"time"

	"labequip_backend/internal/events"
	"labequip_backend/internal/schedule/domain"
	"labequip_backend/platform/logger"

	"github.com/google/uuid"
)

// DefaultPageSize bounds per-invocation work so a run stays inside the
// external trigger's wall-clock ceiling.
const DefaultPageSize = 20

// Summary aggregates one batch run. It is reported to the trigger and
// archived, never persisted by the engine itself.
type Summary struct {
	RunID               uuid.UUID
	Family              domain.Family
	Processed           int
	Updated             int
	Failed              int
	NotificationsSent   int
	NotificationsFailed int
	StartTime           time.Time
	EndTime             time.Time
	Err                 error
}

// Runner sweeps every schedule of a family in fixed-size pages, reconciling
// each row and dispatching notifications for non-compliant transitions.
type Runner struct {
	store      Store
	reconciler *Reconciler
	notifier   Notifier
	bus        events.Bus
	log        *logger.Logger
	pageSize   int
	now        func() time.Time
}

// NewRunner creates a batch runner. A pageSize below 1 falls back to the
// default. The bus is optional; when set, a BatchRunCompleted event is
// published after every run.
func NewRunner(store Store, reconciler *Reconciler, notifier Notifier, bus events.Bus, log *logger.Logger, pageSize int) *Runner {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return &Runner{
		store:      store,
		reconciler: reconciler,
		notifier:   notifier,
		bus:        bus,
		log:        log,
		pageSize:   pageSize,
		now:        time.Now,
	}
}

// SetClock overrides the runner's time source. Tests only.
func (r *Runner) SetClock(now func() time.Time) {
	r.now = now
}

// Run sweeps all schedules of the family.
//
// A row-level failure is isolated: it is counted and the sweep continues.
// A page-fetch failure aborts the run, because without the page the
// remaining schedules are unknown rather than individually failed. Context
// cancellation is honored between pages, never mid-page, so every row that
// was persisted stays persisted.
func (r *Runner) Run(ctx context.Context, family domain.Family) Summary {
	summary := Summary{
		RunID:     uuid.New(),
		Family:    family,
		StartTime: r.now(),
	}
	log := r.log.WithRunID(summary.RunID.String())

	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			summary.Err = err
			break
		}

		page, err := r.store.FetchPage(ctx, family, r.pageSize, offset)
		if err != nil {
			log.DatabaseError("fetch schedule page", err)
			summary.Err = err
			break
		}
		if len(page) == 0 {
			break
		}

		for _, schedule := range page {
			now := r.now()
			result, err := r.reconciler.Reconcile(ctx, schedule, now)
			summary.Processed++
			if err != nil {
				summary.Failed++
				log.DatabaseError("reconcile schedule", err)
				continue
			}
			if result.Skipped {
				continue
			}
			if result.Transitioned {
				summary.Updated++
				if !result.Compliant {
					r.dispatch(ctx, &summary, result, schedule.State)
				}
			}
		}

		if len(page) < r.pageSize {
			break
		}
		offset += r.pageSize
	}

	summary.EndTime = r.now()
	log.BatchRun(string(family), summary.Processed, summary.Updated, summary.Failed,
		float64(summary.EndTime.Sub(summary.StartTime).Milliseconds()))

	if r.bus != nil {
		completed := events.BatchRunCompleted{
			BaseEvent:           events.NewBaseEvent(),
			RunID:               summary.RunID,
			Family:              family,
			Processed:           summary.Processed,
			Updated:             summary.Updated,
			Failed:              summary.Failed,
			NotificationsSent:   summary.NotificationsSent,
			NotificationsFailed: summary.NotificationsFailed,
			StartTime:           summary.StartTime,
			EndTime:             summary.EndTime,
		}
		if summary.Err != nil {
			completed.Error = summary.Err.Error()
		}
		r.bus.Publish(ctx, completed)
	}

	return summary
}

// dispatch forwards a non-compliant transition to the notifier and folds
// the outcome into the summary. Compliant transitions are good news and
// stay quiet.
func (r *Runner) dispatch(ctx context.Context, summary *Summary, result ReconcileResult, previous domain.State) {
	if r.notifier == nil {
		return
	}

	transition := events.ScheduleStateChanged{
		BaseEvent:     events.NewBaseEvent(),
		ScheduleID:    result.Schedule.ID,
		EquipmentID:   result.Schedule.EquipmentID,
		Family:        result.Schedule.Family,
		PreviousState: previous,
		NewState:      result.Schedule.State,
		NextDueDate:   result.Schedule.NextDueDate,
		Responsible:   result.Schedule.Responsible,
		Description:   result.Schedule.Description,
		UpdatedBy:     domain.UpdatedByAutomatic,
		Compliant:     false,
	}

	if r.notifier.Dispatch(ctx, transition) {
		summary.NotificationsSent++
	} else {
		summary.NotificationsFailed++
	}
}
