package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"labequip_backend/internal/events"
	"labequip_backend/internal/schedule/domain"
	"labequip_backend/platform/logger"
)

// fakeNotifier records dispatched transitions and answers with a canned
// outcome.
type fakeNotifier struct {
	ok          bool
	transitions []events.ScheduleStateChanged
}

func (f *fakeNotifier) Dispatch(_ context.Context, transition events.ScheduleStateChanged) bool {
	f.transitions = append(f.transitions, transition)
	return f.ok
}

func newTestRunner(store *fakeStore, notifier Notifier, bus events.Bus, pageSize int) *Runner {
	log := logger.New("development")
	runner := NewRunner(store, NewReconciler(store, domain.NewPolicySet(), log), notifier, bus, log, pageSize)
	runner.SetClock(func() time.Time { return testNow })
	return runner
}

func overdueSchedules(n int) []domain.Schedule {
	out := make([]domain.Schedule, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, maintenanceSchedule(int64(i), testNow.AddDate(0, 0, -2), domain.StateMaintenanceDone, domain.UpdatedByAutomatic))
	}
	return out
}

func TestRunSweepsAllPages(t *testing.T) {
	store := &fakeStore{schedules: overdueSchedules(45)}
	notifier := &fakeNotifier{ok: true}
	runner := newTestRunner(store, notifier, nil, 20)

	summary := runner.Run(context.Background(), domain.FamilyMaintenance)

	if summary.Err != nil {
		t.Fatalf("Err = %v, want nil", summary.Err)
	}
	if summary.Processed != 45 {
		t.Errorf("Processed = %d, want 45", summary.Processed)
	}
	if summary.Updated != 45 {
		t.Errorf("Updated = %d, want 45", summary.Updated)
	}
	if summary.NotificationsSent != 45 {
		t.Errorf("NotificationsSent = %d, want 45", summary.NotificationsSent)
	}
}

func TestRunRowFailureIsolated(t *testing.T) {
	store := &fakeStore{
		schedules:    overdueSchedules(5),
		updateErrIDs: map[int64]error{3: errors.New("deadlock")},
	}
	notifier := &fakeNotifier{ok: true}
	runner := newTestRunner(store, notifier, nil, 20)

	summary := runner.Run(context.Background(), domain.FamilyMaintenance)

	if summary.Err != nil {
		t.Fatalf("Err = %v, want nil (row failures never abort the run)", summary.Err)
	}
	if summary.Processed != 5 {
		t.Errorf("Processed = %d, want 5", summary.Processed)
	}
	if summary.Failed != 1 {
		t.Errorf("Failed = %d, want 1", summary.Failed)
	}
	if summary.Updated != 4 {
		t.Errorf("Updated = %d, want 4", summary.Updated)
	}
}

func TestRunPageFetchFailureAborts(t *testing.T) {
	wantErr := errors.New("connection refused")
	store := &fakeStore{
		schedules:        overdueSchedules(30),
		fetchErrAtOffset: map[int]error{20: wantErr},
	}
	runner := newTestRunner(store, &fakeNotifier{ok: true}, nil, 20)

	summary := runner.Run(context.Background(), domain.FamilyMaintenance)

	if !errors.Is(summary.Err, wantErr) {
		t.Errorf("Err = %v, want %v", summary.Err, wantErr)
	}
	// The first page was fully processed before the abort.
	if summary.Processed != 20 {
		t.Errorf("Processed = %d, want 20", summary.Processed)
	}
}

func TestRunNotificationFailureDoesNotFailRun(t *testing.T) {
	store := &fakeStore{schedules: overdueSchedules(3)}
	notifier := &fakeNotifier{ok: false}
	runner := newTestRunner(store, notifier, nil, 20)

	summary := runner.Run(context.Background(), domain.FamilyMaintenance)

	if summary.Err != nil {
		t.Fatalf("Err = %v, want nil", summary.Err)
	}
	if summary.NotificationsFailed != 3 {
		t.Errorf("NotificationsFailed = %d, want 3", summary.NotificationsFailed)
	}
	if summary.Updated != 3 {
		t.Errorf("Updated = %d, want 3 (notification failure never blocks the transition)", summary.Updated)
	}
}

func TestRunNoNotificationForCompliantTransition(t *testing.T) {
	store := &fakeStore{schedules: []domain.Schedule{
		maintenanceSchedule(1, testNow.AddDate(0, 0, 20), domain.StateMaintenanceNeed, domain.UpdatedByAutomatic),
	}}
	notifier := &fakeNotifier{ok: true}
	runner := newTestRunner(store, notifier, nil, 20)

	summary := runner.Run(context.Background(), domain.FamilyMaintenance)

	if summary.Updated != 1 {
		t.Fatalf("Updated = %d, want 1", summary.Updated)
	}
	if len(notifier.transitions) != 0 {
		t.Errorf("notifier received %d transitions, want 0 for good news", len(notifier.transitions))
	}
}

func TestRunSkippedManualRowsNotCounted(t *testing.T) {
	store := &fakeStore{schedules: []domain.Schedule{
		maintenanceSchedule(1, testNow.AddDate(0, 0, -2), domain.StateMaintenanceLate, domain.UpdatedByManual),
		maintenanceSchedule(2, testNow.AddDate(0, 0, -2), domain.StateMaintenanceDone, domain.UpdatedByAutomatic),
	}}
	runner := newTestRunner(store, &fakeNotifier{ok: true}, nil, 20)

	summary := runner.Run(context.Background(), domain.FamilyMaintenance)

	if summary.Processed != 2 {
		t.Errorf("Processed = %d, want 2", summary.Processed)
	}
	if summary.Updated != 1 {
		t.Errorf("Updated = %d, want 1 (the manual row stays locked)", summary.Updated)
	}
}

func TestRunCanceledContextAbortsBetweenPages(t *testing.T) {
	store := &fakeStore{schedules: overdueSchedules(3)}
	runner := newTestRunner(store, &fakeNotifier{ok: true}, nil, 20)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary := runner.Run(ctx, domain.FamilyMaintenance)

	if !errors.Is(summary.Err, context.Canceled) {
		t.Errorf("Err = %v, want context.Canceled", summary.Err)
	}
	if summary.Processed != 0 {
		t.Errorf("Processed = %d, want 0", summary.Processed)
	}
}

func TestRunPublishesCompletedEvent(t *testing.T) {
	store := &fakeStore{schedules: overdueSchedules(2)}
	bus := &fakeBus{}
	runner := newTestRunner(store, &fakeNotifier{ok: true}, bus, 20)

	summary := runner.Run(context.Background(), domain.FamilyMaintenance)

	if len(bus.published) != 1 {
		t.Fatalf("bus received %d events, want 1", len(bus.published))
	}
	completed, ok := bus.published[0].(events.BatchRunCompleted)
	if !ok {
		t.Fatalf("published event is %T, want BatchRunCompleted", bus.published[0])
	}
	if completed.RunID != summary.RunID {
		t.Errorf("RunID = %v, want %v", completed.RunID, summary.RunID)
	}
	if completed.Processed != 2 || completed.Updated != 2 {
		t.Errorf("counts = %d/%d, want 2/2", completed.Processed, completed.Updated)
	}
}
