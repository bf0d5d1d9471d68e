package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"labequip_backend/internal/events"
	"labequip_backend/internal/schedule/domain"
	"labequip_backend/internal/schedule/repository"
	"labequip_backend/platform/logger"
)

// fakeStore is an in-memory Store shared by the service-layer tests.
type fakeStore struct {
	schedules []domain.Schedule
	history   []domain.HistoryRecord

	fetchErrAtOffset map[int]error
	updateErrIDs     map[int64]error

	updates     []domain.Schedule
	completions []domain.Schedule
}

func (f *fakeStore) FetchPage(_ context.Context, _ domain.Family, limit, offset int) ([]domain.Schedule, error) {
	if err, ok := f.fetchErrAtOffset[offset]; ok {
		return nil, err
	}
	if offset >= len(f.schedules) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.schedules) {
		end = len(f.schedules)
	}
	page := make([]domain.Schedule, end-offset)
	copy(page, f.schedules[offset:end])
	return page, nil
}

func (f *fakeStore) GetByID(_ context.Context, _ domain.Family, id int64) (*domain.Schedule, error) {
	for i := range f.schedules {
		if f.schedules[i].ID == id {
			s := f.schedules[i]
			return &s, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeStore) List(_ context.Context, _ domain.Family, params repository.ListParams) (*repository.ListResult, error) {
	return &repository.ListResult{
		Items:    f.schedules,
		Total:    len(f.schedules),
		Page:     params.Page,
		PageSize: params.PageSize,
	}, nil
}

func (f *fakeStore) UpdateReconciled(_ context.Context, s *domain.Schedule) error {
	if err, ok := f.updateErrIDs[s.ID]; ok {
		return err
	}
	f.updates = append(f.updates, *s)
	for i := range f.schedules {
		if f.schedules[i].ID == s.ID {
			f.schedules[i] = *s
		}
	}
	return nil
}

func (f *fakeStore) InsertHistory(_ context.Context, record *domain.HistoryRecord) error {
	f.history = append(f.history, *record)
	return nil
}

func (f *fakeStore) ListHistory(_ context.Context, _ domain.Family, scheduleID int64) ([]domain.HistoryRecord, error) {
	var out []domain.HistoryRecord
	for _, record := range f.history {
		if record.ScheduleID == scheduleID {
			out = append(out, record)
		}
	}
	return out, nil
}

func (f *fakeStore) SaveManualCompletion(_ context.Context, s *domain.Schedule, record *domain.HistoryRecord) error {
	f.completions = append(f.completions, *s)
	f.history = append(f.history, *record)
	for i := range f.schedules {
		if f.schedules[i].ID == s.ID {
			f.schedules[i] = *s
		}
	}
	return nil
}

// fakeBus records published events synchronously.
type fakeBus struct {
	published []events.Event
}

func (f *fakeBus) Publish(_ context.Context, event events.Event) {
	f.published = append(f.published, event)
}
func (f *fakeBus) PublishSync(_ context.Context, event events.Event) error {
	f.published = append(f.published, event)
	return nil
}
func (f *fakeBus) Subscribe(_ string, _ events.Handler) {}

var testNow = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

func newTestReconciler(store *fakeStore) *Reconciler {
	return NewReconciler(store, domain.NewPolicySet(), logger.New("development"))
}

func maintenanceSchedule(id int64, due time.Time, state domain.State, by domain.UpdatedBy) domain.Schedule {
	return domain.Schedule{
		ID:            id,
		EquipmentID:   id * 10,
		Family:        domain.FamilyMaintenance,
		NextDueDate:   due,
		Frequency:     domain.FrequencyMonthly,
		State:         state,
		LastUpdatedBy: by,
	}
}

func TestReconcileManualLock(t *testing.T) {
	store := &fakeStore{}
	r := newTestReconciler(store)

	s := maintenanceSchedule(1, testNow.AddDate(0, 0, -5), domain.StateMaintenanceLate, domain.UpdatedByManual)
	result, err := r.Reconcile(context.Background(), s, testNow)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if !result.Skipped {
		t.Error("Skipped = false, want true for manual non-compliant schedule")
	}
	if len(store.updates) != 0 {
		t.Errorf("store received %d updates, want 0", len(store.updates))
	}
}

func TestReconcileManualCompliantNotLocked(t *testing.T) {
	store := &fakeStore{}
	r := newTestReconciler(store)

	// Manually completed and still compliant: the engine may process it.
	s := maintenanceSchedule(1, testNow.AddDate(0, 0, 30), domain.StateMaintenanceDone, domain.UpdatedByManual)
	result, err := r.Reconcile(context.Background(), s, testNow)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if result.Skipped {
		t.Error("Skipped = true, want false for manual compliant schedule")
	}
	if result.Schedule.LastUpdatedBy != domain.UpdatedByAutomatic {
		t.Errorf("LastUpdatedBy = %q, want automatic", result.Schedule.LastUpdatedBy)
	}
}

func TestReconcileOverdueTransition(t *testing.T) {
	store := &fakeStore{}
	r := newTestReconciler(store)

	due := testNow.AddDate(0, 0, -3)
	s := maintenanceSchedule(1, due, domain.StateMaintenanceDone, domain.UpdatedByAutomatic)
	result, err := r.Reconcile(context.Background(), s, testNow)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	if !result.Transitioned {
		t.Error("Transitioned = false, want true")
	}
	if result.Compliant {
		t.Error("Compliant = true, want false")
	}
	if result.Schedule.State != domain.StateMaintenanceLate {
		t.Errorf("State = %q, want %q", result.Schedule.State, domain.StateMaintenanceLate)
	}
	// Due date only rolls forward on a compliant transition.
	if !result.Schedule.NextDueDate.Equal(due) {
		t.Errorf("NextDueDate = %v, want unchanged %v", result.Schedule.NextDueDate, due)
	}
	if result.History == nil {
		t.Fatal("History = nil, want audit row for transition")
	}
	if result.History.PreviousState != domain.StateMaintenanceDone || result.History.NewState != domain.StateMaintenanceLate {
		t.Errorf("History transition = %q -> %q", result.History.PreviousState, result.History.NewState)
	}
}

func TestReconcileDueTodayAtEarlyClock(t *testing.T) {
	store := &fakeStore{}
	r := newTestReconciler(store)

	// Due today at the noon anchor, swept by the 06:00 cron. The schedule
	// must enter the warning state on its boundary day and keep its due
	// date; anything else silently skips the due-today cycle.
	due := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	earlyClock := time.Date(2024, 3, 15, 6, 0, 0, 0, time.UTC)

	s := maintenanceSchedule(1, due, domain.StateMaintenanceDone, domain.UpdatedByAutomatic)
	result, err := r.Reconcile(context.Background(), s, earlyClock)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	if result.Schedule.State != domain.StateMaintenanceNeed {
		t.Errorf("State = %q, want %q", result.Schedule.State, domain.StateMaintenanceNeed)
	}
	if result.Compliant {
		t.Error("Compliant = true, want false on the boundary day")
	}
	if !result.Schedule.NextDueDate.Equal(due) {
		t.Errorf("NextDueDate = %v, want unchanged %v", result.Schedule.NextDueDate, due)
	}
	if !result.Transitioned {
		t.Error("Transitioned = false, want true")
	}
}

func TestReconcileCompliantReconfirmNoHistory(t *testing.T) {
	store := &fakeStore{}
	r := newTestReconciler(store)

	s := maintenanceSchedule(1, testNow.AddDate(0, 0, 20), domain.StateMaintenanceDone, domain.UpdatedByAutomatic)
	result, err := r.Reconcile(context.Background(), s, testNow)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	if result.Transitioned {
		t.Error("Transitioned = true, want false when state is re-confirmed")
	}
	if len(store.history) != 0 {
		t.Errorf("store received %d history rows, want 0", len(store.history))
	}
	if len(store.updates) != 1 {
		t.Errorf("store received %d updates, want 1 (timestamp refresh)", len(store.updates))
	}
}

func TestReconcileBackToCompliantAdvancesDueDate(t *testing.T) {
	store := &fakeStore{}
	r := newTestReconciler(store)

	// Marked as needing work, but the due date is comfortably in the
	// future: it reclassifies as compliant and rolls forward.
	s := maintenanceSchedule(1, testNow.AddDate(0, 0, 20), domain.StateMaintenanceNeed, domain.UpdatedByAutomatic)
	result, err := r.Reconcile(context.Background(), s, testNow)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	if !result.Transitioned || !result.Compliant {
		t.Fatalf("Transitioned = %v, Compliant = %v, want both true", result.Transitioned, result.Compliant)
	}
	want := domain.NextDate(domain.FrequencyMonthly, domain.NormalizeToNoon(testNow))
	if !result.Schedule.NextDueDate.Equal(want) {
		t.Errorf("NextDueDate = %v, want %v", result.Schedule.NextDueDate, want)
	}
}

func TestReconcileSameDayRerunIdempotent(t *testing.T) {
	store := &fakeStore{}
	r := newTestReconciler(store)

	s := maintenanceSchedule(1, testNow.AddDate(0, 0, 20), domain.StateMaintenanceNeed, domain.UpdatedByAutomatic)
	first, err := r.Reconcile(context.Background(), s, testNow)
	if err != nil {
		t.Fatalf("first Reconcile() error = %v", err)
	}

	later := testNow.Add(4 * time.Hour)
	second, err := r.Reconcile(context.Background(), first.Schedule, later)
	if err != nil {
		t.Fatalf("second Reconcile() error = %v", err)
	}

	if second.Transitioned {
		t.Error("second run Transitioned = true, want false")
	}
	if !second.Schedule.NextDueDate.Equal(first.Schedule.NextDueDate) {
		t.Errorf("due date drifted on same-day re-run: %v then %v",
			first.Schedule.NextDueDate, second.Schedule.NextDueDate)
	}
}

func TestReconcileZeroDueDateGoesToWarning(t *testing.T) {
	store := &fakeStore{}
	r := newTestReconciler(store)

	s := maintenanceSchedule(1, time.Time{}, domain.StateMaintenanceDone, domain.UpdatedByAutomatic)
	result, err := r.Reconcile(context.Background(), s, testNow)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if result.Schedule.State != domain.StateMaintenanceNeed {
		t.Errorf("State = %q, want %q", result.Schedule.State, domain.StateMaintenanceNeed)
	}
}

func TestReconcileUpdateFailure(t *testing.T) {
	wantErr := errors.New("connection reset")
	store := &fakeStore{updateErrIDs: map[int64]error{1: wantErr}}
	r := newTestReconciler(store)

	s := maintenanceSchedule(1, testNow.AddDate(0, 0, -3), domain.StateMaintenanceDone, domain.UpdatedByAutomatic)
	if _, err := r.Reconcile(context.Background(), s, testNow); !errors.Is(err, wantErr) {
		t.Errorf("Reconcile() error = %v, want %v", err, wantErr)
	}
}
