package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"labequip_backend/internal/schedule/domain"
	"labequip_backend/platform/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const scheduleNotFoundMsg = "schedule not found"

// Table names per family. The three families are stored in parallel tables
// with identical columns; the repository is the single place that knows
// which table a family lives in.
var scheduleTables = map[domain.Family]string{
	domain.FamilyMaintenance:     "maintenance_schedules",
	domain.FamilyCalibration:     "calibration_schedules",
	domain.FamilyExternalControl: "external_control_schedules",
}

var historyTables = map[domain.Family]string{
	domain.FamilyMaintenance:     "maintenance_history",
	domain.FamilyCalibration:     "calibration_history",
	domain.FamilyExternalControl: "external_control_history",
}

const scheduleColumns = "id, equipment_id, next_due_date, frequency, state, responsible, description, last_updated_at, last_updated_by"

// Repository provides database operations for schedules of all families.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new schedule repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scheduleTable(family domain.Family) (string, error) {
	table, ok := scheduleTables[family]
	if !ok {
		return "", fmt.Errorf("no schedule table for family %q", family)
	}
	return table, nil
}

func historyTable(family domain.Family) (string, error) {
	table, ok := historyTables[family]
	if !ok {
		return "", fmt.Errorf("no history table for family %q", family)
	}
	return table, nil
}

func scanSchedule(row pgx.Row, family domain.Family) (*domain.Schedule, error) {
	var s domain.Schedule
	// next_due_date is nullable; NULL maps to the zero time, which the
	// classifier treats as due today rather than aborting the sweep.
	var due *time.Time
	err := row.Scan(
		&s.ID, &s.EquipmentID, &due, &s.Frequency, &s.State,
		&s.Responsible, &s.Description, &s.LastUpdatedAt, &s.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	if due != nil {
		s.NextDueDate = *due
	}
	s.Family = family
	return &s, nil
}

func scanHistory(row pgx.Row, family domain.Family) (*domain.HistoryRecord, error) {
	var h domain.HistoryRecord
	var performed, completed *time.Time
	err := row.Scan(
		&h.ID, &h.ScheduleID, &h.PreviousState, &h.NewState,
		&performed, &completed, &h.Notes, &h.RecordedBy, &h.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if performed != nil {
		h.PerformedDate = *performed
	}
	if completed != nil {
		h.CompletedDate = *completed
	}
	h.Family = family
	return &h, nil
}

// FetchPage retrieves one window of schedules for a family, ordered by id
// for stable offset pagination across pages of the same run.
func (r *Repository) FetchPage(ctx context.Context, family domain.Family, limit, offset int) ([]domain.Schedule, error) {
	table, err := scheduleTable(family)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY id LIMIT $1 OFFSET $2`, scheduleColumns, table)

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s page: %w", family, err)
	}
	defer rows.Close()

	var items []domain.Schedule
	for rows.Next() {
		s, err := scanSchedule(rows, family)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s schedule: %w", family, err)
		}
		items = append(items, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s schedules: %w", family, err)
	}

	return items, nil
}

// GetByID retrieves a single schedule.
func (r *Repository) GetByID(ctx context.Context, family domain.Family, id int64) (*domain.Schedule, error) {
	table, err := scheduleTable(family)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, scheduleColumns, table)

	s, err := scanSchedule(r.pool.QueryRow(ctx, query, id), family)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(scheduleNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get %s schedule: %w", family, err)
	}

	return s, nil
}

// ListParams contains parameters for listing schedules.
type ListParams struct {
	EquipmentID *int64
	State       *domain.State
	Page        int
	PageSize    int
}

// ListResult contains the result of listing schedules.
type ListResult struct {
	Items      []domain.Schedule
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// List retrieves schedules with optional filtering for the read surface.
func (r *Repository) List(ctx context.Context, family domain.Family, params ListParams) (*ListResult, error) {
	table, err := scheduleTable(family)
	if err != nil {
		return nil, err
	}

	baseQuery := fmt.Sprintf(`FROM %s WHERE TRUE`, table)
	args := []interface{}{}
	argIndex := 1

	if params.EquipmentID != nil {
		baseQuery += fmt.Sprintf(" AND equipment_id = $%d", argIndex)
		args = append(args, *params.EquipmentID)
		argIndex++
	}
	if params.State != nil {
		baseQuery += fmt.Sprintf(" AND state = $%d", argIndex)
		args = append(args, *params.State)
		argIndex++
	}

	var total int
	countQuery := "SELECT COUNT(*) " + baseQuery
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count %s schedules: %w", family, err)
	}

	totalPages := (total + params.PageSize - 1) / params.PageSize
	offset := (params.Page - 1) * params.PageSize

	selectQuery := fmt.Sprintf(`SELECT %s %s ORDER BY next_due_date ASC LIMIT $%d OFFSET $%d`,
		scheduleColumns, baseQuery, argIndex, argIndex+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s schedules: %w", family, err)
	}
	defer rows.Close()

	var items []domain.Schedule
	for rows.Next() {
		s, err := scanSchedule(rows, family)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s schedule: %w", family, err)
		}
		items = append(items, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s schedules: %w", family, err)
	}

	return &ListResult{
		Items:      items,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages,
	}, nil
}

// UpdateReconciled persists the reconciler-owned columns of a schedule.
// All other columns belong to the CRUD collaborators and are not touched.
func (r *Repository) UpdateReconciled(ctx context.Context, s *domain.Schedule) error {
	table, err := scheduleTable(s.Family)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`UPDATE %s SET state = $2, next_due_date = $3, last_updated_at = $4, last_updated_by = $5 WHERE id = $1`, table)

	result, err := r.pool.Exec(ctx, query, s.ID, s.State, s.NextDueDate, s.LastUpdatedAt, s.LastUpdatedBy)
	if err != nil {
		return fmt.Errorf("failed to update %s schedule: %w", s.Family, err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound(scheduleNotFoundMsg)
	}

	return nil
}

// InsertHistory appends one state-transition audit row. History rows are
// created once and never mutated.
func (r *Repository) InsertHistory(ctx context.Context, record *domain.HistoryRecord) error {
	table, err := historyTable(record.Family)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (schedule_id, previous_state, new_state, performed_date, completed_date, notes, recorded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, table)

	_, err = r.pool.Exec(ctx, query,
		record.ScheduleID, record.PreviousState, record.NewState,
		record.PerformedDate, record.CompletedDate, record.Notes,
		record.RecordedBy, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert %s history: %w", record.Family, err)
	}

	return nil
}

// ListHistory returns the audit trail for a schedule, newest first.
func (r *Repository) ListHistory(ctx context.Context, family domain.Family, scheduleID int64) ([]domain.HistoryRecord, error) {
	table, err := historyTable(family)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT id, schedule_id, previous_state, new_state, performed_date, completed_date, notes, recorded_by, created_at
		FROM %s WHERE schedule_id = $1 ORDER BY created_at DESC`, table)

	rows, err := r.pool.Query(ctx, query, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s history: %w", family, err)
	}
	defer rows.Close()

	var items []domain.HistoryRecord
	for rows.Next() {
		h, err := scanHistory(rows, family)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s history: %w", family, err)
		}
		items = append(items, *h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s history: %w", family, err)
	}

	return items, nil
}

// SaveManualCompletion persists a manual completion: the schedule update and
// its history row commit together or not at all.
func (r *Repository) SaveManualCompletion(ctx context.Context, s *domain.Schedule, record *domain.HistoryRecord) error {
	scheduleTbl, err := scheduleTable(s.Family)
	if err != nil {
		return err
	}
	historyTbl, err := historyTable(record.Family)
	if err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin completion tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	updateQuery := fmt.Sprintf(`UPDATE %s SET state = $2, next_due_date = $3, last_updated_at = $4, last_updated_by = $5 WHERE id = $1`, scheduleTbl)
	result, err := tx.Exec(ctx, updateQuery, s.ID, s.State, s.NextDueDate, s.LastUpdatedAt, s.LastUpdatedBy)
	if err != nil {
		return fmt.Errorf("failed to update %s schedule: %w", s.Family, err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(scheduleNotFoundMsg)
	}

	insertQuery := fmt.Sprintf(`
		INSERT INTO %s (schedule_id, previous_state, new_state, performed_date, completed_date, notes, recorded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, historyTbl)
	_, err = tx.Exec(ctx, insertQuery,
		record.ScheduleID, record.PreviousState, record.NewState,
		record.PerformedDate, record.CompletedDate, record.Notes,
		record.RecordedBy, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert %s history: %w", record.Family, err)
	}

	return tx.Commit(ctx)
}
