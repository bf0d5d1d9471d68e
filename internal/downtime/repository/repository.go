package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"labequip_backend/internal/downtime/domain"
	"labequip_backend/platform/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const downtimeColumns = "id, equipment_id, reason, started_at, ended_at, created_at"

// Repository provides database operations for downtime logs.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new downtime repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanDowntime(row pgx.Row) (*domain.Downtime, error) {
	var d domain.Downtime
	err := row.Scan(&d.ID, &d.EquipmentID, &d.Reason, &d.StartedAt, &d.EndedAt, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Insert opens a new downtime period and returns it with generated fields.
func (r *Repository) Insert(ctx context.Context, d *domain.Downtime) (*domain.Downtime, error) {
	query := `
		INSERT INTO downtime_logs (equipment_id, reason, started_at)
		VALUES ($1, $2, $3)
		RETURNING ` + downtimeColumns

	saved, err := scanDowntime(r.pool.QueryRow(ctx, query, d.EquipmentID, d.Reason, d.StartedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to insert downtime: %w", err)
	}
	return saved, nil
}

// Close ends an open downtime period. Closing an already-closed or unknown
// period is a not-found.
func (r *Repository) Close(ctx context.Context, id int64, endedAt time.Time) error {
	query := `
		UPDATE downtime_logs
		SET ended_at = $2
		WHERE id = $1 AND ended_at IS NULL`

	tag, err := r.pool.Exec(ctx, query, id, endedAt)
	if err != nil {
		return fmt.Errorf("failed to close downtime: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("open downtime not found")
	}
	return nil
}

// ListByEquipment returns all downtime periods for one piece of equipment,
// newest first.
func (r *Repository) ListByEquipment(ctx context.Context, equipmentID int64) ([]domain.Downtime, error) {
	query := `
		SELECT ` + downtimeColumns + `
		FROM downtime_logs
		WHERE equipment_id = $1
		ORDER BY started_at DESC`

	rows, err := r.pool.Query(ctx, query, equipmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list downtime: %w", err)
	}
	defer rows.Close()

	var out []domain.Downtime
	for rows.Next() {
		d, err := scanDowntime(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan downtime: %w", err)
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate downtime: %w", err)
	}
	return out, nil
}

// GetByID returns one downtime period.
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Downtime, error) {
	query := `SELECT ` + downtimeColumns + ` FROM downtime_logs WHERE id = $1`

	d, err := scanDowntime(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("downtime not found")
		}
		return nil, fmt.Errorf("failed to get downtime: %w", err)
	}
	return d, nil
}
