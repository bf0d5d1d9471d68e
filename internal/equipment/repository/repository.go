package repository

import (
	"context"
	"errors"
	"fmt"

	"labequip_backend/internal/equipment/domain"
	"labequip_backend/platform/apperr"
	"labequip_backend/platform/config"
	"labequip_backend/platform/phone"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository resolves notification context for equipment. It is read-only;
// equipment and laboratory records are managed outside this service.
type Repository struct {
	pool   *pgxpool.Pool
	region string
}

// New creates a new equipment repository.
func New(pool *pgxpool.Pool, cfg config.EquipmentConfig) *Repository {
	return &Repository{pool: pool, region: cfg.GetPhoneRegion()}
}

// GetContext returns the lab and contact details for one piece of equipment.
// Contact phone numbers are normalized to E.164 on read.
func (r *Repository) GetContext(ctx context.Context, equipmentID int64) (*domain.Context, error) {
	query := `
		SELECT e.id, e.name, l.name, l.manager_email, l.coordinator_email, l.contact_phone
		FROM equipment e
		JOIN laboratories l ON l.id = e.laboratory_id
		WHERE e.id = $1`

	var c domain.Context
	err := r.pool.QueryRow(ctx, query, equipmentID).Scan(
		&c.EquipmentID, &c.EquipmentName, &c.LabName,
		&c.ManagerEmail, &c.CoordinatorEmail, &c.ContactPhone,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("equipment not found")
		}
		return nil, fmt.Errorf("failed to get equipment context: %w", err)
	}

	c.ContactPhone = phone.NormalizeE164(c.ContactPhone, r.region)
	return &c, nil
}
