// Package transport defines the downtime API request and response shapes.
package transport

import (
	"time"

	"labequip_backend/internal/downtime/domain"
)

// OpenDowntimeRequest is the body for POST /downtime.
type OpenDowntimeRequest struct {
	EquipmentID int64      `json:"equipmentId" validate:"required,min=1"`
	Reason      string     `json:"reason" validate:"required,max=2000"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
}

// CloseDowntimeRequest is the body for POST /downtime/:id/close.
type CloseDowntimeRequest struct {
	EndedAt *time.Time `json:"endedAt,omitempty"`
}

// DowntimeResponse is the API shape of a downtime period.
type DowntimeResponse struct {
	ID          int64      `json:"id"`
	EquipmentID int64      `json:"equipmentId"`
	Reason      string     `json:"reason"`
	StartedAt   time.Time  `json:"startedAt"`
	EndedAt     *time.Time `json:"endedAt,omitempty"`
	Open        bool       `json:"open"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// NewDowntimeResponse converts a domain downtime to its API shape.
func NewDowntimeResponse(d domain.Downtime) DowntimeResponse {
	return DowntimeResponse{
		ID:          d.ID,
		EquipmentID: d.EquipmentID,
		Reason:      d.Reason,
		StartedAt:   d.StartedAt,
		EndedAt:     d.EndedAt,
		Open:        d.Open(),
		CreatedAt:   d.CreatedAt,
	}
}

// NewDowntimeListResponse converts a slice of domain downtimes.
func NewDowntimeListResponse(items []domain.Downtime) []DowntimeResponse {
	out := make([]DowntimeResponse, 0, len(items))
	for _, d := range items {
		out = append(out, NewDowntimeResponse(d))
	}
	return out
}
