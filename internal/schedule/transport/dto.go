package transport

import (
	"time"

	"labequip_backend/internal/schedule/domain"
)

// RunSummaryResponse is the JSON body returned to the cron trigger after a
// batch run.
type RunSummaryResponse struct {
	Success             bool      `json:"success"`
	Family              string    `json:"family,omitempty"`
	Processed           int       `json:"processed"`
	UpdatedCount        int       `json:"updatedCount"`
	FailedCount         int       `json:"failedCount"`
	NotificationsSent   int       `json:"notificationsSent"`
	NotificationsFailed int       `json:"notificationsFailed"`
	Timestamp           time.Time `json:"timestamp"`
	Error               string    `json:"error,omitempty"`
}

// RunAllResponse aggregates the per-family summaries of a combined run.
type RunAllResponse struct {
	Success   bool                 `json:"success"`
	Runs      []RunSummaryResponse `json:"runs"`
	Timestamp time.Time            `json:"timestamp"`
}

// EnqueuedResponse acknowledges sweeps queued for out-of-band execution.
type EnqueuedResponse struct {
	Success bool     `json:"success"`
	Queued  []string `json:"queued"`
}

// CompleteScheduleRequest is the body of a manual completion.
type CompleteScheduleRequest struct {
	Notes         string     `json:"notes" validate:"max=2000"`
	PerformedDate *time.Time `json:"performedDate,omitempty"`
	CompletedDate *time.Time `json:"completedDate,omitempty"`
}

// ListSchedulesRequest is the query parameters for listing schedules.
type ListSchedulesRequest struct {
	EquipmentID *int64  `form:"equipmentId"`
	State       *string `form:"state"`
	Page        int     `form:"page" validate:"omitempty,min=1"`
	PageSize    int     `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// ScheduleResponse is the read model for one schedule.
type ScheduleResponse struct {
	ID            int64     `json:"id"`
	EquipmentID   int64     `json:"equipmentId"`
	Family        string    `json:"family"`
	NextDueDate   time.Time `json:"nextDueDate"`
	Frequency     string    `json:"frequency"`
	State         string    `json:"state"`
	Responsible   string    `json:"responsible"`
	Description   string    `json:"description"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"`
}

// ListSchedulesResponse is the paginated list read model.
type ListSchedulesResponse struct {
	Items      []ScheduleResponse `json:"items"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"pageSize"`
	TotalPages int                `json:"totalPages"`
}

// HistoryResponse is the read model for one audit row.
type HistoryResponse struct {
	ID            int64     `json:"id"`
	ScheduleID    int64     `json:"scheduleId"`
	PreviousState string    `json:"previousState"`
	NewState      string    `json:"newState"`
	PerformedDate time.Time `json:"performedDate"`
	CompletedDate time.Time `json:"completedDate"`
	Notes         string    `json:"notes,omitempty"`
	RecordedBy    string    `json:"recordedBy"`
	CreatedAt     time.Time `json:"createdAt"`
}

// NewScheduleResponse converts a domain schedule to its read model.
func NewScheduleResponse(s domain.Schedule) ScheduleResponse {
	return ScheduleResponse{
		ID:            s.ID,
		EquipmentID:   s.EquipmentID,
		Family:        string(s.Family),
		NextDueDate:   s.NextDueDate,
		Frequency:     string(s.Frequency),
		State:         string(s.State),
		Responsible:   string(s.Responsible),
		Description:   s.Description,
		LastUpdatedAt: s.LastUpdatedAt,
		LastUpdatedBy: string(s.LastUpdatedBy),
	}
}

// NewHistoryResponse converts a domain history record to its read model.
func NewHistoryResponse(h domain.HistoryRecord) HistoryResponse {
	return HistoryResponse{
		ID:            h.ID,
		ScheduleID:    h.ScheduleID,
		PreviousState: string(h.PreviousState),
		NewState:      string(h.NewState),
		PerformedDate: h.PerformedDate,
		CompletedDate: h.CompletedDate,
		Notes:         h.Notes,
		RecordedBy:    string(h.RecordedBy),
		CreatedAt:     h.CreatedAt,
	}
}
