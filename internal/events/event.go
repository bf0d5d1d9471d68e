// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"labequip_backend/internal/schedule/domain"
	"labequip_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// =============================================================================
// Schedule Domain Events
// =============================================================================

// ScheduleStateChanged is published after the reconciler (or the manual
// completion endpoint) persists a state transition. The notification
// dispatcher consumes it for non-compliant transitions; delivery problems
// never reach the publisher.
type ScheduleStateChanged struct {
	BaseEvent
	ScheduleID    int64            `json:"scheduleId"`
	EquipmentID   int64            `json:"equipmentId"`
	Family        domain.Family    `json:"family"`
	PreviousState domain.State     `json:"previousState"`
	NewState      domain.State     `json:"newState"`
	NextDueDate   time.Time        `json:"nextDueDate"`
	Responsible   domain.Role      `json:"responsible"`
	Description   string           `json:"description"`
	UpdatedBy     domain.UpdatedBy `json:"updatedBy"`
	Compliant     bool             `json:"compliant"`
}

func (e ScheduleStateChanged) EventName() string { return "schedule.state.changed" }

// BatchRunCompleted is published after a batch run finishes, whether it
// swept every page or aborted on a fetch failure. The report archiver
// consumes it.
type BatchRunCompleted struct {
	BaseEvent
	RunID               uuid.UUID     `json:"runId"`
	Family              domain.Family `json:"family"`
	Processed           int           `json:"processed"`
	Updated             int           `json:"updated"`
	Failed              int           `json:"failed"`
	NotificationsSent   int           `json:"notificationsSent"`
	NotificationsFailed int           `json:"notificationsFailed"`
	StartTime           time.Time     `json:"startTime"`
	EndTime             time.Time     `json:"endTime"`
	Error               string        `json:"error,omitempty"`
}

func (e BatchRunCompleted) EventName() string { return "schedule.batch.completed" }

// DowntimeOpened is published when a downtime period is reported for a
// piece of equipment.
type DowntimeOpened struct {
	BaseEvent
	DowntimeID  int64  `json:"downtimeId"`
	EquipmentID int64  `json:"equipmentId"`
	Reason      string `json:"reason"`
}

func (e DowntimeOpened) EventName() string { return "equipment.downtime.opened" }
