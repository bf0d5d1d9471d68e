package domain

import "time"

// Schedule is one recurring task for one piece of equipment. A family's
// reconciler owns State, NextDueDate, LastUpdatedAt and LastUpdatedBy;
// everything else belongs to the CRUD side of the application.
type Schedule struct {
	ID            int64
	EquipmentID   int64
	Family        Family
	NextDueDate   time.Time
	Frequency     Frequency
	State         State
	Responsible   Role
	Description   string
	LastUpdatedAt time.Time
	LastUpdatedBy UpdatedBy
}

// HistoryRecord is an append-only audit row capturing one state transition,
// written by the reconciler (automatic) or the completion endpoint (manual).
type HistoryRecord struct {
	ID            int64
	ScheduleID    int64
	Family        Family
	PreviousState State
	NewState      State
	PerformedDate time.Time
	CompletedDate time.Time
	Notes         string
	RecordedBy    UpdatedBy
	CreatedAt     time.Time
}
