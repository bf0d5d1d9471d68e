// Package domain holds the downtime log entities.
package domain

import "time"

// Downtime is one unavailability period for a piece of equipment. EndedAt
// is nil while the period is still open.
type Downtime struct {
	ID          int64
	EquipmentID int64
	Reason      string
	StartedAt   time.Time
	EndedAt     *time.Time
	CreatedAt   time.Time
}

// Open reports whether the period has not been closed yet.
func (d Downtime) Open() bool {
	return d.EndedAt == nil
}
