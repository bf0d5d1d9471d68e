// Package domain holds the equipment-side entities shared by the
// equipment repository and its consumers.
package domain

// Context is the denormalized lab/equipment view resolved for a single
// piece of equipment. It exists so the notification path can address
// the right people without walking the equipment and laboratory tables
// itself.
type Context struct {
	EquipmentID      int64
	EquipmentName    string
	LabName          string
	ManagerEmail     string
	CoordinatorEmail string
	ContactPhone     string
}
