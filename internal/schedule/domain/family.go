// Package domain holds the recurring-schedule state machine: families,
// per-family policies, frequency arithmetic, and state classification.
package domain

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Family identifies one of the three recurring schedule types. They share
// the engine shape but carry distinct state vocabularies and thresholds.
type Family string

const (
	FamilyMaintenance     Family = "maintenance"
	FamilyCalibration     Family = "calibration"
	FamilyExternalControl Family = "external-control"
)

// Families lists all schedule families in processing order.
var Families = []Family{FamilyMaintenance, FamilyCalibration, FamilyExternalControl}

// ParseFamily validates a family string from the outside world.
func ParseFamily(raw string) (Family, error) {
	switch Family(raw) {
	case FamilyMaintenance, FamilyCalibration, FamilyExternalControl:
		return Family(raw), nil
	}
	return "", fmt.Errorf("unknown schedule family %q", raw)
}

// State is a family-specific compliance state value as persisted.
type State string

// Maintenance states. The misspelled values are the literal strings the
// production database has always stored; changing them would orphan
// existing rows.
const (
	StateMaintenanceDone State = "done"
	StateMaintenanceNeed State = "need maintance"
	StateMaintenanceLate State = "late maintance"
)

// Calibration states.
const (
	StateCalibrated      State = "calibrated"
	StateNeedCalibration State = "need calibration"
	StateLateCalibration State = "late calibration"
)

// External control states. "reception" is the most severe: the control
// material must be sent back for reception testing.
const (
	StateControlDone      State = "done"
	StateControlFinalDate State = "final date"
	StateControlReception State = "reception"
)

// UpdatedBy records which path last wrote a schedule row.
type UpdatedBy string

const (
	UpdatedByManual    UpdatedBy = "manual"
	UpdatedByAutomatic UpdatedBy = "automatic"
)

// Role is the staff role responsible for acting on a schedule.
type Role string

const (
	RoleLabInCharge     Role = "lab-in-charge"
	RoleBiomedical      Role = "biomedical"
	RoleCompanyEngineer Role = "company-engineer"
	RoleLabTechnician   Role = "lab-technician"
)

// Policy is the per-family parameterization of the shared engine.
type Policy struct {
	Family Family

	// Compliant, Warning and Overdue are the family's three-state
	// vocabulary ordered from good to bad.
	Compliant State
	Warning   State
	Overdue   State

	// WarningWindowDays is how many days before the due date a schedule
	// enters the warning state. 0 means warning only on the due day.
	WarningWindowDays int

	// DueGraceDays shifts the overdue boundary. A schedule is overdue when
	// daysUntilDue < DueGraceDays. The value is 0 for every family: an older
	// collaborator used -2 for maintenance, but that let equipment sit two
	// days past due without escalation.
	DueGraceDays int
}

// IsCompliant reports whether state is the policy's compliant state.
func (p Policy) IsCompliant(state State) bool {
	return state == p.Compliant
}

// defaultPolicies returns the built-in per-family policies.
func defaultPolicies() map[Family]Policy {
	return map[Family]Policy{
		FamilyMaintenance: {
			Family:            FamilyMaintenance,
			Compliant:         StateMaintenanceDone,
			Warning:           StateMaintenanceNeed,
			Overdue:           StateMaintenanceLate,
			WarningWindowDays: 0,
		},
		FamilyCalibration: {
			Family:            FamilyCalibration,
			Compliant:         StateCalibrated,
			Warning:           StateNeedCalibration,
			Overdue:           StateLateCalibration,
			WarningWindowDays: 3,
		},
		FamilyExternalControl: {
			Family:            FamilyExternalControl,
			Compliant:         StateControlDone,
			Warning:           StateControlFinalDate,
			Overdue:           StateControlReception,
			WarningWindowDays: 7,
		},
	}
}

// PolicySet resolves the policy for each family.
type PolicySet struct {
	policies map[Family]Policy
}

// NewPolicySet returns the built-in policies.
func NewPolicySet() *PolicySet {
	return &PolicySet{policies: defaultPolicies()}
}

// For returns the policy for the given family.
func (s *PolicySet) For(family Family) Policy {
	return s.policies[family]
}

// policyOverride is the YAML shape for per-family tuning. Only thresholds
// can be overridden; state vocabularies are fixed.
type policyOverride struct {
	WarningWindowDays *int `yaml:"warning_window_days"`
	DueGraceDays      *int `yaml:"due_grace_days"`
}

// LoadPolicySet layers overrides from a YAML file over the built-in
// policies. An empty path returns the defaults.
func LoadPolicySet(path string) (*PolicySet, error) {
	set := NewPolicySet()
	if path == "" {
		return set, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}

	overrides := make(map[string]policyOverride)
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse policy file: %w", err)
	}

	for rawFamily, ov := range overrides {
		family, err := ParseFamily(rawFamily)
		if err != nil {
			return nil, err
		}
		policy := set.policies[family]
		if ov.WarningWindowDays != nil {
			policy.WarningWindowDays = *ov.WarningWindowDays
		}
		if ov.DueGraceDays != nil {
			policy.DueGraceDays = *ov.DueGraceDays
		}
		set.policies[family] = policy
	}

	return set, nil
}
