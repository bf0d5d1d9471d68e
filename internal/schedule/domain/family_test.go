package domain

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseFamily(t *testing.T) {
	tests := []struct {
		raw     string
		want    Family
		wantErr bool
	}{
		{raw: "maintenance", want: FamilyMaintenance},
		{raw: "calibration", want: FamilyCalibration},
		{raw: "external-control", want: FamilyExternalControl},
		{raw: "inventory", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseFamily(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseFamily(%q) error = nil, want error", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFamily(%q) error = %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("ParseFamily(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestDefaultPolicyWindows(t *testing.T) {
	set := NewPolicySet()

	if got := set.For(FamilyMaintenance).WarningWindowDays; got != 0 {
		t.Errorf("maintenance window = %d, want 0", got)
	}
	if got := set.For(FamilyCalibration).WarningWindowDays; got != 3 {
		t.Errorf("calibration window = %d, want 3", got)
	}
	if got := set.For(FamilyExternalControl).WarningWindowDays; got != 7 {
		t.Errorf("external-control window = %d, want 7", got)
	}
}

func TestLoadPolicySetOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policies.yml")
	content := `calibration:
  warning_window_days: 5
external-control:
  due_grace_days: -2
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	set, err := LoadPolicySet(path)
	if err != nil {
		t.Fatalf("LoadPolicySet() error = %v", err)
	}

	if got := set.For(FamilyCalibration).WarningWindowDays; got != 5 {
		t.Errorf("calibration window = %d, want 5", got)
	}
	if got := set.For(FamilyExternalControl).DueGraceDays; got != -2 {
		t.Errorf("external-control grace = %d, want -2", got)
	}
	// Untouched families keep the built-in policy.
	if got := set.For(FamilyMaintenance).WarningWindowDays; got != 0 {
		t.Errorf("maintenance window = %d, want 0", got)
	}
	// State vocabularies are never overridable.
	if got := set.For(FamilyCalibration).Overdue; got != StateLateCalibration {
		t.Errorf("calibration overdue state = %q, want %q", got, StateLateCalibration)
	}
}

func TestLoadPolicySetUnknownFamily(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policies.yml")
	if err := os.WriteFile(path, []byte("inventory:\n  warning_window_days: 1\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadPolicySet(path); err == nil {
		t.Error("LoadPolicySet() error = nil, want error for unknown family")
	}
}

func TestLoadPolicySetEmptyPath(t *testing.T) {
	set, err := LoadPolicySet("")
	if err != nil {
		t.Fatalf("LoadPolicySet(\"\") error = %v", err)
	}
	if got := set.For(FamilyCalibration).WarningWindowDays; got != 3 {
		t.Errorf("calibration window = %d, want 3", got)
	}
}
