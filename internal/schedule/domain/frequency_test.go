package domain

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestNextDateIntervals(t *testing.T) {
	anchor := date(2024, time.March, 15)

	tests := []struct {
		frequency Frequency
		want      time.Time
	}{
		{FrequencyDaily, date(2024, time.March, 16)},
		{FrequencyWeekly, date(2024, time.March, 22)},
		{FrequencyBiweekly, date(2024, time.March, 29)},
		{FrequencyMonthly, date(2024, time.April, 15)},
		{FrequencyBimonthly, date(2024, time.May, 15)},
		{FrequencyQuarterly, date(2024, time.June, 15)},
		{FrequencyBiannual, date(2024, time.September, 15)},
		{FrequencyAnnually, date(2025, time.March, 15)},
	}

	for _, tc := range tests {
		got := NextDate(tc.frequency, anchor)
		if !got.Equal(tc.want) {
			t.Errorf("NextDate(%s, %s) = %s, want %s", tc.frequency, anchor, got, tc.want)
		}
	}
}

func TestNextDateAlwaysAdvances(t *testing.T) {
	anchors := []time.Time{
		date(2024, time.January, 1),
		date(2024, time.February, 29),
		date(2024, time.December, 31),
		date(2023, time.June, 30),
	}
	frequencies := []Frequency{
		FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly,
		FrequencyBimonthly, FrequencyQuarterly, FrequencyBiannual, FrequencyAnnually,
	}

	for _, anchor := range anchors {
		for _, f := range frequencies {
			if got := NextDate(f, anchor); !got.After(anchor) {
				t.Errorf("NextDate(%s, %s) = %s did not advance", f, anchor, got)
			}
		}
	}
}

func TestNextDateMonthEndClamping(t *testing.T) {
	tests := []struct {
		name      string
		frequency Frequency
		anchor    time.Time
		want      time.Time
	}{
		{"jan 31 to feb 29 leap", FrequencyMonthly, date(2024, time.January, 31), date(2024, time.February, 29)},
		{"jan 31 to feb 28 non-leap", FrequencyMonthly, date(2023, time.January, 31), date(2023, time.February, 28)},
		{"dec 31 wraps year", FrequencyMonthly, date(2023, time.December, 31), date(2024, time.January, 31)},
		{"oct 31 to dec 31", FrequencyBimonthly, date(2024, time.October, 31), date(2024, time.December, 31)},
		{"nov 30 quarterly", FrequencyQuarterly, date(2024, time.November, 30), date(2025, time.February, 28)},
		{"aug 31 biannual", FrequencyBiannual, date(2024, time.August, 31), date(2025, time.February, 28)},
		{"feb 29 annually", FrequencyAnnually, date(2024, time.February, 29), date(2025, time.February, 28)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := NextDate(tc.frequency, tc.anchor)
			if !got.Equal(tc.want) {
				t.Errorf("NextDate(%s, %s) = %s, want %s", tc.frequency, tc.anchor, got, tc.want)
			}
		})
	}
}

func TestNextDateUnknownFrequencyFallsBackToMonthly(t *testing.T) {
	anchor := date(2024, time.January, 31)
	got := NextDate(Frequency("fortnightly"), anchor)
	want := date(2024, time.February, 29)
	if !got.Equal(want) {
		t.Errorf("NextDate(unknown, %s) = %s, want monthly fallback %s", anchor, got, want)
	}
}

func TestNextDatePreservesTimeOfDay(t *testing.T) {
	anchor := time.Date(2024, time.May, 10, 12, 0, 0, 0, time.UTC)
	got := NextDate(FrequencyMonthly, anchor)
	if got.Hour() != 12 || got.Minute() != 0 {
		t.Errorf("NextDate changed time of day: %s", got)
	}
}

func TestNormalizeToNoon(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"midnight utc", time.Date(2024, time.April, 2, 0, 0, 0, 0, time.UTC), date(2024, time.April, 2)},
		{"late evening utc", time.Date(2024, time.April, 2, 23, 59, 59, 0, time.UTC), date(2024, time.April, 2)},
		{"non-utc zone", time.Date(2024, time.April, 2, 1, 0, 0, 0, time.FixedZone("CEST", 2*3600)), date(2024, time.April, 1)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeToNoon(tc.in); !got.Equal(tc.want) {
				t.Errorf("NormalizeToNoon(%s) = %s, want %s", tc.in, got, tc.want)
			}
		})
	}
}
