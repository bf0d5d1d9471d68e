package domain

import "time"

// Frequency is how often a schedule recurs.
type Frequency string

const (
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiweekly  Frequency = "biweekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyBimonthly Frequency = "bimonthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyBiannual  Frequency = "biannual"
	FrequencyAnnually  Frequency = "annually"
)

// NormalizeToNoon strips the time-of-day down to 12:00 UTC. Due dates are
// date-only values; anchoring them at noon keeps them on the same calendar
// day through timezone conversions at the storage boundary.
func NormalizeToNoon(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

// NextDate advances anchor by one interval of the given frequency. The
// result keeps the anchor's time of day. An unrecognized frequency advances
// by one month, matching how the system has always treated bad data.
func NextDate(frequency Frequency, anchor time.Time) time.Time {
	switch frequency {
	case FrequencyDaily:
		return anchor.AddDate(0, 0, 1)
	case FrequencyWeekly:
		return anchor.AddDate(0, 0, 7)
	case FrequencyBiweekly:
		return anchor.AddDate(0, 0, 14)
	case FrequencyMonthly:
		return addMonthsClamped(anchor, 1)
	case FrequencyBimonthly:
		return addMonthsClamped(anchor, 2)
	case FrequencyQuarterly:
		return addMonthsClamped(anchor, 3)
	case FrequencyBiannual:
		return addMonthsClamped(anchor, 6)
	case FrequencyAnnually:
		return addMonthsClamped(anchor, 12)
	default:
		return addMonthsClamped(anchor, 1)
	}
}

// addMonthsClamped adds calendar months with end-of-month clamping:
// Jan 31 + 1 month lands on Feb 28 (or 29), not Mar 2/3 as time.AddDate
// would produce.
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	hour, minute, sec := t.Clock()

	target := time.Date(year, month+time.Month(months), 1, hour, minute, sec, t.Nanosecond(), t.Location())
	if last := daysInMonth(target.Year(), target.Month()); day > last {
		day = last
	}

	return time.Date(target.Year(), target.Month(), day, hour, minute, sec, t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
