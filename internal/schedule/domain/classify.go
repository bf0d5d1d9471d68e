package domain

import "time"

// DaysUntilDue returns the calendar-day distance from now to due. Both
// sides are normalized to the noon anchor first, so the answer does not
// move with the clock the sweep happens to run at. A due date today is 0,
// yesterday is -1, tomorrow is 1.
func DaysUntilDue(due, now time.Time) int {
	due = NormalizeToNoon(due)
	now = NormalizeToNoon(now)
	return int(due.Sub(now).Hours() / 24)
}

// Classify maps a due date onto the policy's three states. A zero due date
// is treated as due today, the safe reading of corrupt rows.
func Classify(due, now time.Time, policy Policy) State {
	if due.IsZero() {
		return policy.Warning
	}

	days := DaysUntilDue(due, now)
	switch {
	case days < policy.DueGraceDays:
		return policy.Overdue
	case days <= policy.WarningWindowDays:
		return policy.Warning
	default:
		return policy.Compliant
	}
}
