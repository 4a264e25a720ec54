// Package recurrence computes recurring-transaction schedules. All functions
// are pure; callers decide whether to anchor on the transaction's economic
// date (template creation) or on processing time (advancement after a
// materialized occurrence).
package recurrence

import (
	"time"

	apperrors "drachma/internal/errors"
	"drachma/internal/models"
)

// Next returns the next occurrence date after date for the given interval.
//
// MONTHLY preserves the day of month, clamping to the last day of the target
// month when it would overflow (Jan 31 -> Feb 29 in a leap year). YEARLY
// clamps Feb 29 to Feb 28 on non-leap target years.
func Next(date time.Time, interval models.RecurringInterval) (time.Time, error) {
	switch interval {
	case models.RecurringDaily:
		return date.AddDate(0, 0, 1), nil
	case models.RecurringWeekly:
		return date.AddDate(0, 0, 7), nil
	case models.RecurringMonthly:
		return addMonthsClamped(date, 1), nil
	case models.RecurringYearly:
		return addYearsClamped(date, 1), nil
	default:
		return time.Time{}, apperrors.ErrInvalidRecurringInterval
	}
}

// Due reports whether a template is due at now. A template that has never
// been processed is always due; otherwise it is due exactly when now has
// reached its next occurrence date (equality counts as due).
func Due(nextDate, lastProcessed *time.Time, now time.Time) bool {
	if lastProcessed == nil {
		return true
	}
	if nextDate == nil {
		return false
	}
	return !nextDate.After(now)
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	target := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysInMonth(target.Year(), target.Month()); d > last {
		d = last
	}
	return time.Date(target.Year(), target.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func addYearsClamped(t time.Time, years int) time.Time {
	y, m, d := t.Date()
	if last := daysInMonth(y+years, m); d > last {
		d = last
	}
	return time.Date(y+years, m, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month) int {
	// Day zero of the following month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
