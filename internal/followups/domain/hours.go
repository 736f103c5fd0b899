package domain

import "time"

// Delivery window: Monday through Saturday, [09:00, 20:00). Sunday is always
// closed. These are fixed product constants, not configuration.
const (
	WindowStartHour = 9
	WindowEndHour   = 20
)

// AdjustToWindow maps a timestamp to the next timestamp inside the delivery
// window. Timestamps already inside the window are returned unchanged, so the
// function is idempotent and never moves an out-of-window time backward.
func AdjustToWindow(t time.Time) time.Time {
	switch {
	case t.Weekday() == time.Sunday:
		return atWindowStart(t.AddDate(0, 0, 1))

	case t.Hour() < WindowStartHour:
		return atWindowStart(t)

	case t.Hour() >= WindowEndHour:
		days := 1
		if t.Weekday() == time.Saturday {
			// Saturday evening skips Sunday entirely.
			days = 2
		}
		next := t.AddDate(0, 0, days)
		if next.Weekday() == time.Sunday {
			next = next.AddDate(0, 0, 1)
		}
		return atWindowStart(next)

	default:
		return t
	}
}

// InWindow reports whether the timestamp falls inside the delivery window.
func InWindow(t time.Time) bool {
	if t.Weekday() == time.Sunday {
		return false
	}
	return t.Hour() >= WindowStartHour && t.Hour() < WindowEndHour
}

func atWindowStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), WindowStartHour, 0, 0, 0, t.Location())
}
