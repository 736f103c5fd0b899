package domain

import (
	"testing"
	"time"
)

func date(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC)
}

func TestAdjustToWindow_SaturdayEveningSkipsToMonday(t *testing.T) {
	// Saturday 21:30 has no remaining window that week; Sunday is closed.
	raw := date(2026, time.September, 5, 21, 30)
	adjusted := AdjustToWindow(raw)

	want := date(2026, time.September, 7, 9, 0)
	if !adjusted.Equal(want) {
		t.Fatalf("expected Monday 09:00 (%v), got %v", want, adjusted)
	}
}

func TestAdjustToWindow_InsideWindowUnchanged(t *testing.T) {
	raw := date(2026, time.September, 1, 10, 0)
	adjusted := AdjustToWindow(raw)

	if !adjusted.Equal(raw) {
		t.Fatalf("expected in-window time unchanged, got %v", adjusted)
	}
}

func TestAdjustToWindow_SundayMovesToMonday(t *testing.T) {
	raw := date(2026, time.September, 6, 14, 0)
	adjusted := AdjustToWindow(raw)

	want := date(2026, time.September, 7, 9, 0)
	if !adjusted.Equal(want) {
		t.Fatalf("expected Monday 09:00 (%v), got %v", want, adjusted)
	}
}

func TestAdjustToWindow_SundayEveningMovesToMonday(t *testing.T) {
	raw := date(2026, time.September, 6, 22, 15)
	adjusted := AdjustToWindow(raw)

	want := date(2026, time.September, 7, 9, 0)
	if !adjusted.Equal(want) {
		t.Fatalf("expected Monday 09:00 (%v), got %v", want, adjusted)
	}
}

func TestAdjustToWindow_EarlyMorningSameDay(t *testing.T) {
	raw := date(2026, time.September, 2, 3, 45)
	adjusted := AdjustToWindow(raw)

	want := date(2026, time.September, 2, 9, 0)
	if !adjusted.Equal(want) {
		t.Fatalf("expected same day 09:00 (%v), got %v", want, adjusted)
	}
}

func TestAdjustToWindow_WeekdayEveningMovesToNextDay(t *testing.T) {
	// Friday 21:00 rolls to Saturday morning, which is a delivery day.
	raw := date(2026, time.September, 4, 21, 0)
	adjusted := AdjustToWindow(raw)

	want := date(2026, time.September, 5, 9, 0)
	if !adjusted.Equal(want) {
		t.Fatalf("expected Saturday 09:00 (%v), got %v", want, adjusted)
	}
}

func TestAdjustToWindow_Boundaries(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"window open is inside", date(2026, time.September, 1, 9, 0), date(2026, time.September, 1, 9, 0)},
		{"one minute before close is inside", date(2026, time.September, 1, 19, 59), date(2026, time.September, 1, 19, 59)},
		{"window close is outside", date(2026, time.September, 1, 20, 0), date(2026, time.September, 2, 9, 0)},
		{"one minute before open moves", date(2026, time.September, 1, 8, 59), date(2026, time.September, 1, 9, 0)},
	}

	for _, tc := range tests {
		got := AdjustToWindow(tc.in)
		if !got.Equal(tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestAdjustToWindow_IdempotentAndMonotone(t *testing.T) {
	// A full week of hourly samples.
	start := date(2026, time.August, 31, 0, 0)
	for i := 0; i < 7*24; i++ {
		raw := start.Add(time.Duration(i) * time.Hour)
		adjusted := AdjustToWindow(raw)

		if adjusted.Before(raw) {
			t.Fatalf("adjustment moved %v backward to %v", raw, adjusted)
		}
		if !InWindow(adjusted) {
			t.Fatalf("adjusted time %v is outside the delivery window", adjusted)
		}
		if again := AdjustToWindow(adjusted); !again.Equal(adjusted) {
			t.Fatalf("adjustment not idempotent: %v -> %v -> %v", raw, adjusted, again)
		}
	}
}

func TestInWindow_SundayAlwaysClosed(t *testing.T) {
	for hour := 0; hour < 24; hour++ {
		if InWindow(date(2026, time.September, 6, hour, 30)) {
			t.Fatalf("Sunday %02d:30 reported inside the window", hour)
		}
	}
}

func TestAdjustToWindow_PreservesLocation(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	raw := time.Date(2026, time.September, 6, 14, 0, 0, 0, loc)
	adjusted := AdjustToWindow(raw)

	if adjusted.Location() != loc {
		t.Fatalf("expected location %v preserved, got %v", loc, adjusted.Location())
	}
}
