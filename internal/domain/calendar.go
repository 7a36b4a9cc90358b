package domain

import "time"

// ─── Calendar Helpers ───────────────────────────────────────────────────────
// All day comparisons happen in the location of the reference time.

// Stamp drops precision below one millisecond, the resolution the store
// keeps, so a stamped value survives a save and reload unchanged.
func Stamp(t time.Time) time.Time {
	return t.Truncate(time.Millisecond)
}

// DayStart truncates t to local midnight in t's location.
func DayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day in b's location.
// A zero a never matches.
func SameDay(a, b time.Time) bool {
	if a.IsZero() {
		return false
	}
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// WeekStart returns midnight of the Monday starting t's ISO week.
func WeekStart(t time.Time) time.Time {
	day := DayStart(t)
	offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
	return day.AddDate(0, 0, -offset)
}

// DayKey identifies a calendar day independent of time-of-day.
type DayKey struct {
	Year  int
	Month time.Month
	Day   int
}

// KeyOf returns the calendar day of t in loc.
func KeyOf(t time.Time, loc *time.Location) DayKey {
	y, m, d := t.In(loc).Date()
	return DayKey{Year: y, Month: m, Day: d}
}

// WeekdayLetter returns the single-letter abbreviation (M T W T F S S).
func WeekdayLetter(d time.Weekday) string {
	return [...]string{"S", "M", "T", "W", "T", "F", "S"}[d]
}
