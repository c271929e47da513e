// Package timeutil provides calendar helpers for lesson scheduling.
// All helpers work in the location carried by the given time.Time, so a
// lesson created in the teacher's local zone keeps its wall-clock fields.
package timeutil

import "time"

// MoscowTZ is the default platform timezone (UTC+3, no DST since 2014).
var MoscowTZ = time.FixedZone("Europe/Moscow", 3*60*60)

// Common date/time formats.
const (
	// FormatDate is the standard date format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatTime is the HH:MM time-of-day format used by lesson series.
	FormatTime = "15:04"
	// FormatRussianDateTime is the Russian datetime format.
	FormatRussianDateTime = "02.01.2006 15:04"
)

// LoadLocation resolves an IANA zone name, falling back to MoscowTZ.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return MoscowTZ
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return MoscowTZ
	}
	return loc
}

// DayOfWeek returns the weekday of t in its own location, 0=Sunday..6=Saturday.
func DayOfWeek(t time.Time) int {
	return int(t.Weekday())
}

// TimeOfDay returns the local wall-clock time of t as "HH:MM".
func TimeOfDay(t time.Time) string {
	return t.Format(FormatTime)
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// StartOfWeekSunday returns midnight of the Sunday that starts t's week:
// the day of t minus its weekday offset.
func StartOfWeekSunday(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, -int(t.Weekday()))
}

// AddDays moves t by n calendar days keeping its wall-clock time, so a
// weekly lesson stays at 10:00 across DST transitions.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// FormatRussian formats t as "DD.MM.YYYY HH:MM" in the given location.
func FormatRussian(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = MoscowTZ
	}
	return t.In(loc).Format(FormatRussianDateTime)
}
