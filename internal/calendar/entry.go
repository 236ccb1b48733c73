// Package calendar materializes timetable entries into concrete, dated
// calendar events. It is pure: no clock reads, no I/O, no shared state —
// "now" and the selected date are always explicit inputs.
package calendar

import "time"

// Entry is the in-memory projection of a timetable entry that the calendar
// core consumes. When Date is set the entry is a one-off occurrence;
// otherwise it recurs weekly on DayOfWeek.
type Entry struct {
	ID               string
	DayOfWeek        string
	Date             *time.Time
	SlotName         string
	EntryType        string
	BatchName        string
	SubjectName      *string
	FacultyName      *string
	CustomEventTitle *string
	// CustomEventColor is carried through but not applied; custom events
	// currently render with a fixed palette.
	CustomEventColor *string
}

// dayIndex maps day tokens to an ISO-like weekday index: Monday=1 through
// Saturday=6, with Sunday=0 placed at the end of the anchored week.
var dayIndex = map[string]int{
	"SUNDAY":    0,
	"MONDAY":    1,
	"TUESDAY":   2,
	"WEDNESDAY": 3,
	"THURSDAY":  4,
	"FRIDAY":    5,
	"SATURDAY":  6,
}

// dateOnly normalises a timestamp to UTC midnight. All day comparisons in
// this package happen on UTC-normalised dates to avoid local-timezone
// off-by-one errors at week edges.
func dateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// mondayOf returns the Monday of the week containing t, at UTC midnight.
func mondayOf(t time.Time) time.Time {
	d := dateOnly(t)
	shift := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -shift)
}
