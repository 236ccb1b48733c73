package calendar

import (
	"fmt"
	"time"
)

// Horizon bounds how far a recurring entry is expanded around the reference
// week. The default covers a month-view calendar without unbounded growth.
type Horizon struct {
	WeeksBefore int
	WeeksAfter  int
}

// DefaultHorizon spans 4 weeks before the reference week through 3 after.
func DefaultHorizon() Horizon {
	return Horizon{WeeksBefore: 4, WeeksAfter: 3}
}

// Occurrence is one concrete, dated materialization of an entry.
type Occurrence struct {
	EntryID string
	ID      string
	Date    time.Time
	Start   time.Time
	End     time.Time
}

// EventID derives the composite occurrence identifier. The same entry and
// date always produce the same id, so re-materializing identical inputs
// yields identical keys.
func EventID(entryID string, date time.Time) string {
	return entryID + "-" + dateOnly(date).Format("2006-01-02")
}

// Materialize expands an entry into dated occurrences. A dated entry yields
// exactly one occurrence; a recurring entry yields one per week across the
// horizon, anchored on the Monday of the reference week.
func Materialize(entry Entry, reference time.Time, h Horizon) ([]Occurrence, error) {
	bounds, err := ParseTimeSlot(entry.SlotName)
	if err != nil {
		return nil, err
	}

	if entry.Date != nil {
		return []Occurrence{occurrenceOn(entry.ID, *entry.Date, bounds)}, nil
	}

	idx, ok := dayIndex[entry.DayOfWeek]
	if !ok {
		return nil, fmt.Errorf("unknown day of week %q", entry.DayOfWeek)
	}

	anchor := mondayOf(reference)
	offset := (idx + 6) % 7

	occurrences := make([]Occurrence, 0, h.WeeksBefore+h.WeeksAfter+1)
	for week := -h.WeeksBefore; week <= h.WeeksAfter; week++ {
		day := anchor.AddDate(0, 0, week*7+offset)
		occurrences = append(occurrences, occurrenceOn(entry.ID, day, bounds))
	}
	return occurrences, nil
}

func occurrenceOn(entryID string, date time.Time, bounds SlotBounds) Occurrence {
	day := dateOnly(date)
	return Occurrence{
		EntryID: entryID,
		ID:      EventID(entryID, day),
		Date:    day,
		Start:   day.Add(time.Duration(bounds.StartMinute) * time.Minute),
		End:     day.Add(time.Duration(bounds.EndMinute) * time.Minute),
	}
}
