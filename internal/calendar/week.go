package calendar

import (
	"sort"
	"time"
)

// WeekBounds computes the calendar week containing selected: the
// preceding-or-same Sunday at UTC midnight through the following Saturday
// at UTC 23:59:59.999.
func WeekBounds(selected time.Time) (time.Time, time.Time) {
	day := dateOnly(selected)
	start := day.AddDate(0, 0, -int(day.Weekday()))
	end := start.AddDate(0, 0, 7).Add(-time.Millisecond)
	return start, end
}

// BuildWeek returns resolved events for entries whose date falls inside the
// week containing selected. Entries without a concrete date are skipped by
// this path; only dated entries render in the live week view.
func BuildWeek(entries []Entry, selected, now time.Time, graceDays int) ([]Event, error) {
	start, end := WeekBounds(selected)

	events := make([]Event, 0, len(entries))
	for _, entry := range entries {
		if entry.Date == nil {
			continue
		}
		day := dateOnly(*entry.Date)
		if day.Before(start) || day.After(end) {
			continue
		}

		bounds, err := ParseTimeSlot(entry.SlotName)
		if err != nil {
			return nil, err
		}
		events = append(events, Resolve(entry, occurrenceOn(entry.ID, day, bounds), now, graceDays))
	}

	sortEvents(events)
	return events, nil
}

// Expand materializes every entry across the horizon anchored on reference
// and resolves display attributes against now. Recurring entries contribute
// one event per projected week; dated entries contribute exactly one.
func Expand(entries []Entry, reference, now time.Time, h Horizon, graceDays int) ([]Event, error) {
	events := make([]Event, 0, len(entries))
	for _, entry := range entries {
		occurrences, err := Materialize(entry, reference, h)
		if err != nil {
			return nil, err
		}
		for _, occ := range occurrences {
			events = append(events, Resolve(entry, occ, now, graceDays))
		}
	}

	sortEvents(events)
	return events, nil
}

func sortEvents(events []Event) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].Start.Equal(events[j].Start) {
			return events[i].ID < events[j].ID
		}
		return events[i].Start.Before(events[j].Start)
	})
}
