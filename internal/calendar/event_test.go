package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyPastThreshold(t *testing.T) {
	today := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)

	// 31 days prior crosses the grace window.
	thirtyOne := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 31, DaysSince(thirtyOne, today))
	assert.Equal(t, DeepPast, Classify(thirtyOne, today, 30))

	// 30 days prior stays inside it.
	thirty := time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 30, DaysSince(thirty, today))
	assert.Equal(t, RecentPast, Classify(thirty, today, 30))
}

func TestClassifyFutureAndToday(t *testing.T) {
	today := time.Date(2024, time.April, 1, 15, 30, 0, 0, time.UTC)

	assert.Equal(t, Future, Classify(today, today, 30))
	assert.Equal(t, Future, Classify(today.AddDate(0, 0, 14), today, 30))
	assert.Equal(t, RecentPast, Classify(today.AddDate(0, 0, -1), today, 30))
}

func TestClassifyZeroGraceFallsBackToDefault(t *testing.T) {
	today := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	event := today.AddDate(0, 0, -31)
	assert.Equal(t, DeepPast, Classify(event, today, 0))
	assert.Equal(t, RecentPast, Classify(today.AddDate(0, 0, -30), today, 0))
}

func TestResolveTitleFallbacks(t *testing.T) {
	entry := Entry{ID: "e1"}
	occ := Occurrence{
		ID:   "e1-2024-03-15",
		Date: time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC),
	}

	event := Resolve(entry, occ, time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), 30)
	assert.Equal(t, "Unknown Subject - No Faculty", event.Title)
}

func TestResolveRegularTitle(t *testing.T) {
	entry := Entry{
		ID:          "e1",
		SubjectName: strPtr("Design"),
		FacultyName: strPtr("A"),
	}
	occ := Occurrence{
		ID:    "e1-2024-03-15",
		Date:  time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC),
		Start: time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.March, 15, 11, 30, 0, 0, time.UTC),
	}

	event := Resolve(entry, occ, time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), 30)
	assert.Equal(t, "Design - A", event.Title)
	assert.True(t, event.Editable)
	assert.True(t, event.StartEditable)
	assert.True(t, event.DurationEditable)
	assert.Empty(t, event.ClassName)
	assert.Empty(t, event.BackgroundColor)
}

func TestResolveCustomEventStyling(t *testing.T) {
	entry := Entry{
		ID:               "e2",
		CustomEventTitle: strPtr("Founders Day"),
		CustomEventColor: strPtr("#ff0000"),
	}
	occ := Occurrence{
		ID:   "e2-2024-03-15",
		Date: time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC),
	}

	event := Resolve(entry, occ, time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), 30)
	assert.Equal(t, "Founders Day", event.Title)
	assert.Equal(t, "event-custom", event.ClassName)
	// The custom color field is accepted but the fixed palette applies.
	assert.Equal(t, "#fafafa", event.BackgroundColor)
	assert.True(t, event.ExtendedProps.CustomEvent)
	assert.True(t, event.Editable)
}

func TestResolvePastOverridesCustomStyling(t *testing.T) {
	entry := Entry{
		ID:               "e3",
		CustomEventTitle: strPtr("Old Holiday"),
	}
	occ := Occurrence{
		ID:   "e3-2024-01-01",
		Date: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
	}

	event := Resolve(entry, occ, time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC), 30)
	assert.Equal(t, "event-past", event.ClassName)
	assert.Equal(t, "#e5e7eb", event.BackgroundColor)
	assert.False(t, event.Editable)
	assert.False(t, event.StartEditable)
	assert.False(t, event.DurationEditable)
	assert.True(t, event.ExtendedProps.IsPastDate)
}

func TestResolveExtendedPropsCarryEntryIdentity(t *testing.T) {
	entry := Entry{
		ID:          "entry-9",
		EntryType:   "REGULAR",
		BatchName:   "B1",
		SubjectName: strPtr("Networks"),
		FacultyName: strPtr("Dr. Rao"),
	}
	occ := Occurrence{ID: "entry-9-2024-03-15", Date: time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)}

	event := Resolve(entry, occ, time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), 30)
	assert.Equal(t, "entry-9", event.ExtendedProps.TimetableEntryID)
	assert.Equal(t, "REGULAR", event.ExtendedProps.EntryType)
	assert.Equal(t, "B1", event.ExtendedProps.BatchName)
	assert.False(t, event.ExtendedProps.IsPastDate)
	assert.False(t, event.ExtendedProps.CustomEvent)
}
