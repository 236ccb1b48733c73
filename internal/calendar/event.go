package calendar

import "time"

// Mutability captures where an event sits relative to the editing grace
// window. Transitions are driven solely by wall-clock advancement:
// Future → RecentPast → DeepPast, never reversed.
type Mutability int

const (
	// Future events have not happened yet (or happen today).
	Future Mutability = iota
	// RecentPast events are within the grace window and remain editable.
	RecentPast
	// DeepPast events are older than the grace window and are immutable.
	DeepPast
)

// DefaultGraceDays is the editing grace window applied when no explicit
// configuration is supplied.
const DefaultGraceDays = 30

// DaysSince returns the whole days elapsed from the event date to today,
// both normalised to UTC midnight. Negative for future dates.
func DaysSince(eventDate, today time.Time) int {
	return int(dateOnly(today).Sub(dateOnly(eventDate)) / (24 * time.Hour))
}

// Classify places an event date on the mutability scale. Only DeepPast
// disables editing; RecentPast keeps the full grace window mutable.
func Classify(eventDate, today time.Time, graceDays int) Mutability {
	if graceDays <= 0 {
		graceDays = DefaultGraceDays
	}
	days := DaysSince(eventDate, today)
	switch {
	case days > graceDays:
		return DeepPast
	case days > 0:
		return RecentPast
	default:
		return Future
	}
}

// ExtendedProps is the payload the mutation layer reads back from a
// rendered event to target the base entry.
type ExtendedProps struct {
	TimetableEntryID string `json:"timetableEntryId"`
	IsPastDate       bool   `json:"isPastDate"`
	EntryType        string `json:"entryType"`
	BatchName        string `json:"batchName"`
	SubjectName      string `json:"subjectName"`
	FacultyName      string `json:"facultyName"`
	CustomEvent      bool   `json:"customEvent"`
}

// Event is one renderable calendar occurrence. It never outlives a
// materialization pass; it is always rebuilt from its source entry.
type Event struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	Start            time.Time     `json:"start"`
	End              time.Time     `json:"end"`
	Editable         bool          `json:"editable"`
	StartEditable    bool          `json:"startEditable"`
	DurationEditable bool          `json:"durationEditable"`
	ClassName        string        `json:"className,omitempty"`
	BackgroundColor  string        `json:"backgroundColor,omitempty"`
	BorderColor      string        `json:"borderColor,omitempty"`
	TextColor        string        `json:"textColor,omitempty"`
	ExtendedProps    ExtendedProps `json:"extendedProps"`
}

const (
	fallbackSubject = "Unknown Subject"
	fallbackFaculty = "No Faculty"

	pastClassName  = "event-past"
	pastBackground = "#e5e7eb"
	pastBorder     = "#9ca3af"
	pastText       = "#6b7280"

	customClassName  = "event-custom"
	customBackground = "#fafafa"
	customBorder     = "#e5e7eb"
	customText       = "#374151"
)

// Resolve derives the display attributes and interaction permissions for one
// occurrence. Exactly one styling branch applies; past overrides all others.
func Resolve(entry Entry, occ Occurrence, today time.Time, graceDays int) Event {
	isPast := Classify(occ.Date, today, graceDays) == DeepPast
	editable := !isPast

	event := Event{
		ID:               occ.ID,
		Title:            titleFor(entry),
		Start:            occ.Start,
		End:              occ.End,
		Editable:         editable,
		StartEditable:    editable,
		DurationEditable: editable,
		ExtendedProps: ExtendedProps{
			TimetableEntryID: entry.ID,
			IsPastDate:       isPast,
			EntryType:        entry.EntryType,
			BatchName:        entry.BatchName,
			SubjectName:      orFallback(entry.SubjectName, fallbackSubject),
			FacultyName:      orFallback(entry.FacultyName, fallbackFaculty),
			CustomEvent:      entry.CustomEventTitle != nil,
		},
	}

	switch {
	case isPast:
		event.ClassName = pastClassName
		event.BackgroundColor = pastBackground
		event.BorderColor = pastBorder
		event.TextColor = pastText
	case entry.CustomEventTitle != nil:
		event.ClassName = customClassName
		event.BackgroundColor = customBackground
		event.BorderColor = customBorder
		event.TextColor = customText
	}

	return event
}

func titleFor(entry Entry) string {
	if entry.CustomEventTitle != nil {
		return *entry.CustomEventTitle
	}
	return orFallback(entry.SubjectName, fallbackSubject) + " - " + orFallback(entry.FacultyName, fallbackFaculty)
}

func orFallback(value *string, fallback string) string {
	if value == nil || *value == "" {
		return fallback
	}
	return *value
}
