package models

import "time"

// EntryType classifies a timetable entry.
type EntryType string

const (
	EntryTypeRegular EntryType = "REGULAR"
	EntryTypeExtra   EntryType = "EXTRA"
	EntryTypeMakeup  EntryType = "MAKEUP"
)

// DayOfWeek tokens accepted on recurring entries.
var DayOfWeekTokens = []string{"MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY", "SUNDAY"}

// ValidDayOfWeek reports whether the token is one of the seven recognised days.
func ValidDayOfWeek(token string) bool {
	for _, day := range DayOfWeekTokens {
		if day == token {
			return true
		}
	}
	return false
}

// TimetableEntry is a scheduled class pattern. When Date is set the entry is a
// one-off occurrence; otherwise it recurs weekly on DayOfWeek.
type TimetableEntry struct {
	ID               string     `db:"id" json:"id"`
	BatchID          string     `db:"batch_id" json:"batch_id"`
	SubjectID        *string    `db:"subject_id" json:"subject_id,omitempty"`
	FacultyID        *string    `db:"faculty_id" json:"faculty_id,omitempty"`
	TimeSlotID       string     `db:"time_slot_id" json:"time_slot_id"`
	DayOfWeek        string     `db:"day_of_week" json:"day_of_week"`
	Date             *time.Time `db:"date" json:"date,omitempty"`
	EntryType        EntryType  `db:"entry_type" json:"entry_type"`
	CustomEventTitle *string    `db:"custom_event_title" json:"custom_event_title,omitempty"`
	CustomEventColor *string    `db:"custom_event_color" json:"custom_event_color,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// TimetableEntryDetail joins the referenced slot, subject, faculty and batch names.
type TimetableEntryDetail struct {
	TimetableEntry
	TimeSlotName string  `db:"time_slot_name" json:"time_slot_name"`
	SubjectName  *string `db:"subject_name" json:"subject_name,omitempty"`
	SubjectCode  *string `db:"subject_code" json:"subject_code,omitempty"`
	FacultyName  *string `db:"faculty_name" json:"faculty_name,omitempty"`
	BatchName    string  `db:"batch_name" json:"batch_name"`
}

// TimetableEntryFilter describes query params for listing entries.
type TimetableEntryFilter struct {
	BatchID   string
	FacultyID string
	SubjectID string
	DayOfWeek string
	EntryType string
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// SlotConflict describes an existing entry occupying a contested slot.
type SlotConflict struct {
	EntryID    string  `json:"entry_id"`
	BatchID    string  `json:"batch_id"`
	FacultyID  *string `json:"faculty_id,omitempty"`
	TimeSlotID string  `json:"time_slot_id"`
	DayOfWeek  string  `json:"day_of_week"`
	Date       *string `json:"date,omitempty"`
	Dimension  string  `json:"dimension"`
}

// SlotConflictError is returned when an entry collides with an existing one.
type SlotConflictError struct {
	Type     string       `json:"type"`
	Message  string       `json:"message"`
	Conflict SlotConflict `json:"conflict"`
}

// Error implements the error interface for conflict errors.
func (e *SlotConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
