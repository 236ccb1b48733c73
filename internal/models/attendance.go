package models

import "time"

// AttendanceStatus enumerates attendance outcomes.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
	AttendanceLate    AttendanceStatus = "LATE"
	AttendanceExcused AttendanceStatus = "EXCUSED"
)

// Valid reports whether the status is a recognised value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused:
		return true
	}
	return false
}

// BulkOperationMode controls failure behaviour of bulk writes.
type BulkOperationMode string

const (
	BulkModeAtomic         BulkOperationMode = "atomic"
	BulkModePartialOnError BulkOperationMode = "partial_on_error"
)

// AttendanceRecord marks one student for one materialized session of an entry.
type AttendanceRecord struct {
	ID          string           `db:"id" json:"id"`
	EntryID     string           `db:"entry_id" json:"entry_id"`
	StudentID   string           `db:"student_id" json:"student_id"`
	SessionDate time.Time        `db:"session_date" json:"session_date"`
	Status      AttendanceStatus `db:"status" json:"status"`
	Notes       *string          `db:"notes" json:"notes,omitempty"`
	MarkedBy    string           `db:"marked_by" json:"marked_by"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceFilter narrows attendance listings.
type AttendanceFilter struct {
	EntryID     string
	StudentID   string
	BatchID     string
	Status      *AttendanceStatus
	SessionDate *time.Time
	DateFrom    *time.Time
	DateTo      *time.Time
	Page        int
	PageSize    int
}

// AttendanceBulkConflict reports a duplicate row rejected during a bulk write.
type AttendanceBulkConflict struct {
	StudentID   string    `json:"student_id"`
	EntryID     string    `json:"entry_id"`
	SessionDate time.Time `json:"session_date"`
	Reason      string    `json:"reason"`
}

// AttendanceSessionRow is a per-student line of a session report.
type AttendanceSessionRow struct {
	StudentID   string           `db:"student_id" json:"student_id"`
	StudentName string           `db:"student_name" json:"student_name"`
	Status      AttendanceStatus `db:"status" json:"status"`
	Notes       *string          `db:"notes" json:"notes,omitempty"`
}
