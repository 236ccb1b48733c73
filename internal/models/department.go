package models

import "time"

// Department holds the single department profile row.
type Department struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Code         string    `db:"code" json:"code"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	HeadName     string    `db:"head_name" json:"head_name"`
	ContactEmail string    `db:"contact_email" json:"contact_email"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Batch is a student cohort: program + semester + optional specialization.
type Batch struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Program        string    `db:"program" json:"program"`
	Semester       int       `db:"semester" json:"semester"`
	Specialization *string   `db:"specialization" json:"specialization,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Subject is a course taught in the department.
type Subject struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Code      string    `db:"code" json:"code"`
	Credits   int       `db:"credits" json:"credits"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Faculty is a teaching staff member.
type Faculty struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Code        string    `db:"code" json:"code"`
	Email       string    `db:"email" json:"email"`
	Designation string    `db:"designation" json:"designation"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// TimeSlot is a named teaching interval shared by timetable entries,
// e.g. "10:00-11:30".
type TimeSlot struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	SortOrder int       `db:"sort_order" json:"sort_order"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
