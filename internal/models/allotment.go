package models

import "time"

// SubjectAllotment assigns a faculty member to teach a subject for a batch.
type SubjectAllotment struct {
	ID           string    `db:"id" json:"id"`
	FacultyID    string    `db:"faculty_id" json:"faculty_id"`
	SubjectID    string    `db:"subject_id" json:"subject_id"`
	BatchID      string    `db:"batch_id" json:"batch_id"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// SubjectAllotmentDetail joins referenced names for list views.
type SubjectAllotmentDetail struct {
	SubjectAllotment
	FacultyName string `db:"faculty_name" json:"faculty_name"`
	SubjectName string `db:"subject_name" json:"subject_name"`
	SubjectCode string `db:"subject_code" json:"subject_code"`
	BatchName   string `db:"batch_name" json:"batch_name"`
}
