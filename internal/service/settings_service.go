package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusops/deptdesk-api/internal/calendar"
	"github.com/campusops/deptdesk-api/internal/models"
	appErrors "github.com/campusops/deptdesk-api/pkg/errors"
)

type timeSlotRepository interface {
	List(ctx context.Context) ([]models.TimeSlot, error)
	FindByID(ctx context.Context, id string) (*models.TimeSlot, error)
	FindByName(ctx context.Context, name string) (*models.TimeSlot, error)
	Create(ctx context.Context, slot *models.TimeSlot) error
	Update(ctx context.Context, slot *models.TimeSlot) error
	Delete(ctx context.Context, id string) error
}

type subjectRepository interface {
	List(ctx context.Context) ([]models.Subject, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id string) error
}

type facultyRepository interface {
	List(ctx context.Context) ([]models.Faculty, error)
	FindByID(ctx context.Context, id string) (*models.Faculty, error)
	Create(ctx context.Context, member *models.Faculty) error
	Update(ctx context.Context, member *models.Faculty) error
	Delete(ctx context.Context, id string) error
}

type batchRepository interface {
	List(ctx context.Context) ([]models.Batch, error)
	FindByID(ctx context.Context, id string) (*models.Batch, error)
	Create(ctx context.Context, batch *models.Batch) error
	Update(ctx context.Context, batch *models.Batch) error
	Delete(ctx context.Context, id string) error
}

type departmentRepository interface {
	Get(ctx context.Context) (*models.Department, error)
	Update(ctx context.Context, dept *models.Department) error
}

// TimeSlotRequest creates or renames a slot. The name doubles as the
// wire format for session times and must parse as HH:MM-HH:MM.
type TimeSlotRequest struct {
	Name      string `json:"name" validate:"required"`
	SortOrder int    `json:"sort_order" validate:"gte=0"`
}

// SubjectRequest creates or updates a subject.
type SubjectRequest struct {
	Name    string `json:"name" validate:"required"`
	Code    string `json:"code" validate:"required"`
	Credits int    `json:"credits" validate:"gte=0,lte=30"`
}

// FacultyRequest creates or updates a faculty member.
type FacultyRequest struct {
	Name        string `json:"name" validate:"required"`
	Code        string `json:"code" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Designation string `json:"designation" validate:"required"`
}

// BatchRequest creates or updates a batch.
type BatchRequest struct {
	Name           string  `json:"name" validate:"required"`
	Program        string  `json:"program" validate:"required"`
	Semester       int     `json:"semester" validate:"gte=1,lte=12"`
	Specialization *string `json:"specialization,omitempty"`
}

// DepartmentRequest updates the department profile.
type DepartmentRequest struct {
	Name         string `json:"name" validate:"required"`
	Code         string `json:"code" validate:"required"`
	AcademicYear string `json:"academic_year" validate:"required"`
	HeadName     string `json:"head_name" validate:"required"`
	ContactEmail string `json:"contact_email" validate:"required,email"`
}

// SettingsService manages department reference data: time slots, subjects,
// faculty, batches and the department profile.
type SettingsService struct {
	slots      timeSlotRepository
	subjects   subjectRepository
	faculty    facultyRepository
	batches    batchRepository
	department departmentRepository
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewSettingsService constructs a SettingsService instance.
func NewSettingsService(slots timeSlotRepository, subjects subjectRepository, faculty facultyRepository, batches batchRepository, department departmentRepository, validate *validator.Validate, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SettingsService{
		slots:      slots,
		subjects:   subjects,
		faculty:    faculty,
		batches:    batches,
		department: department,
		validator:  validate,
		logger:     logger,
	}
}

// ListTimeSlots returns every slot ordered for display.
func (s *SettingsService) ListTimeSlots(ctx context.Context) ([]models.TimeSlot, error) {
	slots, err := s.slots.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list time slots")
	}
	return slots, nil
}

// CreateTimeSlot validates the HH:MM-HH:MM shape and stores a new slot.
func (s *SettingsService) CreateTimeSlot(ctx context.Context, req TimeSlotRequest) (*models.TimeSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid time slot payload")
	}
	if _, err := calendar.ParseTimeSlot(req.Name); err != nil {
		return nil, appErrors.Clone(appErrors.ErrMalformedTimeSlot, "time slot name must be HH:MM-HH:MM with end after start")
	}

	existing, err := s.slots.FindByName(ctx, req.Name)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing time slot")
	}
	if existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a time slot with this name already exists")
	}

	slot := &models.TimeSlot{Name: req.Name, SortOrder: req.SortOrder}
	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create time slot")
	}
	return slot, nil
}

// UpdateTimeSlot renames or reorders a slot.
func (s *SettingsService) UpdateTimeSlot(ctx context.Context, id string, req TimeSlotRequest) (*models.TimeSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid time slot payload")
	}
	if _, err := calendar.ParseTimeSlot(req.Name); err != nil {
		return nil, appErrors.Clone(appErrors.ErrMalformedTimeSlot, "time slot name must be HH:MM-HH:MM with end after start")
	}

	slot, err := s.slots.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "time slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time slot")
	}

	slot.Name = req.Name
	slot.SortOrder = req.SortOrder
	if err := s.slots.Update(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update time slot")
	}
	return slot, nil
}

// DeleteTimeSlot removes a slot by id.
func (s *SettingsService) DeleteTimeSlot(ctx context.Context, id string) error {
	if err := s.slots.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete time slot")
	}
	return nil
}

// ListSubjects returns every subject.
func (s *SettingsService) ListSubjects(ctx context.Context) ([]models.Subject, error) {
	subjects, err := s.subjects.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, nil
}

// CreateSubject stores a new subject.
func (s *SettingsService) CreateSubject(ctx context.Context, req SubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	subject := &models.Subject{Name: req.Name, Code: req.Code, Credits: req.Credits}
	if err := s.subjects.Create(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}
	return subject, nil
}

// UpdateSubject updates a subject in place.
func (s *SettingsService) UpdateSubject(ctx context.Context, id string, req SubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	subject, err := s.subjects.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	subject.Name = req.Name
	subject.Code = req.Code
	subject.Credits = req.Credits
	if err := s.subjects.Update(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subject")
	}
	return subject, nil
}

// DeleteSubject removes a subject by id.
func (s *SettingsService) DeleteSubject(ctx context.Context, id string) error {
	if err := s.subjects.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject")
	}
	return nil
}

// ListFaculty returns every faculty member.
func (s *SettingsService) ListFaculty(ctx context.Context) ([]models.Faculty, error) {
	members, err := s.faculty.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list faculty")
	}
	return members, nil
}

// CreateFaculty stores a new faculty member.
func (s *SettingsService) CreateFaculty(ctx context.Context, req FacultyRequest) (*models.Faculty, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid faculty payload")
	}
	member := &models.Faculty{Name: req.Name, Code: req.Code, Email: req.Email, Designation: req.Designation}
	if err := s.faculty.Create(ctx, member); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create faculty member")
	}
	return member, nil
}

// UpdateFaculty updates a faculty member in place.
func (s *SettingsService) UpdateFaculty(ctx context.Context, id string, req FacultyRequest) (*models.Faculty, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid faculty payload")
	}
	member, err := s.faculty.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty member")
	}
	member.Name = req.Name
	member.Code = req.Code
	member.Email = req.Email
	member.Designation = req.Designation
	if err := s.faculty.Update(ctx, member); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update faculty member")
	}
	return member, nil
}

// DeleteFaculty removes a faculty member by id.
func (s *SettingsService) DeleteFaculty(ctx context.Context, id string) error {
	if err := s.faculty.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete faculty member")
	}
	return nil
}

// ListBatches returns every batch.
func (s *SettingsService) ListBatches(ctx context.Context) ([]models.Batch, error) {
	batches, err := s.batches.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list batches")
	}
	return batches, nil
}

// CreateBatch stores a new batch.
func (s *SettingsService) CreateBatch(ctx context.Context, req BatchRequest) (*models.Batch, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch payload")
	}
	batch := &models.Batch{Name: req.Name, Program: req.Program, Semester: req.Semester, Specialization: req.Specialization}
	if err := s.batches.Create(ctx, batch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create batch")
	}
	return batch, nil
}

// UpdateBatch updates a batch in place.
func (s *SettingsService) UpdateBatch(ctx context.Context, id string, req BatchRequest) (*models.Batch, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch payload")
	}
	batch, err := s.batches.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "batch not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch")
	}
	batch.Name = req.Name
	batch.Program = req.Program
	batch.Semester = req.Semester
	batch.Specialization = req.Specialization
	if err := s.batches.Update(ctx, batch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update batch")
	}
	return batch, nil
}

// DeleteBatch removes a batch by id.
func (s *SettingsService) DeleteBatch(ctx context.Context, id string) error {
	if err := s.batches.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete batch")
	}
	return nil
}

// GetDepartment returns the department profile.
func (s *SettingsService) GetDepartment(ctx context.Context) (*models.Department, error) {
	dept, err := s.department.Get(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department profile not configured")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department profile")
	}
	return dept, nil
}

// UpdateDepartment updates the department profile.
func (s *SettingsService) UpdateDepartment(ctx context.Context, req DepartmentRequest) (*models.Department, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid department payload")
	}
	dept, err := s.GetDepartment(ctx)
	if err != nil {
		return nil, err
	}
	dept.Name = req.Name
	dept.Code = req.Code
	dept.AcademicYear = req.AcademicYear
	dept.HeadName = req.HeadName
	dept.ContactEmail = req.ContactEmail
	if err := s.department.Update(ctx, dept); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update department profile")
	}
	return dept, nil
}
