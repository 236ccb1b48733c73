package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusops/deptdesk-api/internal/models"
	appErrors "github.com/campusops/deptdesk-api/pkg/errors"
)

type allotmentRepository interface {
	ListByFaculty(ctx context.Context, facultyID string) ([]models.SubjectAllotmentDetail, error)
	ListByBatch(ctx context.Context, batchID string) ([]models.SubjectAllotmentDetail, error)
	FindExisting(ctx context.Context, subjectID, batchID, academicYear string) (*models.SubjectAllotment, error)
	Create(ctx context.Context, allotment *models.SubjectAllotment) error
	Delete(ctx context.Context, id string) error
}

// CreateAllotmentRequest assigns a faculty member to a subject for a batch.
type CreateAllotmentRequest struct {
	FacultyID    string `json:"faculty_id" validate:"required"`
	SubjectID    string `json:"subject_id" validate:"required"`
	BatchID      string `json:"batch_id" validate:"required"`
	AcademicYear string `json:"academic_year" validate:"required"`
}

// AllotmentService manages faculty subject allotments.
type AllotmentService struct {
	repo      allotmentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAllotmentService constructs an AllotmentService instance.
func NewAllotmentService(repo allotmentRepository, validate *validator.Validate, logger *zap.Logger) *AllotmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AllotmentService{repo: repo, validator: validate, logger: logger}
}

// ListByFaculty returns a faculty member's allotments.
func (s *AllotmentService) ListByFaculty(ctx context.Context, facultyID string) ([]models.SubjectAllotmentDetail, error) {
	allotments, err := s.repo.ListByFaculty(ctx, facultyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list allotments")
	}
	return allotments, nil
}

// ListByBatch returns the allotments targeting a batch.
func (s *AllotmentService) ListByBatch(ctx context.Context, batchID string) ([]models.SubjectAllotmentDetail, error) {
	allotments, err := s.repo.ListByBatch(ctx, batchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list allotments")
	}
	return allotments, nil
}

// Create stores a new allotment. A subject can only be allotted once per
// batch per academic year.
func (s *AllotmentService) Create(ctx context.Context, req CreateAllotmentRequest) (*models.SubjectAllotment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid allotment payload")
	}

	existing, err := s.repo.FindExisting(ctx, req.SubjectID, req.BatchID, req.AcademicYear)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing allotment")
	}
	if existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "subject is already allotted for this batch and year")
	}

	allotment := &models.SubjectAllotment{
		FacultyID:    req.FacultyID,
		SubjectID:    req.SubjectID,
		BatchID:      req.BatchID,
		AcademicYear: req.AcademicYear,
	}
	if err := s.repo.Create(ctx, allotment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create allotment")
	}
	return allotment, nil
}

// Delete removes an allotment by id.
func (s *AllotmentService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete allotment")
	}
	return nil
}
