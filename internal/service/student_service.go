package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/seanma333/project-metronome-app-sub000/internal/models"
	appErrors "github.com/seanma333/project-metronome-app-sub000/pkg/errors"
)

type studentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ListByOwner(ctx context.Context, userID string) ([]models.Student, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
	ListInstruments(ctx context.Context, studentID string) ([]models.StudentInstrument, error)
	ReplaceInstruments(ctx context.Context, studentID string, links []models.StudentInstrument) error
}

// InstrumentProficiency pairs an instrument with a skill level.
type InstrumentProficiency struct {
	InstrumentID string `json:"instrument_id" validate:"required,uuid"`
	Proficiency  string `json:"proficiency" validate:"required,oneof=BEGINNER INTERMEDIATE ADVANCED"`
}

// CreateStudentRequest creates a learner record for the calling user.
type CreateStudentRequest struct {
	FullName    string                  `json:"full_name" validate:"required,max=200"`
	BirthYear   int                     `json:"birth_year" validate:"required,min=1900"`
	Instruments []InstrumentProficiency `json:"instruments" validate:"omitempty,dive"`
}

// UpdateStudentRequest updates mutable student fields. Ownership never changes.
type UpdateStudentRequest struct {
	FullName    *string                 `json:"full_name" validate:"omitempty,max=200"`
	BirthYear   *int                    `json:"birth_year" validate:"omitempty,min=1900"`
	Instruments []InstrumentProficiency `json:"instruments" validate:"omitempty,dive"`
}

// StudentWithInstruments is a student row with its instrument links.
type StudentWithInstruments struct {
	models.Student
	Instruments []models.StudentInstrument `json:"instruments"`
}

// StudentService manages learner records. A STUDENT user owns at most one
// record for themselves; a PARENT user owns any number of child records.
type StudentService struct {
	repo      studentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(repo studentRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, validator: validate, logger: logger}
}

// Create adds a learner record owned by the caller.
func (s *StudentService) Create(ctx context.Context, owner *models.User, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if req.BirthYear > time.Now().Year() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "birth year is in the future")
	}

	student := &models.Student{
		FullName:  strings.TrimSpace(req.FullName),
		BirthYear: req.BirthYear,
	}
	switch {
	case owner.HasRole(models.RoleStudent):
		count, err := s.repo.CountByUser(ctx, owner.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing record")
		}
		if count > 0 {
			return nil, appErrors.Clone(appErrors.ErrConflict, "student record already exists")
		}
		student.UserID = &owner.ID
	case owner.HasRole(models.RoleParent):
		student.ParentID = &owner.ID
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students and parents can create learner records")
	}

	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	if len(req.Instruments) > 0 {
		if err := s.repo.ReplaceInstruments(ctx, student.ID, toInstrumentLinks(student.ID, req.Instruments)); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save instruments")
		}
	}
	s.logger.Info("student created", zap.String("student_id", student.ID), zap.String("owner_id", owner.ID))
	return student, nil
}

// List returns all learner records the caller owns, with instruments.
func (s *StudentService) List(ctx context.Context, userID string) ([]StudentWithInstruments, error) {
	students, err := s.repo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	out := make([]StudentWithInstruments, 0, len(students))
	for _, st := range students {
		links, err := s.repo.ListInstruments(ctx, st.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instruments")
		}
		out = append(out, StudentWithInstruments{Student: st, Instruments: links})
	}
	return out, nil
}

// GetOwned returns a student record only if the caller owns it.
func (s *StudentService) GetOwned(ctx context.Context, userID, studentID string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !student.OwnedBy(userID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "student not owned by caller")
	}
	return student, nil
}

// Update modifies an owned student record.
func (s *StudentService) Update(ctx context.Context, userID, studentID string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	student, err := s.GetOwned(ctx, userID, studentID)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil && strings.TrimSpace(*req.FullName) != "" {
		student.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.BirthYear != nil {
		if *req.BirthYear > time.Now().Year() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "birth year is in the future")
		}
		student.BirthYear = *req.BirthYear
	}

	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	if req.Instruments != nil {
		if err := s.repo.ReplaceInstruments(ctx, student.ID, toInstrumentLinks(student.ID, req.Instruments)); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save instruments")
		}
	}
	return student, nil
}

// Delete removes an owned student record.
func (s *StudentService) Delete(ctx context.Context, userID, studentID string) error {
	if _, err := s.GetOwned(ctx, userID, studentID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, studentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	s.logger.Info("student deleted", zap.String("student_id", studentID))
	return nil
}

func toInstrumentLinks(studentID string, in []InstrumentProficiency) []models.StudentInstrument {
	links := make([]models.StudentInstrument, 0, len(in))
	for _, p := range in {
		links = append(links, models.StudentInstrument{
			StudentID:    studentID,
			InstrumentID: p.InstrumentID,
			Proficiency:  p.Proficiency,
		})
	}
	return links
}
