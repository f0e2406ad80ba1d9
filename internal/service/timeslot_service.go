package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/seanma333/project-metronome-app-sub000/internal/models"
	"github.com/seanma333/project-metronome-app-sub000/internal/schedule"
	appErrors "github.com/seanma333/project-metronome-app-sub000/pkg/errors"
)

type timeslotRepository interface {
	FindByID(ctx context.Context, id string) (*models.Timeslot, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Timeslot, error)
	HasOverlap(ctx context.Context, teacherID string, dayOfWeek, startMinutes, endMinutes int, excludeID string) (bool, error)
	Create(ctx context.Context, slot *models.Timeslot) error
	UpdatePlacement(ctx context.Context, slot *models.Timeslot) error
	Delete(ctx context.Context, id string) (bool, error)
}

type timeslotUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// CreateTimeslotRequest places a new slot on the teacher's weekly grid.
type CreateTimeslotRequest struct {
	DayOfWeek    int                 `json:"day_of_week" validate:"min=0,max=6"`
	StartMinutes int                 `json:"start_minutes" validate:"min=0,max=1440"`
	EndMinutes   int                 `json:"end_minutes" validate:"min=0,max=1440"`
	Format       models.LessonFormat `json:"format" validate:"required"`
}

// MoveTimeslotRequest moves or resizes an existing open slot.
type MoveTimeslotRequest struct {
	DayOfWeek    int `json:"day_of_week" validate:"min=0,max=6"`
	StartMinutes int `json:"start_minutes" validate:"min=0,max=1440"`
	EndMinutes   int `json:"end_minutes" validate:"min=0,max=1440"`
}

// TimeslotService manages a teacher's weekly availability grid. All slot
// times live in the teacher's own timezone; inputs snap to the grid before
// validation so clients never see off-grid rows.
type TimeslotService struct {
	repo      timeslotRepository
	users     timeslotUserRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimeslotService constructs a TimeslotService.
func NewTimeslotService(repo timeslotRepository, users timeslotUserRepository, validate *validator.Validate, logger *zap.Logger) *TimeslotService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimeslotService{repo: repo, users: users, validator: validate, logger: logger}
}

// Create adds an open slot to the caller's grid after snapping and
// overlap-checking the placement.
func (s *TimeslotService) Create(ctx context.Context, teacherID string, req CreateTimeslotRequest) (*models.Timeslot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timeslot payload")
	}
	if !req.Format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown lesson format")
	}

	start := schedule.Snap(req.StartMinutes)
	end := schedule.Snap(req.EndMinutes)
	if err := schedule.ValidatePlacement(req.DayOfWeek, start, end); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	if err := s.ensureFree(ctx, teacherID, req.DayOfWeek, start, end, ""); err != nil {
		return nil, err
	}

	slot := &models.Timeslot{
		TeacherID:    teacherID,
		DayOfWeek:    req.DayOfWeek,
		StartMinutes: start,
		EndMinutes:   end,
		Format:       req.Format,
	}
	if err := s.repo.Create(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timeslot")
	}
	return slot, nil
}

// ListOwn returns the caller's full grid, booked slots included.
func (s *TimeslotService) ListOwn(ctx context.Context, teacherID string) ([]models.Timeslot, error) {
	slots, err := s.repo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timeslots")
	}
	return slots, nil
}

// ListView returns the caller's grid rendered into a viewer timezone.
func (s *TimeslotService) ListView(ctx context.Context, teacherID, viewerTimezone string) ([]models.TimeslotView, error) {
	slots, err := s.ListOwn(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	owner, err := s.users.FindByID(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return RenderSlots(slots, owner.Timezone, viewerTimezone, time.Now())
}

// Move repositions or resizes an open slot. Booked slots cannot move.
func (s *TimeslotService) Move(ctx context.Context, teacherID, slotID string, req MoveTimeslotRequest) (*models.Timeslot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timeslot payload")
	}

	slot, err := s.getOwned(ctx, teacherID, slotID)
	if err != nil {
		return nil, err
	}
	if slot.IsBooked {
		return nil, appErrors.Clone(appErrors.ErrConflict, "booked timeslots cannot be moved")
	}

	start := schedule.Snap(req.StartMinutes)
	end := schedule.Snap(req.EndMinutes)
	if err := schedule.ValidatePlacement(req.DayOfWeek, start, end); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	if err := s.ensureFree(ctx, teacherID, req.DayOfWeek, start, end, slot.ID); err != nil {
		return nil, err
	}

	slot.DayOfWeek = req.DayOfWeek
	slot.StartMinutes = start
	slot.EndMinutes = end
	if err := s.repo.UpdatePlacement(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to move timeslot")
	}
	return slot, nil
}

// Delete removes an open slot. Booked slots are freed only through lesson
// deletion, so deleting one here is a conflict.
func (s *TimeslotService) Delete(ctx context.Context, teacherID, slotID string) error {
	slot, err := s.getOwned(ctx, teacherID, slotID)
	if err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, slot.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timeslot")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrConflict, "booked timeslots cannot be deleted")
	}
	return nil
}

func (s *TimeslotService) getOwned(ctx context.Context, teacherID, slotID string) (*models.Timeslot, error) {
	slot, err := s.repo.FindByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timeslot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timeslot")
	}
	if slot.TeacherID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "timeslot not owned by caller")
	}
	return slot, nil
}

func (s *TimeslotService) ensureFree(ctx context.Context, teacherID string, day, start, end int, excludeID string) error {
	overlaps, err := s.repo.HasOverlap(ctx, teacherID, day, start, end, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check overlap")
	}
	if overlaps {
		return appErrors.Clone(appErrors.ErrConflict, "timeslot overlaps an existing slot")
	}
	return nil
}
