package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/seanma333/project-metronome-app-sub000/internal/models"
	"github.com/seanma333/project-metronome-app-sub000/internal/repository"
	appErrors "github.com/seanma333/project-metronome-app-sub000/pkg/errors"
)

type bookingRepository interface {
	FindByID(ctx context.Context, id string) (*models.BookingRequest, error)
	HasOpenRequest(ctx context.Context, studentID, timeslotID string) (bool, error)
	Create(ctx context.Context, request *models.BookingRequest) error
	UpdateStatus(ctx context.Context, id string, status models.BookingStatus) error
	Accept(ctx context.Context, requestID string) (*models.Lesson, error)
	ListForTeacher(ctx context.Context, teacherID string) ([]models.BookingRequestDetail, error)
	ListForOwner(ctx context.Context, userID string) ([]models.BookingRequestDetail, error)
}

type bookingTimeslotRepository interface {
	FindByID(ctx context.Context, id string) (*models.Timeslot, error)
}

type bookingStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type bookingTeacherRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.TeacherProfile, error)
}

// CreateBookingRequest asks a teacher for a specific open slot.
type CreateBookingRequest struct {
	StudentID    string  `json:"student_id" validate:"required,uuid"`
	TimeslotID   string  `json:"timeslot_id" validate:"required,uuid"`
	InstrumentID string  `json:"instrument_id" validate:"required,uuid"`
	Message      *string `json:"message" validate:"omitempty,max=2000"`
}

// BookingService runs the request state machine. PENDING is the only state
// with outgoing transitions; accept is atomic with lesson creation and slot
// booking.
type BookingService struct {
	repo      bookingRepository
	timeslots bookingTimeslotRepository
	students  bookingStudentRepository
	teachers  bookingTeacherRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBookingService constructs a BookingService.
func NewBookingService(repo bookingRepository, timeslots bookingTimeslotRepository, students bookingStudentRepository, teachers bookingTeacherRepository, validate *validator.Validate, logger *zap.Logger) *BookingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{
		repo:      repo,
		timeslots: timeslots,
		students:  students,
		teachers:  teachers,
		validator: validate,
		logger:    logger,
	}
}

// Create files a PENDING request. The caller must own the student record,
// the slot must be open, the teacher must be accepting students in the
// slot's format, and the student's age must fit the teacher's preference.
func (s *BookingService) Create(ctx context.Context, callerID string, req CreateBookingRequest) (*models.BookingRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !student.OwnedBy(callerID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "student not owned by caller")
	}

	slot, err := s.timeslots.FindByID(ctx, req.TimeslotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timeslot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timeslot")
	}
	if slot.IsBooked {
		return nil, appErrors.Clone(appErrors.ErrConflict, "timeslot is already booked")
	}

	profile, err := s.teachers.FindByUserID(ctx, slot.TeacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if !profile.AcceptingStudents {
		return nil, appErrors.Clone(appErrors.ErrConflict, "teacher is not accepting students")
	}
	if !profile.Format.Allows(slot.Format) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "lesson format not offered by teacher")
	}
	if !profile.AgePreference.Accepts(student.Age(time.Now().Year())) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student age outside teacher preference")
	}

	open, err := s.repo.HasOpenRequest(ctx, student.ID, slot.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check open requests")
	}
	if open {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a pending request for this timeslot already exists")
	}

	request := &models.BookingRequest{
		StudentID:    student.ID,
		TimeslotID:   slot.ID,
		InstrumentID: req.InstrumentID,
		Format:       slot.Format,
		Status:       models.BookingPending,
		Message:      req.Message,
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create request")
	}
	s.logger.Info("booking request created",
		zap.String("request_id", request.ID),
		zap.String("timeslot_id", slot.ID))
	return request, nil
}

// Accept transitions a PENDING request to ACCEPTED, creating the lesson and
// booking the slot in one transaction. Losing a race to another accept or a
// cancellation surfaces as a conflict. The calendar event is not created
// here; the teacher generates it explicitly through CalendarService.
func (s *BookingService) Accept(ctx context.Context, teacherID, requestID string) (*models.Lesson, error) {
	request, slot, err := s.loadForTeacher(ctx, teacherID, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "request is no longer pending")
	}
	if slot.IsBooked {
		return nil, appErrors.Clone(appErrors.ErrConflict, "timeslot is already booked")
	}

	lesson, err := s.repo.Accept(ctx, requestID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRequestNotPending):
			return nil, appErrors.Clone(appErrors.ErrConflict, "request is no longer pending")
		case errors.Is(err, repository.ErrTimeslotBooked):
			return nil, appErrors.Clone(appErrors.ErrConflict, "timeslot is already booked")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to accept request")
	}
	s.logger.Info("booking request accepted",
		zap.String("request_id", requestID),
		zap.String("lesson_id", lesson.ID))
	return lesson, nil
}

// Deny transitions a PENDING request to DENIED. Teacher only.
func (s *BookingService) Deny(ctx context.Context, teacherID, requestID string) error {
	request, _, err := s.loadForTeacher(ctx, teacherID, requestID)
	if err != nil {
		return err
	}
	if request.Status.Terminal() {
		return appErrors.Clone(appErrors.ErrConflict, "request is no longer pending")
	}
	return s.transition(ctx, requestID, models.BookingDenied)
}

// Cancel transitions a PENDING request to CANCELLED. Requester side only.
func (s *BookingService) Cancel(ctx context.Context, callerID, requestID string) error {
	request, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}

	student, err := s.students.FindByID(ctx, request.StudentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !student.OwnedBy(callerID) {
		return appErrors.Clone(appErrors.ErrForbidden, "request not owned by caller")
	}
	if request.Status.Terminal() {
		return appErrors.Clone(appErrors.ErrConflict, "request is no longer pending")
	}
	return s.transition(ctx, requestID, models.BookingCancelled)
}

// ListForTeacher returns requests targeting the teacher's slots.
func (s *BookingService) ListForTeacher(ctx context.Context, teacherID string) ([]models.BookingRequestDetail, error) {
	list, err := s.repo.ListForTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list requests")
	}
	return list, nil
}

// ListForOwner returns requests filed for students the caller owns.
func (s *BookingService) ListForOwner(ctx context.Context, userID string) ([]models.BookingRequestDetail, error) {
	list, err := s.repo.ListForOwner(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list requests")
	}
	return list, nil
}

func (s *BookingService) loadForTeacher(ctx context.Context, teacherID, requestID string) (*models.BookingRequest, *models.Timeslot, error) {
	request, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	slot, err := s.timeslots.FindByID(ctx, request.TimeslotID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timeslot")
	}
	if slot.TeacherID != teacherID {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "request does not target caller's slot")
	}
	return request, slot, nil
}

func (s *BookingService) transition(ctx context.Context, requestID string, status models.BookingStatus) error {
	if err := s.repo.UpdateStatus(ctx, requestID, status); err != nil {
		if errors.Is(err, repository.ErrRequestNotPending) {
			return appErrors.Clone(appErrors.ErrConflict, "request is no longer pending")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update request")
	}
	s.logger.Info("booking request updated", zap.String("request_id", requestID), zap.String("status", string(status)))
	return nil
}
