package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seanma333/project-metronome-app-sub000/internal/models"
	"github.com/seanma333/project-metronome-app-sub000/internal/repository"
	appErrors "github.com/seanma333/project-metronome-app-sub000/pkg/errors"
)

type mockBookingRepo struct {
	items       map[string]*models.BookingRequest
	openRequest bool
	created     []models.BookingRequest
	acceptErr   error
	lesson      *models.Lesson
	statusErr   error
	transitions map[string]models.BookingStatus
}

func (m *mockBookingRepo) FindByID(ctx context.Context, id string) (*models.BookingRequest, error) {
	if request, ok := m.items[id]; ok {
		cp := *request
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockBookingRepo) HasOpenRequest(ctx context.Context, studentID, timeslotID string) (bool, error) {
	return m.openRequest, nil
}

func (m *mockBookingRepo) Create(ctx context.Context, request *models.BookingRequest) error {
	if request.ID == "" {
		request.ID = "generated"
	}
	m.created = append(m.created, *request)
	return nil
}

func (m *mockBookingRepo) UpdateStatus(ctx context.Context, id string, status models.BookingStatus) error {
	if m.statusErr != nil {
		return m.statusErr
	}
	if m.transitions == nil {
		m.transitions = make(map[string]models.BookingStatus)
	}
	m.transitions[id] = status
	return nil
}

func (m *mockBookingRepo) Accept(ctx context.Context, requestID string) (*models.Lesson, error) {
	if m.acceptErr != nil {
		return nil, m.acceptErr
	}
	if m.lesson != nil {
		return m.lesson, nil
	}
	return &models.Lesson{ID: "lesson-1"}, nil
}

func (m *mockBookingRepo) ListForTeacher(ctx context.Context, teacherID string) ([]models.BookingRequestDetail, error) {
	return nil, nil
}

func (m *mockBookingRepo) ListForOwner(ctx context.Context, userID string) ([]models.BookingRequestDetail, error) {
	return nil, nil
}

type mockStudentFinder struct {
	students map[string]*models.Student
}

func (m *mockStudentFinder) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if student, ok := m.students[id]; ok {
		cp := *student
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

type mockProfileFinder struct {
	profiles map[string]*models.TeacherProfile
}

func (m *mockProfileFinder) FindByUserID(ctx context.Context, userID string) (*models.TeacherProfile, error) {
	if profile, ok := m.profiles[userID]; ok {
		cp := *profile
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func strPtr(s string) *string { return &s }

func bookingFixture() (*mockBookingRepo, *mockTimeslotRepo, *mockStudentFinder, *mockProfileFinder) {
	repo := &mockBookingRepo{}
	timeslots := &mockTimeslotRepo{
		items: map[string]*models.Timeslot{
			"11111111-1111-1111-1111-111111111111": {
				ID:           "11111111-1111-1111-1111-111111111111",
				TeacherID:    "teacher-1",
				DayOfWeek:    1,
				StartMinutes: 600,
				EndMinutes:   660,
				Format:       models.LessonOnline,
			},
		},
	}
	students := &mockStudentFinder{
		students: map[string]*models.Student{
			"22222222-2222-2222-2222-222222222222": {
				ID:        "22222222-2222-2222-2222-222222222222",
				UserID:    strPtr("caller-1"),
				FullName:  "Sam",
				BirthYear: 1990,
			},
		},
	}
	teachers := &mockProfileFinder{
		profiles: map[string]*models.TeacherProfile{
			"teacher-1": {
				UserID:            "teacher-1",
				Slug:              "teacher-one",
				AcceptingStudents: true,
				Format:            models.FormatInPersonAndOnline,
				AgePreference:     models.AgeAll,
			},
		},
	}
	return repo, timeslots, students, teachers
}

func validBookingRequest() CreateBookingRequest {
	return CreateBookingRequest{
		StudentID:    "22222222-2222-2222-2222-222222222222",
		TimeslotID:   "11111111-1111-1111-1111-111111111111",
		InstrumentID: "33333333-3333-3333-3333-333333333333",
	}
}

func TestBookingServiceCreate(t *testing.T) {
	repo, timeslots, students, teachers := bookingFixture()
	service := NewBookingService(repo, timeslots, students, teachers, validator.New(), zap.NewNop())

	request, err := service.Create(context.Background(), "caller-1", validBookingRequest())
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, request.Status)
	assert.Equal(t, models.LessonOnline, request.Format)
	require.Len(t, repo.created, 1)
}

func TestBookingServiceCreateStudentNotOwned(t *testing.T) {
	repo, timeslots, students, teachers := bookingFixture()
	service := NewBookingService(repo, timeslots, students, teachers, validator.New(), zap.NewNop())

	_, err := service.Create(context.Background(), "someone-else", validBookingRequest())
	assertErrorCode(t, err, appErrors.ErrForbidden.Code)
}

func TestBookingServiceCreateSlotBooked(t *testing.T) {
	repo, timeslots, students, teachers := bookingFixture()
	timeslots.items["11111111-1111-1111-1111-111111111111"].IsBooked = true
	service := NewBookingService(repo, timeslots, students, teachers, validator.New(), zap.NewNop())

	_, err := service.Create(context.Background(), "caller-1", validBookingRequest())
	assertErrorCode(t, err, appErrors.ErrConflict.Code)
}

func TestBookingServiceCreateNotAccepting(t *testing.T) {
	repo, timeslots, students, teachers := bookingFixture()
	teachers.profiles["teacher-1"].AcceptingStudents = false
	service := NewBookingService(repo, timeslots, students, teachers, validator.New(), zap.NewNop())

	_, err := service.Create(context.Background(), "caller-1", validBookingRequest())
	assertErrorCode(t, err, appErrors.ErrConflict.Code)
}

func TestBookingServiceCreateFormatMismatch(t *testing.T) {
	repo, timeslots, students, teachers := bookingFixture()
	teachers.profiles["teacher-1"].Format = models.FormatInPersonOnly
	service := NewBookingService(repo, timeslots, students, teachers, validator.New(), zap.NewNop())

	_, err := service.Create(context.Background(), "caller-1", validBookingRequest())
	assertErrorCode(t, err, appErrors.ErrConflict.Code)
}

func TestBookingServiceCreateAgeRestriction(t *testing.T) {
	repo, timeslots, students, teachers := bookingFixture()
	teachers.profiles["teacher-1"].AgePreference = models.AgeAdultsOnly
	students.students["22222222-2222-2222-2222-222222222222"].BirthYear = 2015
	service := NewBookingService(repo, timeslots, students, teachers, validator.New(), zap.NewNop())

	_, err := service.Create(context.Background(), "caller-1", validBookingRequest())
	assertErrorCode(t, err, appErrors.ErrConflict.Code)
}

func TestBookingServiceCreateDuplicateOpenRequest(t *testing.T) {
	repo, timeslots, students, teachers := bookingFixture()
	repo.openRequest = true
	service := NewBookingService(repo, timeslots, students, teachers, validator.New(), zap.NewNop())

	_, err := service.Create(context.Background(), "caller-1", validBookingRequest())
	assertErrorCode(t, err, appErrors.ErrConflict.Code)
}

func TestBookingServiceAccept(t *testing.T) {
	repo, timeslots, students, teachers := bookingFixture()
	repo.items = map[string]*models.BookingRequest{
		"req-1": {
			ID:         "req-1",
			StudentID:  "22222222-2222-2222-2222-222222222222",
			TimeslotID: "11111111-1111-1111-1111-111111111111",
			Status:     models.BookingPending,
		},
	}
	service := NewBookingService(repo, timeslots, students, teachers, validator.New(), zap.NewNop())

	lesson, err := service.Accept(context.Background(), "teacher-1", "req-1")
	require.NoError(t, err)
	assert.Equal(t, "lesson-1", lesson.ID)
}

func TestBookingServiceAcceptCreatesNoCalendarEvent(t *testing.T) {
	repo, timeslots, students, teachers := bookingFixture()
	repo.items = map[string]*models.BookingRequest{
		"req-1": {
			ID:         "req-1",
			StudentID:  "22222222-2222-2222-2222-222222222222",
			TimeslotID: "11111111-1111-1111-1111-111111111111",
			Status:     models.BookingPending,
		},
	}
	service := NewBookingService(repo, timeslots, students, teachers, validator.New(), zap.NewNop())

	calendarRepo, calendar := calendarFixture()

	lesson, err := service.Accept(context.Background(), "teacher-1", "req-1")
	require.NoError(t, err)
	assert.Empty(t, calendarRepo.created)

	// The explicit generation path stays open for the accepted lesson.
	event, err := calendar.Generate(context.Background(), "teacher-1", lesson.ID)
	require.NoError(t, err)
	assert.Equal(t, lesson.ID, event.LessonID)
}

func TestBookingServiceAcceptWrongTeacher(t *testing.T) {
	repo, timeslots, students, teachers := bookingFixture()
	repo.items = map[string]*models.BookingRequest{
		"req-1": {ID: "req-1", TimeslotID: "11111111-1111-1111-1111-111111111111", Status: models.BookingPending},
	}
	service := NewBookingService(repo, timeslots, students, teachers, validator.New(), zap.NewNop())

	_, err := service.Accept(context.Background(), "teacher-2", "req-1")
	assertErrorCode(t, err, appErrors.ErrForbidden.Code)
}

func TestBookingServiceAcceptTerminal(t *testing.T) {
	repo, timeslots, students, teachers := bookingFixture()
	repo.items = map[string]*models.BookingRequest{
		"req-1": {ID: "req-1", TimeslotID: "11111111-1111-1111-1111-111111111111", Status: models.BookingCancelled},
	}
	service := NewBookingService(repo, timeslots, students, teachers, validator.New(), zap.NewNop())

	_, err := service.Accept(context.Background(), "teacher-1", "req-1")
	assertErrorCode(t, err, appErrors.ErrConflict.Code)
}

func TestBookingServiceAcceptLostRace(t *testing.T) {
	repo, timeslots, students, teachers := bookingFixture()
	repo.items = map[string]*models.BookingRequest{
		"req-1": {ID: "req-1", TimeslotID: "11111111-1111-1111-1111-111111111111", Status: models.BookingPending},
	}
	repo.acceptErr = repository.ErrRequestNotPending
	service := NewBookingService(repo, timeslots, students, teachers, validator.New(), zap.NewNop())

	_, err := service.Accept(context.Background(), "teacher-1", "req-1")
	assertErrorCode(t, err, appErrors.ErrConflict.Code)
}

func TestBookingServiceDeny(t *testing.T) {
	repo, timeslots, students, teachers := bookingFixture()
	repo.items = map[string]*models.BookingRequest{
		"req-1": {ID: "req-1", TimeslotID: "11111111-1111-1111-1111-111111111111", Status: models.BookingPending},
	}
	service := NewBookingService(repo, timeslots, students, teachers, validator.New(), zap.NewNop())

	err := service.Deny(context.Background(), "teacher-1", "req-1")
	require.NoError(t, err)
	assert.Equal(t, models.BookingDenied, repo.transitions["req-1"])
}

func TestBookingServiceCancel(t *testing.T) {
	repo, timeslots, students, teachers := bookingFixture()
	repo.items = map[string]*models.BookingRequest{
		"req-1": {
			ID:         "req-1",
			StudentID:  "22222222-2222-2222-2222-222222222222",
			TimeslotID: "11111111-1111-1111-1111-111111111111",
			Status:     models.BookingPending,
		},
	}
	service := NewBookingService(repo, timeslots, students, teachers, validator.New(), zap.NewNop())

	err := service.Cancel(context.Background(), "caller-1", "req-1")
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, repo.transitions["req-1"])
}

func TestBookingServiceCancelNotOwner(t *testing.T) {
	repo, timeslots, students, teachers := bookingFixture()
	repo.items = map[string]*models.BookingRequest{
		"req-1": {
			ID:         "req-1",
			StudentID:  "22222222-2222-2222-2222-222222222222",
			TimeslotID: "11111111-1111-1111-1111-111111111111",
			Status:     models.BookingPending,
		},
	}
	service := NewBookingService(repo, timeslots, students, teachers, validator.New(), zap.NewNop())

	err := service.Cancel(context.Background(), "stranger", "req-1")
	assertErrorCode(t, err, appErrors.ErrForbidden.Code)
}

func TestBookingServiceCancelTerminal(t *testing.T) {
	repo, timeslots, students, teachers := bookingFixture()
	repo.items = map[string]*models.BookingRequest{
		"req-1": {
			ID:         "req-1",
			StudentID:  "22222222-2222-2222-2222-222222222222",
			TimeslotID: "11111111-1111-1111-1111-111111111111",
			Status:     models.BookingDenied,
		},
	}
	service := NewBookingService(repo, timeslots, students, teachers, validator.New(), zap.NewNop())

	err := service.Cancel(context.Background(), "caller-1", "req-1")
	assertErrorCode(t, err, appErrors.ErrConflict.Code)
}
