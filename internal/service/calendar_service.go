package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/seanma333/project-metronome-app-sub000/internal/models"
	"github.com/seanma333/project-metronome-app-sub000/internal/schedule"
	appErrors "github.com/seanma333/project-metronome-app-sub000/pkg/errors"
)

type calendarEventRepository interface {
	FindByLesson(ctx context.Context, lessonID string) (*models.CalendarEvent, error)
	ExistsByLesson(ctx context.Context, lessonID string) (bool, error)
	Create(ctx context.Context, event *models.CalendarEvent) error
	Delete(ctx context.Context, id string) error
}

type calendarLessonRepository interface {
	FindByID(ctx context.Context, id string) (*models.Lesson, error)
}

type calendarTimeslotRepository interface {
	FindByID(ctx context.Context, id string) (*models.Timeslot, error)
}

type calendarUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type calendarStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// CalendarService projects lessons into recurring calendar events. Each
// lesson carries at most one event; DtStart is the first occurrence of the
// lesson's slot in the teacher's timezone and the rule repeats weekly.
type CalendarService struct {
	repo      calendarEventRepository
	lessons   calendarLessonRepository
	timeslots calendarTimeslotRepository
	users     calendarUserRepository
	students  calendarStudentRepository
	logger    *zap.Logger
	now       func() time.Time
}

// NewCalendarService constructs a CalendarService.
func NewCalendarService(repo calendarEventRepository, lessons calendarLessonRepository, timeslots calendarTimeslotRepository, users calendarUserRepository, students calendarStudentRepository, logger *zap.Logger) *CalendarService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{
		repo:      repo,
		lessons:   lessons,
		timeslots: timeslots,
		users:     users,
		students:  students,
		logger:    logger,
		now:       time.Now,
	}
}

// Generate creates the calendar event for a lesson the teacher owns. A
// second generation for the same lesson is a conflict.
func (s *CalendarService) Generate(ctx context.Context, teacherID, lessonID string) (*models.CalendarEvent, error) {
	lesson, err := s.lessons.FindByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	if lesson.TeacherID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "lesson not owned by caller")
	}

	exists, err := s.repo.ExistsByLesson(ctx, lesson.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check calendar event")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "calendar event already exists for lesson")
	}

	slot, err := s.timeslots.FindByID(ctx, lesson.TimeslotID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timeslot")
	}
	teacher, err := s.users.FindByID(ctx, lesson.TeacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	loc, err := schedule.LoadZone(teacher.Timezone)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "invalid teacher timezone")
	}

	dtstart := schedule.NextOccurrence(schedule.WeeklyTime{DayOfWeek: slot.DayOfWeek, Minutes: slot.StartMinutes}, loc, s.now())
	dtend := dtstart.Add(time.Duration(slot.Duration()) * time.Minute)
	rule, err := schedule.WeeklyRule(dtstart)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build recurrence rule")
	}

	event := &models.CalendarEvent{
		LessonID: lesson.ID,
		DtStart:  dtstart,
		DtEnd:    dtend,
		RRule:    rule,
		Timezone: teacher.Timezone,
		Status:   models.EventConfirmed,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create calendar event")
	}
	s.logger.Info("calendar event created", zap.String("lesson_id", lesson.ID), zap.String("event_id", event.ID))
	return event, nil
}

// GetForLesson returns a lesson's event with the next occurrence, visible
// only to lesson participants.
func (s *CalendarService) GetForLesson(ctx context.Context, callerID, lessonID string) (*models.CalendarEventView, error) {
	lesson, err := s.lessons.FindByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	if lesson.TeacherID != callerID {
		student, err := s.students.FindByID(ctx, lesson.StudentID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
		}
		if !student.OwnedBy(callerID) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "lesson not visible to caller")
		}
	}

	event, err := s.repo.FindByLesson(ctx, lessonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "calendar event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load calendar event")
	}

	return &models.CalendarEventView{
		CalendarEvent:  *event,
		NextOccurrence: schedule.NextInstance(event.RRule, event.DtStart, s.now()),
	}, nil
}
