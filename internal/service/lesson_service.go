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
	"github.com/seanma333/project-metronome-app-sub000/internal/schedule"
	appErrors "github.com/seanma333/project-metronome-app-sub000/pkg/errors"
)

type lessonRepository interface {
	FindByID(ctx context.Context, id string) (*models.Lesson, error)
	FindDetail(ctx context.Context, id string) (*models.LessonDetail, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.LessonDetail, error)
	ListByOwner(ctx context.Context, userID string) ([]models.LessonDetail, error)
	Delete(ctx context.Context, lesson *models.Lesson) error
	CreateNote(ctx context.Context, note *models.LessonNote) error
	ListNotes(ctx context.Context, lessonID string) ([]models.LessonNote, error)
}

type lessonStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type lessonUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// CreateNoteRequest attaches free text to a lesson.
type CreateNoteRequest struct {
	Body string `json:"body" validate:"required,max=8000"`
}

// LessonService serves lesson views and runs the cascading delete. A lesson
// is visible to its teacher and to whoever owns the student record.
type LessonService struct {
	repo      lessonRepository
	students  lessonStudentRepository
	users     lessonUserRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewLessonService constructs a LessonService.
func NewLessonService(repo lessonRepository, students lessonStudentRepository, users lessonUserRepository, validate *validator.Validate, logger *zap.Logger) *LessonService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonService{repo: repo, students: students, users: users, validator: validate, logger: logger, now: time.Now}
}

// List returns the caller's lessons: taught lessons for teachers, owned
// students' lessons otherwise.
func (s *LessonService) List(ctx context.Context, caller *models.User) ([]models.LessonDetail, error) {
	var (
		lessons []models.LessonDetail
		err     error
	)
	if caller.HasRole(models.RoleTeacher) {
		lessons, err = s.repo.ListByTeacher(ctx, caller.ID)
	} else {
		lessons, err = s.repo.ListByOwner(ctx, caller.ID)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lessons")
	}
	s.decorate(ctx, lessons)
	return lessons, nil
}

// Get returns one lesson's detail, participants only.
func (s *LessonService) Get(ctx context.Context, callerID, lessonID string) (*models.LessonDetail, error) {
	detail, err := s.repo.FindDetail(ctx, lessonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	if err := s.authorize(ctx, callerID, &detail.Lesson); err != nil {
		return nil, err
	}

	items := []models.LessonDetail{*detail}
	s.decorate(ctx, items)
	return &items[0], nil
}

// Delete removes a lesson, its notes and its calendar events, and frees the
// slot. Teacher only.
func (s *LessonService) Delete(ctx context.Context, teacherID, lessonID string) error {
	lesson, err := s.repo.FindByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	if lesson.TeacherID != teacherID {
		return appErrors.Clone(appErrors.ErrForbidden, "lesson not owned by caller")
	}
	if err := s.repo.Delete(ctx, lesson); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lesson")
	}
	s.logger.Info("lesson deleted", zap.String("lesson_id", lessonID), zap.String("timeslot_id", lesson.TimeslotID))
	return nil
}

// AddNote attaches a note to a lesson the teacher owns.
func (s *LessonService) AddNote(ctx context.Context, teacherID, lessonID string, req CreateNoteRequest) (*models.LessonNote, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid note payload")
	}

	lesson, err := s.repo.FindByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	if lesson.TeacherID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the teacher can add notes")
	}

	note := &models.LessonNote{
		LessonID: lessonID,
		AuthorID: teacherID,
		Body:     strings.TrimSpace(req.Body),
	}
	if err := s.repo.CreateNote(ctx, note); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create note")
	}
	return note, nil
}

// ListNotes returns a lesson's notes, newest first, participants only.
func (s *LessonService) ListNotes(ctx context.Context, callerID, lessonID string) ([]models.LessonNote, error) {
	lesson, err := s.repo.FindByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	if err := s.authorize(ctx, callerID, lesson); err != nil {
		return nil, err
	}

	notes, err := s.repo.ListNotes(ctx, lessonID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notes")
	}
	return notes, nil
}

func (s *LessonService) authorize(ctx context.Context, callerID string, lesson *models.Lesson) error {
	if lesson.TeacherID == callerID {
		return nil
	}
	student, err := s.students.FindByID(ctx, lesson.StudentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !student.OwnedBy(callerID) {
		return appErrors.Clone(appErrors.ErrForbidden, "lesson not visible to caller")
	}
	return nil
}

// decorate fills NextOccurrence from each lesson's slot placement in the
// teacher's timezone. Lookup failures leave the field empty.
func (s *LessonService) decorate(ctx context.Context, lessons []models.LessonDetail) {
	zones := map[string]*time.Location{}
	for i := range lessons {
		teacherID := lessons[i].TeacherID
		loc, ok := zones[teacherID]
		if !ok {
			teacher, err := s.users.FindByID(ctx, teacherID)
			if err != nil {
				continue
			}
			loc, err = schedule.LoadZone(teacher.Timezone)
			if err != nil {
				continue
			}
			zones[teacherID] = loc
		}
		next := schedule.NextOccurrence(schedule.WeeklyTime{DayOfWeek: lessons[i].DayOfWeek, Minutes: lessons[i].StartMinutes}, loc, s.now())
		if !next.IsZero() {
			lessons[i].NextOccurrence = &next
		}
	}
}
