package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seanma333/project-metronome-app-sub000/internal/models"
	appErrors "github.com/seanma333/project-metronome-app-sub000/pkg/errors"
)

type mockLessonRepo struct {
	lessons map[string]*models.Lesson
	details map[string]*models.LessonDetail
	notes   map[string][]models.LessonNote
	deleted []string
}

func (m *mockLessonRepo) FindByID(ctx context.Context, id string) (*models.Lesson, error) {
	if lesson, ok := m.lessons[id]; ok {
		cp := *lesson
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockLessonRepo) FindDetail(ctx context.Context, id string) (*models.LessonDetail, error) {
	if detail, ok := m.details[id]; ok {
		cp := *detail
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockLessonRepo) ListByTeacher(ctx context.Context, teacherID string) ([]models.LessonDetail, error) {
	var out []models.LessonDetail
	for _, d := range m.details {
		if d.TeacherID == teacherID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *mockLessonRepo) ListByOwner(ctx context.Context, userID string) ([]models.LessonDetail, error) {
	return nil, nil
}

func (m *mockLessonRepo) Delete(ctx context.Context, lesson *models.Lesson) error {
	m.deleted = append(m.deleted, lesson.ID)
	delete(m.lessons, lesson.ID)
	return nil
}

func (m *mockLessonRepo) CreateNote(ctx context.Context, note *models.LessonNote) error {
	if note.ID == "" {
		note.ID = "note-1"
	}
	if m.notes == nil {
		m.notes = make(map[string][]models.LessonNote)
	}
	m.notes[note.LessonID] = append(m.notes[note.LessonID], *note)
	return nil
}

func (m *mockLessonRepo) ListNotes(ctx context.Context, lessonID string) ([]models.LessonNote, error) {
	return m.notes[lessonID], nil
}

func lessonFixture() (*mockLessonRepo, *LessonService) {
	repo := &mockLessonRepo{
		lessons: map[string]*models.Lesson{
			"lesson-1": {ID: "lesson-1", TeacherID: "teacher-1", TimeslotID: "slot-1", StudentID: "student-1"},
		},
		details: map[string]*models.LessonDetail{
			"lesson-1": {
				Lesson:       models.Lesson{ID: "lesson-1", TeacherID: "teacher-1", TimeslotID: "slot-1", StudentID: "student-1"},
				StudentName:  "Sam",
				DayOfWeek:    1,
				StartMinutes: 540,
				EndMinutes:   600,
			},
		},
	}
	students := &mockStudentFinder{students: map[string]*models.Student{
		"student-1": {ID: "student-1", UserID: strPtr("caller-1")},
	}}
	users := &mockUserFinder{users: map[string]*models.User{
		"teacher-1": {ID: "teacher-1", Timezone: "America/New_York"},
	}}
	service := NewLessonService(repo, students, users, validator.New(), zap.NewNop())
	service.now = func() time.Time { return time.Date(2026, time.January, 7, 12, 0, 0, 0, time.UTC) }
	return repo, service
}

func TestLessonServiceListForTeacher(t *testing.T) {
	_, service := lessonFixture()
	role := models.RoleTeacher
	caller := &models.User{ID: "teacher-1", Role: &role, Timezone: "America/New_York"}

	lessons, err := service.List(context.Background(), caller)
	require.NoError(t, err)
	require.Len(t, lessons, 1)
	require.NotNil(t, lessons[0].NextOccurrence)
	assert.Equal(t, time.Monday, lessons[0].NextOccurrence.Weekday())
}

func TestLessonServiceGetAsStudentOwner(t *testing.T) {
	_, service := lessonFixture()

	detail, err := service.Get(context.Background(), "caller-1", "lesson-1")
	require.NoError(t, err)
	assert.Equal(t, "Sam", detail.StudentName)
}

func TestLessonServiceGetStranger(t *testing.T) {
	_, service := lessonFixture()

	_, err := service.Get(context.Background(), "stranger", "lesson-1")
	assertErrorCode(t, err, appErrors.ErrForbidden.Code)
}

func TestLessonServiceDelete(t *testing.T) {
	repo, service := lessonFixture()

	require.NoError(t, service.Delete(context.Background(), "teacher-1", "lesson-1"))
	assert.Equal(t, []string{"lesson-1"}, repo.deleted)
}

func TestLessonServiceDeleteNotOwner(t *testing.T) {
	repo, service := lessonFixture()

	err := service.Delete(context.Background(), "teacher-2", "lesson-1")
	assertErrorCode(t, err, appErrors.ErrForbidden.Code)
	assert.Empty(t, repo.deleted)
}

func TestLessonServiceAddNote(t *testing.T) {
	repo, service := lessonFixture()

	note, err := service.AddNote(context.Background(), "teacher-1", "lesson-1", CreateNoteRequest{
		Body: "  worked on scales  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "worked on scales", note.Body)
	assert.Equal(t, "teacher-1", note.AuthorID)
	assert.Len(t, repo.notes["lesson-1"], 1)
}

func TestLessonServiceAddNoteStudentForbidden(t *testing.T) {
	_, service := lessonFixture()

	_, err := service.AddNote(context.Background(), "caller-1", "lesson-1", CreateNoteRequest{Body: "hi"})
	assertErrorCode(t, err, appErrors.ErrForbidden.Code)
}

func TestLessonServiceListNotesAsStudentOwner(t *testing.T) {
	repo, service := lessonFixture()
	repo.notes = map[string][]models.LessonNote{
		"lesson-1": {{ID: "note-1", LessonID: "lesson-1", Body: "practice"}},
	}

	notes, err := service.ListNotes(context.Background(), "caller-1", "lesson-1")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "practice", notes[0].Body)
}
