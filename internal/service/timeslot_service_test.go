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
	appErrors "github.com/seanma333/project-metronome-app-sub000/pkg/errors"
)

type mockTimeslotRepo struct {
	items    map[string]*models.Timeslot
	overlaps bool
	created  []models.Timeslot
	moved    []models.Timeslot
	deleted  []string
}

func (m *mockTimeslotRepo) FindByID(ctx context.Context, id string) (*models.Timeslot, error) {
	if slot, ok := m.items[id]; ok {
		cp := *slot
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTimeslotRepo) ListByTeacher(ctx context.Context, teacherID string) ([]models.Timeslot, error) {
	var out []models.Timeslot
	for _, slot := range m.items {
		if slot.TeacherID == teacherID {
			out = append(out, *slot)
		}
	}
	return out, nil
}

func (m *mockTimeslotRepo) HasOverlap(ctx context.Context, teacherID string, dayOfWeek, startMinutes, endMinutes int, excludeID string) (bool, error) {
	return m.overlaps, nil
}

func (m *mockTimeslotRepo) Create(ctx context.Context, slot *models.Timeslot) error {
	if slot.ID == "" {
		slot.ID = "generated"
	}
	m.created = append(m.created, *slot)
	return nil
}

func (m *mockTimeslotRepo) UpdatePlacement(ctx context.Context, slot *models.Timeslot) error {
	m.moved = append(m.moved, *slot)
	return nil
}

func (m *mockTimeslotRepo) Delete(ctx context.Context, id string) (bool, error) {
	m.deleted = append(m.deleted, id)
	if slot, ok := m.items[id]; ok && slot.IsBooked {
		return false, nil
	}
	return true, nil
}

type mockUserFinder struct {
	users map[string]*models.User
}

func (m *mockUserFinder) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		cp := *user
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func assertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, code, appErr.Code)
}

func TestTimeslotServiceCreateSnapsToGrid(t *testing.T) {
	repo := &mockTimeslotRepo{}
	service := NewTimeslotService(repo, &mockUserFinder{}, validator.New(), zap.NewNop())

	slot, err := service.Create(context.Background(), "teacher-1", CreateTimeslotRequest{
		DayOfWeek:    1,
		StartMinutes: 602,
		EndMinutes:   658,
		Format:       models.LessonOnline,
	})
	require.NoError(t, err)
	assert.Equal(t, 600, slot.StartMinutes)
	assert.Equal(t, 660, slot.EndMinutes)
	assert.Equal(t, "teacher-1", slot.TeacherID)
	assert.False(t, slot.IsBooked)
	require.Len(t, repo.created, 1)
}

func TestTimeslotServiceCreateOutsideHours(t *testing.T) {
	repo := &mockTimeslotRepo{}
	service := NewTimeslotService(repo, &mockUserFinder{}, validator.New(), zap.NewNop())

	_, err := service.Create(context.Background(), "teacher-1", CreateTimeslotRequest{
		DayOfWeek:    1,
		StartMinutes: 420,
		EndMinutes:   480,
		Format:       models.LessonOnline,
	})
	assertErrorCode(t, err, appErrors.ErrValidation.Code)
	assert.Empty(t, repo.created)
}

func TestTimeslotServiceCreateOverlap(t *testing.T) {
	repo := &mockTimeslotRepo{overlaps: true}
	service := NewTimeslotService(repo, &mockUserFinder{}, validator.New(), zap.NewNop())

	_, err := service.Create(context.Background(), "teacher-1", CreateTimeslotRequest{
		DayOfWeek:    1,
		StartMinutes: 600,
		EndMinutes:   660,
		Format:       models.LessonInPerson,
	})
	assertErrorCode(t, err, appErrors.ErrConflict.Code)
}

func TestTimeslotServiceCreateUnknownFormat(t *testing.T) {
	service := NewTimeslotService(&mockTimeslotRepo{}, &mockUserFinder{}, validator.New(), zap.NewNop())

	_, err := service.Create(context.Background(), "teacher-1", CreateTimeslotRequest{
		DayOfWeek:    1,
		StartMinutes: 600,
		EndMinutes:   660,
		Format:       "HYBRID",
	})
	assertErrorCode(t, err, appErrors.ErrValidation.Code)
}

func TestTimeslotServiceMove(t *testing.T) {
	repo := &mockTimeslotRepo{
		items: map[string]*models.Timeslot{
			"slot-1": {ID: "slot-1", TeacherID: "teacher-1", DayOfWeek: 1, StartMinutes: 600, EndMinutes: 660, Format: models.LessonOnline},
		},
	}
	service := NewTimeslotService(repo, &mockUserFinder{}, validator.New(), zap.NewNop())

	slot, err := service.Move(context.Background(), "teacher-1", "slot-1", MoveTimeslotRequest{
		DayOfWeek:    3,
		StartMinutes: 720,
		EndMinutes:   780,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, slot.DayOfWeek)
	assert.Equal(t, 720, slot.StartMinutes)
	require.Len(t, repo.moved, 1)
}

func TestTimeslotServiceMoveBooked(t *testing.T) {
	repo := &mockTimeslotRepo{
		items: map[string]*models.Timeslot{
			"slot-1": {ID: "slot-1", TeacherID: "teacher-1", DayOfWeek: 1, StartMinutes: 600, EndMinutes: 660, IsBooked: true},
		},
	}
	service := NewTimeslotService(repo, &mockUserFinder{}, validator.New(), zap.NewNop())

	_, err := service.Move(context.Background(), "teacher-1", "slot-1", MoveTimeslotRequest{
		DayOfWeek:    3,
		StartMinutes: 720,
		EndMinutes:   780,
	})
	assertErrorCode(t, err, appErrors.ErrConflict.Code)
	assert.Empty(t, repo.moved)
}

func TestTimeslotServiceMoveNotOwned(t *testing.T) {
	repo := &mockTimeslotRepo{
		items: map[string]*models.Timeslot{
			"slot-1": {ID: "slot-1", TeacherID: "teacher-2", DayOfWeek: 1, StartMinutes: 600, EndMinutes: 660},
		},
	}
	service := NewTimeslotService(repo, &mockUserFinder{}, validator.New(), zap.NewNop())

	_, err := service.Move(context.Background(), "teacher-1", "slot-1", MoveTimeslotRequest{
		DayOfWeek:    3,
		StartMinutes: 720,
		EndMinutes:   780,
	})
	assertErrorCode(t, err, appErrors.ErrForbidden.Code)
}

func TestTimeslotServiceDeleteBooked(t *testing.T) {
	repo := &mockTimeslotRepo{
		items: map[string]*models.Timeslot{
			"slot-1": {ID: "slot-1", TeacherID: "teacher-1", IsBooked: true},
		},
	}
	service := NewTimeslotService(repo, &mockUserFinder{}, validator.New(), zap.NewNop())

	err := service.Delete(context.Background(), "teacher-1", "slot-1")
	assertErrorCode(t, err, appErrors.ErrConflict.Code)
}

func TestTimeslotServiceDeleteMissing(t *testing.T) {
	service := NewTimeslotService(&mockTimeslotRepo{}, &mockUserFinder{}, validator.New(), zap.NewNop())

	err := service.Delete(context.Background(), "teacher-1", "slot-9")
	assertErrorCode(t, err, appErrors.ErrNotFound.Code)
}

func TestTimeslotServiceListView(t *testing.T) {
	repo := &mockTimeslotRepo{
		items: map[string]*models.Timeslot{
			"slot-1": {ID: "slot-1", TeacherID: "teacher-1", DayOfWeek: 1, StartMinutes: 540, EndMinutes: 600, Format: models.LessonOnline},
		},
	}
	users := &mockUserFinder{users: map[string]*models.User{
		"teacher-1": {ID: "teacher-1", Timezone: "America/New_York"},
	}}
	service := NewTimeslotService(repo, users, validator.New(), zap.NewNop())

	views, err := service.ListView(context.Background(), "teacher-1", "America/Los_Angeles")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, 1, views[0].DayOfWeek)
	assert.Equal(t, 360, views[0].StartMinutes)
	assert.Equal(t, 420, views[0].EndMinutes)
	assert.Equal(t, "America/Los_Angeles", views[0].Timezone)
}
