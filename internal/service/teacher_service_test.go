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

type mockTeacherProfileRepo struct {
	profiles    map[string]*models.TeacherProfile
	slugIndex   map[string]string
	instruments map[string][]string
	languages   map[string][]string
	catalogue   []models.Instrument
}

func (m *mockTeacherProfileRepo) FindByUserID(ctx context.Context, userID string) (*models.TeacherProfile, error) {
	if profile, ok := m.profiles[userID]; ok {
		cp := *profile
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTeacherProfileRepo) FindBySlug(ctx context.Context, slug string) (*models.TeacherProfile, error) {
	if userID, ok := m.slugIndex[slug]; ok {
		return m.FindByUserID(ctx, userID)
	}
	return nil, sql.ErrNoRows
}

func (m *mockTeacherProfileRepo) ExistsBySlug(ctx context.Context, slug, excludeUserID string) (bool, error) {
	if owner, ok := m.slugIndex[slug]; ok {
		if excludeUserID == "" || owner != excludeUserID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockTeacherProfileRepo) Save(ctx context.Context, profile *models.TeacherProfile, instrumentIDs, languageIDs []string) error {
	if m.profiles == nil {
		m.profiles = make(map[string]*models.TeacherProfile)
	}
	if m.slugIndex == nil {
		m.slugIndex = make(map[string]string)
	}
	if m.instruments == nil {
		m.instruments = make(map[string][]string)
	}
	if m.languages == nil {
		m.languages = make(map[string][]string)
	}
	cp := *profile
	m.profiles[profile.UserID] = &cp
	m.slugIndex[profile.Slug] = profile.UserID
	m.instruments[profile.UserID] = instrumentIDs
	m.languages[profile.UserID] = languageIDs
	return nil
}

func (m *mockTeacherProfileRepo) ListInstruments(ctx context.Context, userID string) ([]models.Instrument, error) {
	var out []models.Instrument
	for _, id := range m.instruments[userID] {
		out = append(out, models.Instrument{ID: id, Name: id})
	}
	return out, nil
}

func (m *mockTeacherProfileRepo) ListLanguages(ctx context.Context, userID string) ([]models.Language, error) {
	var out []models.Language
	for _, id := range m.languages[userID] {
		out = append(out, models.Language{ID: id, Name: id})
	}
	return out, nil
}

func (m *mockTeacherProfileRepo) ListAllInstruments(ctx context.Context) ([]models.Instrument, error) {
	return m.catalogue, nil
}

func (m *mockTeacherProfileRepo) ListAllLanguages(ctx context.Context) ([]models.Language, error) {
	return nil, nil
}

type mockOpenSlotRepo struct {
	slots []models.Timeslot
}

func (m *mockOpenSlotRepo) ListOpenByTeacher(ctx context.Context, teacherID string) ([]models.Timeslot, error) {
	return m.slots, nil
}

func validUpsertRequest() UpsertTeacherProfileRequest {
	return UpsertTeacherProfileRequest{
		Slug:          "piano-with-pat",
		Format:        models.FormatInPersonAndOnline,
		AgePreference: models.AgeAll,
		InstrumentIDs: []string{"33333333-3333-3333-3333-333333333333"},
	}
}

func TestTeacherServiceUpsert(t *testing.T) {
	repo := &mockTeacherProfileRepo{}
	service := NewTeacherService(repo, &mockUserFinder{}, &mockOpenSlotRepo{}, validator.New(), zap.NewNop())

	profile, err := service.Upsert(context.Background(), "teacher-1", validUpsertRequest())
	require.NoError(t, err)
	assert.Equal(t, "piano-with-pat", profile.Slug)
	assert.Equal(t, []string{"33333333-3333-3333-3333-333333333333"}, repo.instruments["teacher-1"])
}

func TestTeacherServiceUpsertNormalizesSlug(t *testing.T) {
	repo := &mockTeacherProfileRepo{}
	service := NewTeacherService(repo, &mockUserFinder{}, &mockOpenSlotRepo{}, validator.New(), zap.NewNop())

	req := validUpsertRequest()
	req.Slug = "  Piano-With-Pat  "
	profile, err := service.Upsert(context.Background(), "teacher-1", req)
	require.NoError(t, err)
	assert.Equal(t, "piano-with-pat", profile.Slug)
}

func TestTeacherServiceUpsertInvalidSlug(t *testing.T) {
	service := NewTeacherService(&mockTeacherProfileRepo{}, &mockUserFinder{}, &mockOpenSlotRepo{}, validator.New(), zap.NewNop())

	req := validUpsertRequest()
	req.Slug = "piano_with_pat"
	_, err := service.Upsert(context.Background(), "teacher-1", req)
	assertErrorCode(t, err, appErrors.ErrValidation.Code)
}

func TestTeacherServiceUpsertSlugTaken(t *testing.T) {
	repo := &mockTeacherProfileRepo{slugIndex: map[string]string{"piano-with-pat": "teacher-2"}}
	service := NewTeacherService(repo, &mockUserFinder{}, &mockOpenSlotRepo{}, validator.New(), zap.NewNop())

	_, err := service.Upsert(context.Background(), "teacher-1", validUpsertRequest())
	assertErrorCode(t, err, appErrors.ErrConflict.Code)
}

func TestTeacherServiceUpsertKeepsOwnSlug(t *testing.T) {
	repo := &mockTeacherProfileRepo{slugIndex: map[string]string{"piano-with-pat": "teacher-1"}}
	service := NewTeacherService(repo, &mockUserFinder{}, &mockOpenSlotRepo{}, validator.New(), zap.NewNop())

	_, err := service.Upsert(context.Background(), "teacher-1", validUpsertRequest())
	require.NoError(t, err)
}

func TestTeacherServiceUpsertNoInstruments(t *testing.T) {
	service := NewTeacherService(&mockTeacherProfileRepo{}, &mockUserFinder{}, &mockOpenSlotRepo{}, validator.New(), zap.NewNop())

	req := validUpsertRequest()
	req.InstrumentIDs = nil
	_, err := service.Upsert(context.Background(), "teacher-1", req)
	assertErrorCode(t, err, appErrors.ErrValidation.Code)
}

func TestTeacherServicePublicProfile(t *testing.T) {
	repo := &mockTeacherProfileRepo{
		profiles: map[string]*models.TeacherProfile{
			"teacher-1": {UserID: "teacher-1", Slug: "piano-with-pat", AcceptingStudents: true, Format: models.FormatOnlineOnly, AgePreference: models.AgeAll},
		},
		slugIndex: map[string]string{"piano-with-pat": "teacher-1"},
	}
	users := &mockUserFinder{users: map[string]*models.User{
		"teacher-1": {ID: "teacher-1", FullName: "Pat", Timezone: "America/New_York"},
	}}
	slots := &mockOpenSlotRepo{slots: []models.Timeslot{
		{ID: "slot-1", TeacherID: "teacher-1", DayOfWeek: 2, StartMinutes: 540, EndMinutes: 600, Format: models.LessonOnline},
	}}
	service := NewTeacherService(repo, users, slots, validator.New(), zap.NewNop())

	page, err := service.PublicProfile(context.Background(), "Piano-With-Pat", "Europe/Berlin")
	require.NoError(t, err)
	assert.Equal(t, "Pat", page.FullName)
	assert.Equal(t, "America/New_York", page.Timezone)
	require.Len(t, page.OpenSlots, 1)
	// Tuesday 09:00 New York is Tuesday 15:00 Berlin in winter.
	assert.Equal(t, 2, page.OpenSlots[0].DayOfWeek)
	assert.Equal(t, 900, page.OpenSlots[0].StartMinutes)
	assert.Equal(t, "Europe/Berlin", page.OpenSlots[0].Timezone)
}

func TestTeacherServicePublicProfileUnknownSlug(t *testing.T) {
	service := NewTeacherService(&mockTeacherProfileRepo{}, &mockUserFinder{}, &mockOpenSlotRepo{}, validator.New(), zap.NewNop())

	_, err := service.PublicProfile(context.Background(), "nobody", "")
	assertErrorCode(t, err, appErrors.ErrNotFound.Code)
}

func TestRenderSlotsOwnerZoneFallback(t *testing.T) {
	slots := []models.Timeslot{
		{ID: "slot-1", DayOfWeek: 1, StartMinutes: 600, EndMinutes: 660, Format: models.LessonOnline},
	}
	views, err := RenderSlots(slots, "America/New_York", "", time.Date(2026, time.January, 7, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, 1, views[0].DayOfWeek)
	assert.Equal(t, 600, views[0].StartMinutes)
	assert.Equal(t, 660, views[0].EndMinutes)
	assert.Equal(t, "America/New_York", views[0].Timezone)
}

func TestRenderSlotsCrossesMidnight(t *testing.T) {
	slots := []models.Timeslot{
		{ID: "slot-1", DayOfWeek: 1, StartMinutes: 480, EndMinutes: 540, Format: models.LessonOnline},
	}
	// Monday 08:00 Tokyo is Sunday 18:00 New York in winter.
	views, err := RenderSlots(slots, "Asia/Tokyo", "America/New_York", time.Date(2026, time.January, 7, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, 0, views[0].DayOfWeek)
	assert.Equal(t, 1080, views[0].StartMinutes)
}

func TestRenderSlotsEndPastMidnight(t *testing.T) {
	slots := []models.Timeslot{
		{ID: "slot-1", DayOfWeek: 1, StartMinutes: 510, EndMinutes: 570, Format: models.LessonOnline},
	}
	// Monday 08:30 Tokyo is Sunday 23:30 UTC; the end stays anchored to the
	// start day instead of wrapping into Monday.
	views, err := RenderSlots(slots, "Asia/Tokyo", "UTC", time.Date(2026, time.January, 7, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, 0, views[0].DayOfWeek)
	assert.Equal(t, 1410, views[0].StartMinutes)
	assert.Equal(t, 1470, views[0].EndMinutes)
}

func TestRenderSlotsUnknownViewerZone(t *testing.T) {
	_, err := RenderSlots(nil, "America/New_York", "Mars/Olympus", time.Now())
	assertErrorCode(t, err, appErrors.ErrValidation.Code)
}
