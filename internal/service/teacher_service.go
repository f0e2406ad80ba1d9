package service

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/seanma333/project-metronome-app-sub000/internal/models"
	"github.com/seanma333/project-metronome-app-sub000/internal/schedule"
	appErrors "github.com/seanma333/project-metronome-app-sub000/pkg/errors"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type teacherProfileRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.TeacherProfile, error)
	FindBySlug(ctx context.Context, slug string) (*models.TeacherProfile, error)
	ExistsBySlug(ctx context.Context, slug, excludeUserID string) (bool, error)
	Save(ctx context.Context, profile *models.TeacherProfile, instrumentIDs, languageIDs []string) error
	ListInstruments(ctx context.Context, userID string) ([]models.Instrument, error)
	ListLanguages(ctx context.Context, userID string) ([]models.Language, error)
	ListAllInstruments(ctx context.Context) ([]models.Instrument, error)
	ListAllLanguages(ctx context.Context) ([]models.Language, error)
}

type teacherUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type teacherTimeslotRepository interface {
	ListOpenByTeacher(ctx context.Context, teacherID string) ([]models.Timeslot, error)
}

// UpsertTeacherProfileRequest creates or fully replaces a teacher's profile.
type UpsertTeacherProfileRequest struct {
	Slug              string                `json:"slug" validate:"required,min=3,max=64"`
	Bio               *string               `json:"bio" validate:"omitempty,max=4000"`
	AcceptingStudents bool                  `json:"accepting_students"`
	Format            models.TeachingFormat `json:"format" validate:"required"`
	AgePreference     models.AgePreference  `json:"age_preference" validate:"required"`
	InstrumentIDs     []string              `json:"instrument_ids" validate:"required,min=1,dive,uuid"`
	LanguageIDs       []string              `json:"language_ids" validate:"omitempty,dive,uuid"`
}

// TeacherService manages teacher profiles and their public pages.
type TeacherService struct {
	repo      teacherProfileRepository
	users     teacherUserRepository
	timeslots teacherTimeslotRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(repo teacherProfileRepository, users teacherUserRepository, timeslots teacherTimeslotRepository, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, users: users, timeslots: timeslots, validator: validate, logger: logger}
}

// Upsert creates or replaces the caller's teacher profile. The slug must be
// unique across all teachers.
func (s *TeacherService) Upsert(ctx context.Context, userID string, req UpsertTeacherProfileRequest) (*models.TeacherProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if !slugPattern.MatchString(slug) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "slug must be lowercase letters, digits and hyphens")
	}
	if !req.Format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown teaching format")
	}
	if !req.AgePreference.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown age preference")
	}

	taken, err := s.repo.ExistsBySlug(ctx, slug, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check slug")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "slug already in use")
	}

	profile := &models.TeacherProfile{
		UserID:            userID,
		Slug:              slug,
		Bio:               req.Bio,
		AcceptingStudents: req.AcceptingStudents,
		Format:            req.Format,
		AgePreference:     req.AgePreference,
	}
	if err := s.repo.Save(ctx, profile, req.InstrumentIDs, req.LanguageIDs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save profile")
	}

	s.logger.Info("teacher profile saved", zap.String("user_id", userID), zap.String("slug", slug))
	return profile, nil
}

// GetOwn returns the caller's own teacher profile.
func (s *TeacherService) GetOwn(ctx context.Context, userID string) (*models.TeacherProfile, error) {
	profile, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	return profile, nil
}

// PublicProfile returns a teacher's public page by slug, with open slots
// rendered into the viewer's timezone when one is supplied.
func (s *TeacherService) PublicProfile(ctx context.Context, slug, viewerTimezone string) (*models.TeacherPublicProfile, error) {
	profile, err := s.repo.FindBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	user, err := s.users.FindByID(ctx, profile.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher user")
	}

	instruments, err := s.repo.ListInstruments(ctx, profile.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instruments")
	}
	languages, err := s.repo.ListLanguages(ctx, profile.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load languages")
	}
	slots, err := s.timeslots.ListOpenByTeacher(ctx, profile.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}

	views, err := RenderSlots(slots, user.Timezone, viewerTimezone, time.Now())
	if err != nil {
		return nil, err
	}

	return &models.TeacherPublicProfile{
		Profile:     *profile,
		FullName:    user.FullName,
		AvatarURL:   user.AvatarURL,
		Timezone:    user.Timezone,
		Instruments: instruments,
		Languages:   languages,
		OpenSlots:   views,
	}, nil
}

// ListInstruments returns the instrument catalogue.
func (s *TeacherService) ListInstruments(ctx context.Context) ([]models.Instrument, error) {
	instruments, err := s.repo.ListAllInstruments(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instruments")
	}
	return instruments, nil
}

// ListLanguages returns the language catalogue.
func (s *TeacherService) ListLanguages(ctx context.Context) ([]models.Language, error) {
	languages, err := s.repo.ListAllLanguages(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load languages")
	}
	return languages, nil
}

// RenderSlots converts stored slots from the owner's timezone into the
// viewer's. An empty viewer zone renders slots unchanged in the owner zone.
// Rendered minutes count from midnight of the rendered DayOfWeek, so a slot
// that starts before midnight and ends after it keeps EndMinutes past 1440
// rather than wrapping to a second day entry.
func RenderSlots(slots []models.Timeslot, ownerTimezone, viewerTimezone string, ref time.Time) ([]models.TimeslotView, error) {
	target := viewerTimezone
	if target == "" {
		target = ownerTimezone
	}
	from, err := schedule.LoadZone(ownerTimezone)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "invalid stored timezone")
	}
	to, err := schedule.LoadZone(target)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown timezone")
	}

	views := make([]models.TimeslotView, 0, len(slots))
	for _, slot := range slots {
		start := schedule.Convert(schedule.WeeklyTime{DayOfWeek: slot.DayOfWeek, Minutes: slot.StartMinutes}, from, to, ref)
		views = append(views, models.TimeslotView{
			ID:           slot.ID,
			DayOfWeek:    start.DayOfWeek,
			StartMinutes: start.Minutes,
			EndMinutes:   start.Minutes + slot.Duration(),
			Format:       slot.Format,
			IsBooked:     slot.IsBooked,
			Timezone:     target,
		})
	}
	return views, nil
}
