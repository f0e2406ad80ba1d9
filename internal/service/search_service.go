package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/seanma333/project-metronome-app-sub000/internal/geocode"
	"github.com/seanma333/project-metronome-app-sub000/internal/models"
	"github.com/seanma333/project-metronome-app-sub000/internal/schedule"
	"github.com/seanma333/project-metronome-app-sub000/pkg/config"
	appErrors "github.com/seanma333/project-metronome-app-sub000/pkg/errors"
)

type searchTeacherRepository interface {
	SearchCandidates(ctx context.Context, instrumentID string) ([]models.TeacherSearchResult, error)
}

type searchAddressRepository interface {
	FindTeachersNear(ctx context.Context, coord models.Coordinate, radiusMeters float64) ([]models.TeacherSearchResult, error)
}

type searchStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type geocodeLookup interface {
	Lookup(ctx context.Context, query string) (*models.Coordinate, error)
}

// SearchRequest filters teacher discovery. Exactly one of the online and
// in-person modes may be active: MaxHourDiff belongs to online search,
// Location and RadiusKM to in-person.
type SearchRequest struct {
	InstrumentID string               `json:"instrument_id" validate:"required,uuid"`
	Format       *models.LessonFormat `json:"format"`
	StudentID    *string              `json:"student_id" validate:"omitempty,uuid"`
	MaxHourDiff  *int                 `json:"max_hour_diff" validate:"omitempty,min=0,max=12"`
	Location     *string              `json:"location" validate:"omitempty,max=300"`
	RadiusKM     *float64             `json:"radius_km" validate:"omitempty,gt=0"`
}

func (r SearchRequest) online() bool {
	return r.MaxHourDiff != nil
}

func (r SearchRequest) inPerson() bool {
	return r.Location != nil
}

// SearchService runs teacher discovery. Results are cached briefly since
// search is the hottest read path and tolerates slight staleness.
type SearchService struct {
	teachers  searchTeacherRepository
	addresses searchAddressRepository
	students  searchStudentRepository
	geocoder  geocodeLookup
	cache     *CacheService
	config    config.SearchConfig
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewSearchService constructs a SearchService.
func NewSearchService(teachers searchTeacherRepository, addresses searchAddressRepository, students searchStudentRepository, geocoder geocodeLookup, cache *CacheService, cfg config.SearchConfig, validate *validator.Validate, logger *zap.Logger) *SearchService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchService{
		teachers:  teachers,
		addresses: addresses,
		students:  students,
		geocoder:  geocoder,
		cache:     cache,
		config:    cfg,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Search returns accepting teachers matching the filters, rendered for the
// given caller. Online results sort by timezone distance, in-person results
// by geographic distance.
func (s *SearchService) Search(ctx context.Context, caller *models.User, req SearchRequest) ([]models.TeacherSearchResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid search payload")
	}
	if req.online() && req.inPerson() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "online and in-person filters are mutually exclusive")
	}
	if req.Format != nil && !req.Format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown lesson format")
	}
	if req.inPerson() && req.RadiusKM != nil && *req.RadiusKM > s.config.MaxRadiusKM {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("radius exceeds %.0f km", s.config.MaxRadiusKM))
	}

	key := s.cacheKey(caller, req)
	if s.cache != nil && s.cache.Enabled() {
		var cached []models.TeacherSearchResult
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}

	results, err := s.search(ctx, caller, req)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.cache.Enabled() {
		if err := s.cache.Set(ctx, key, results, s.config.CacheTTL); err != nil {
			s.logger.Warn("failed to cache search results", zap.Error(err))
		}
	}
	return results, nil
}

func (s *SearchService) search(ctx context.Context, caller *models.User, req SearchRequest) ([]models.TeacherSearchResult, error) {
	candidates, err := s.teachers.SearchCandidates(ctx, req.InstrumentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search teachers")
	}

	var studentAge *int
	if req.StudentID != nil {
		student, err := s.students.FindByID(ctx, *req.StudentID)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		if !student.OwnedBy(caller.ID) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "student not owned by caller")
		}
		age := student.Age(s.now().Year())
		studentAge = &age
	}

	filtered := candidates[:0]
	for _, c := range candidates {
		if req.Format != nil && !c.Format.Allows(*req.Format) {
			continue
		}
		if studentAge != nil && !c.AgePreference.Accepts(*studentAge) {
			continue
		}
		filtered = append(filtered, c)
	}

	switch {
	case req.inPerson():
		return s.filterInPerson(ctx, filtered, req)
	case req.online():
		return s.filterOnline(caller, filtered, req)
	}
	return filtered, nil
}

// filterOnline keeps teachers whose timezone is within the allowed wall
// clock distance of the caller's and sorts by that distance.
func (s *SearchService) filterOnline(caller *models.User, candidates []models.TeacherSearchResult, req SearchRequest) ([]models.TeacherSearchResult, error) {
	callerZone, err := schedule.LoadZone(caller.Timezone)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "invalid caller timezone")
	}

	maxDiff := s.config.MaxHourDiff
	if req.MaxHourDiff != nil {
		maxDiff = *req.MaxHourDiff
	}

	at := s.now()
	out := make([]models.TeacherSearchResult, 0, len(candidates))
	for _, c := range candidates {
		loc, err := schedule.LoadZone(c.Timezone)
		if err != nil {
			continue
		}
		diff := schedule.HourDiff(callerZone, loc, at)
		if diff > maxDiff {
			continue
		}
		c.HourDiff = &diff
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return *out[i].HourDiff < *out[j].HourDiff })
	return out, nil
}

// filterInPerson geocodes the requested location and intersects the
// instrument candidates with teachers inside the radius.
func (s *SearchService) filterInPerson(ctx context.Context, candidates []models.TeacherSearchResult, req SearchRequest) ([]models.TeacherSearchResult, error) {
	coord, err := s.geocoder.Lookup(ctx, *req.Location)
	if err != nil {
		return nil, err
	}

	radiusKM := s.config.DefaultRadiusKM
	if req.RadiusKM != nil {
		radiusKM = *req.RadiusKM
	}

	nearby, err := s.addresses.FindTeachersNear(ctx, *coord, radiusKM*1000)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search nearby teachers")
	}

	byID := make(map[string]models.TeacherSearchResult, len(candidates))
	for _, c := range candidates {
		byID[c.UserID] = c
	}

	out := make([]models.TeacherSearchResult, 0, len(nearby))
	for _, n := range nearby {
		c, ok := byID[n.UserID]
		if !ok || !c.Format.Allows(models.LessonInPerson) {
			continue
		}
		c.DistanceKM = n.DistanceKM
		out = append(out, c)
	}
	return out, nil
}

func (s *SearchService) cacheKey(caller *models.User, req SearchRequest) string {
	deref := func(v interface{}) string {
		switch p := v.(type) {
		case *models.LessonFormat:
			if p != nil {
				return string(*p)
			}
		case *string:
			if p != nil {
				return *p
			}
		case *int:
			if p != nil {
				return fmt.Sprintf("%d", *p)
			}
		case *float64:
			if p != nil {
				return fmt.Sprintf("%g", *p)
			}
		}
		return ""
	}
	raw := fmt.Sprintf("%s|%s|%s|%s|%s|%s|%s",
		req.InstrumentID, caller.Timezone,
		deref(req.Format), deref(req.StudentID), deref(req.MaxHourDiff),
		deref(req.Location), deref(req.RadiusKM))
	sum := sha256.Sum256([]byte(raw))
	return "search:" + hex.EncodeToString(sum[:8])
}

var _ geocodeLookup = (*geocode.Client)(nil)
