package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/seanma333/project-metronome-app-sub000/internal/models"
	"github.com/seanma333/project-metronome-app-sub000/internal/schedule"
	appErrors "github.com/seanma333/project-metronome-app-sub000/pkg/errors"
)

type identityUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByExternalID(ctx context.Context, externalID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	SetRole(ctx context.Context, id string, role models.UserRole, timezone string) (bool, error)
}

// IdentityConfig describes how provider session tokens are verified.
type IdentityConfig struct {
	TokenSecret string
	Issuer      string
	Leeway      time.Duration
}

// OnboardingRequest completes a user's first login: role and timezone.
type OnboardingRequest struct {
	Role     models.UserRole `json:"role" validate:"required"`
	Timezone string          `json:"timezone" validate:"required"`
	FullName string          `json:"full_name" validate:"omitempty,max=200"`
}

// UpdateProfileRequest updates mutable profile fields.
type UpdateProfileRequest struct {
	FullName *string `json:"full_name" validate:"omitempty,max=200"`
	Timezone *string `json:"timezone"`
}

// IdentityService verifies identity-provider tokens and maps them to
// internal users. Authentication itself lives with the provider; this
// service only mirrors its subjects.
type IdentityService struct {
	repo      identityUserRepository
	validator *validator.Validate
	logger    *zap.Logger
	config    IdentityConfig
}

// NewIdentityService constructs an IdentityService.
func NewIdentityService(repo identityUserRepository, validate *validator.Validate, logger *zap.Logger, config IdentityConfig) *IdentityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdentityService{repo: repo, validator: validate, logger: logger, config: config}
}

// ValidateToken parses and verifies a provider bearer token.
func (s *IdentityService) ValidateToken(tokenString string) (*models.SessionClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithLeeway(s.config.Leeway),
	}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}

	claims := &models.SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.config.TokenSecret), nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid session token")
	}
	if claims.Subject == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session token missing subject")
	}
	return claims, nil
}

// Resolve maps validated claims to the internal user, creating the row on
// first sight of a provider subject.
func (s *IdentityService) Resolve(ctx context.Context, claims *models.SessionClaims) (*models.User, error) {
	user, err := s.repo.FindByExternalID(ctx, claims.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve session")
	}

	user = &models.User{
		ExternalID: claims.Subject,
		Email:      strings.TrimSpace(claims.Email),
		FullName:   strings.TrimSpace(claims.FullName),
		Timezone:   "UTC",
	}
	if err := s.repo.Create(ctx, user); err != nil {
		// A concurrent first login may have inserted the row already.
		if existing, findErr := s.repo.FindByExternalID(ctx, claims.Subject); findErr == nil {
			return existing, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}
	s.logger.Info("bootstrapped user from identity provider", zap.String("user_id", user.ID))
	return user, nil
}

// Get returns a user by internal id.
func (s *IdentityService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// Onboard assigns the user's role and timezone. The role is immutable once
// set; a second attempt returns a conflict.
func (s *IdentityService) Onboard(ctx context.Context, userID string, req OnboardingRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid onboarding payload")
	}
	if !req.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}
	if _, err := schedule.LoadZone(req.Timezone); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown timezone")
	}

	assigned, err := s.repo.SetRole(ctx, userID, req.Role, req.Timezone)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign role")
	}
	if !assigned {
		return nil, appErrors.Clone(appErrors.ErrConflict, "role already assigned")
	}

	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(req.FullName); name != "" && name != user.FullName {
		user.FullName = name
		if err := s.repo.Update(ctx, user); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
		}
	}
	return user, nil
}

// UpdateProfile updates display name and preferred timezone.
func (s *IdentityService) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		if name := strings.TrimSpace(*req.FullName); name != "" {
			user.FullName = name
		}
	}
	if req.Timezone != nil {
		if _, err := schedule.LoadZone(*req.Timezone); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown timezone")
		}
		user.Timezone = *req.Timezone
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	return user, nil
}

// SetAvatar stores the public URL of a validated avatar upload.
func (s *IdentityService) SetAvatar(ctx context.Context, userID, avatarURL string) (*models.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.AvatarURL = &avatarURL
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update avatar")
	}
	return user, nil
}
