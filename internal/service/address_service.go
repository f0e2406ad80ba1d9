package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/seanma333/project-metronome-app-sub000/internal/geocode"
	"github.com/seanma333/project-metronome-app-sub000/internal/models"
	appErrors "github.com/seanma333/project-metronome-app-sub000/pkg/errors"
)

type addressRepository interface {
	FindByID(ctx context.Context, id string) (*models.Address, error)
	FindByFormatted(ctx context.Context, formatted string) (*models.Address, error)
	ListByUser(ctx context.Context, userID string) ([]models.Address, error)
	Create(ctx context.Context, address *models.Address) error
	SetCoordinate(ctx context.Context, id string, coord models.Coordinate) error
	Link(ctx context.Context, userID, addressID string) error
	Unlink(ctx context.Context, userID, addressID string) (bool, error)
	OwnedBy(ctx context.Context, userID, addressID string) (bool, error)
}

// AddAddressRequest attaches an address to the calling user.
type AddAddressRequest struct {
	Formatted  string  `json:"formatted" validate:"required,max=300"`
	PostalCode *string `json:"postal_code" validate:"omitempty,max=20"`
}

// AddressService manages shared geocoded addresses. Rows deduplicate on the
// normalized formatted string so two users at one address share a row, and
// coordinates are filled lazily so a geocoder outage never blocks saving.
type AddressService struct {
	repo      addressRepository
	geocoder  geocodeLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAddressService constructs an AddressService.
func NewAddressService(repo addressRepository, geocoder geocodeLookup, validate *validator.Validate, logger *zap.Logger) *AddressService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AddressService{repo: repo, geocoder: geocoder, validator: validate, logger: logger}
}

// Add links the address to the user, reusing an existing row when the
// normalized formatted string matches one.
func (s *AddressService) Add(ctx context.Context, userID string, req AddAddressRequest) (*models.Address, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid address payload")
	}

	formatted := geocode.NormalizeQuery(req.Formatted)
	if formatted == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "address is empty")
	}

	address, err := s.repo.FindByFormatted(ctx, formatted)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up address")
		}
		raw, _ := json.Marshal(req)
		address = &models.Address{
			Formatted:  formatted,
			RawPayload: raw,
			PostalCode: req.PostalCode,
		}
		if coord, geoErr := s.geocoder.Lookup(ctx, formatted); geoErr == nil {
			address.Latitude = &coord.Latitude
			address.Longitude = &coord.Longitude
		} else {
			s.logger.Warn("geocoding deferred", zap.String("formatted", formatted), zap.Error(geoErr))
		}
		if err := s.repo.Create(ctx, address); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create address")
		}
	}

	if err := s.repo.Link(ctx, userID, address.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to link address")
	}
	return address, nil
}

// List returns the user's addresses, geocoding any row that is still
// missing a coordinate.
func (s *AddressService) List(ctx context.Context, userID string) ([]models.Address, error) {
	addresses, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list addresses")
	}
	for i := range addresses {
		if addresses[i].Geocoded() {
			continue
		}
		if coord, err := s.geocoder.Lookup(ctx, addresses[i].Formatted); err == nil {
			if err := s.repo.SetCoordinate(ctx, addresses[i].ID, *coord); err == nil {
				addresses[i].Latitude = &coord.Latitude
				addresses[i].Longitude = &coord.Longitude
			}
		}
	}
	return addresses, nil
}

// Remove unlinks an address from the user. The shared row stays for any
// other users linked to it.
func (s *AddressService) Remove(ctx context.Context, userID, addressID string) error {
	owned, err := s.repo.OwnedBy(ctx, userID, addressID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check address")
	}
	if !owned {
		return appErrors.Clone(appErrors.ErrNotFound, "address not found")
	}
	unlinked, err := s.repo.Unlink(ctx, userID, addressID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unlink address")
	}
	if !unlinked {
		return appErrors.Clone(appErrors.ErrNotFound, "address not found")
	}
	return nil
}
