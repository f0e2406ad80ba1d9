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

type mockAddressRepo struct {
	items          map[string]*models.Address
	formattedIndex map[string]string
	links          map[string][]string
	coordsSet      []string
}

func (m *mockAddressRepo) FindByID(ctx context.Context, id string) (*models.Address, error) {
	if address, ok := m.items[id]; ok {
		cp := *address
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAddressRepo) FindByFormatted(ctx context.Context, formatted string) (*models.Address, error) {
	if id, ok := m.formattedIndex[formatted]; ok {
		return m.FindByID(ctx, id)
	}
	return nil, sql.ErrNoRows
}

func (m *mockAddressRepo) ListByUser(ctx context.Context, userID string) ([]models.Address, error) {
	var out []models.Address
	for _, id := range m.links[userID] {
		if address, ok := m.items[id]; ok {
			out = append(out, *address)
		}
	}
	return out, nil
}

func (m *mockAddressRepo) Create(ctx context.Context, address *models.Address) error {
	if address.ID == "" {
		address.ID = "generated"
	}
	if m.items == nil {
		m.items = make(map[string]*models.Address)
	}
	if m.formattedIndex == nil {
		m.formattedIndex = make(map[string]string)
	}
	cp := *address
	m.items[address.ID] = &cp
	m.formattedIndex[address.Formatted] = address.ID
	return nil
}

func (m *mockAddressRepo) SetCoordinate(ctx context.Context, id string, coord models.Coordinate) error {
	m.coordsSet = append(m.coordsSet, id)
	if address, ok := m.items[id]; ok {
		address.Latitude = &coord.Latitude
		address.Longitude = &coord.Longitude
	}
	return nil
}

func (m *mockAddressRepo) Link(ctx context.Context, userID, addressID string) error {
	if m.links == nil {
		m.links = make(map[string][]string)
	}
	for _, id := range m.links[userID] {
		if id == addressID {
			return nil
		}
	}
	m.links[userID] = append(m.links[userID], addressID)
	return nil
}

func (m *mockAddressRepo) Unlink(ctx context.Context, userID, addressID string) (bool, error) {
	ids := m.links[userID]
	for i, id := range ids {
		if id == addressID {
			m.links[userID] = append(ids[:i], ids[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAddressRepo) OwnedBy(ctx context.Context, userID, addressID string) (bool, error) {
	for _, id := range m.links[userID] {
		if id == addressID {
			return true, nil
		}
	}
	return false, nil
}

func TestAddressServiceAddGeocodes(t *testing.T) {
	repo := &mockAddressRepo{}
	geocoder := &mockGeocoder{coord: &models.Coordinate{Latitude: 40.75, Longitude: -73.99}}
	service := NewAddressService(repo, geocoder, validator.New(), zap.NewNop())

	address, err := service.Add(context.Background(), "user-1", AddAddressRequest{
		Formatted: "  350 5th Ave,   New York  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "350 5th ave, new york", address.Formatted)
	require.NotNil(t, address.Latitude)
	assert.InDelta(t, 40.75, *address.Latitude, 0.001)
	assert.Equal(t, []string{address.ID}, repo.links["user-1"])
}

func TestAddressServiceAddDeduplicates(t *testing.T) {
	repo := &mockAddressRepo{}
	geocoder := &mockGeocoder{coord: &models.Coordinate{Latitude: 40.75, Longitude: -73.99}}
	service := NewAddressService(repo, geocoder, validator.New(), zap.NewNop())

	first, err := service.Add(context.Background(), "user-1", AddAddressRequest{Formatted: "350 5th Ave, New York"})
	require.NoError(t, err)
	second, err := service.Add(context.Background(), "user-2", AddAddressRequest{Formatted: "350 5TH AVE,  NEW YORK"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.items, 1)
	assert.Len(t, geocoder.lookups, 1)
}

func TestAddressServiceAddSurvivesGeocoderOutage(t *testing.T) {
	repo := &mockAddressRepo{}
	service := NewAddressService(repo, &mockGeocoder{}, validator.New(), zap.NewNop())

	address, err := service.Add(context.Background(), "user-1", AddAddressRequest{Formatted: "350 5th Ave"})
	require.NoError(t, err)
	assert.Nil(t, address.Latitude)
	assert.False(t, address.Geocoded())
}

func TestAddressServiceListBackfillsCoordinates(t *testing.T) {
	repo := &mockAddressRepo{
		items: map[string]*models.Address{
			"addr-1": {ID: "addr-1", Formatted: "350 5th ave"},
		},
		links: map[string][]string{"user-1": {"addr-1"}},
	}
	geocoder := &mockGeocoder{coord: &models.Coordinate{Latitude: 40.75, Longitude: -73.99}}
	service := NewAddressService(repo, geocoder, validator.New(), zap.NewNop())

	addresses, err := service.List(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, addresses, 1)
	assert.True(t, addresses[0].Geocoded())
	assert.Equal(t, []string{"addr-1"}, repo.coordsSet)
}

func TestAddressServiceRemove(t *testing.T) {
	repo := &mockAddressRepo{
		items: map[string]*models.Address{
			"addr-1": {ID: "addr-1", Formatted: "350 5th ave"},
		},
		links: map[string][]string{"user-1": {"addr-1"}},
	}
	service := NewAddressService(repo, &mockGeocoder{}, validator.New(), zap.NewNop())

	require.NoError(t, service.Remove(context.Background(), "user-1", "addr-1"))
	assert.Empty(t, repo.links["user-1"])
	// The shared row itself stays.
	assert.Len(t, repo.items, 1)
}

func TestAddressServiceRemoveNotLinked(t *testing.T) {
	repo := &mockAddressRepo{
		items: map[string]*models.Address{
			"addr-1": {ID: "addr-1", Formatted: "350 5th ave"},
		},
	}
	service := NewAddressService(repo, &mockGeocoder{}, validator.New(), zap.NewNop())

	err := service.Remove(context.Background(), "user-1", "addr-1")
	assertErrorCode(t, err, appErrors.ErrNotFound.Code)
}
