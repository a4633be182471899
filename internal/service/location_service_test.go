package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dimasfarhan/ppl-placement-api/internal/models"
	appErrors "github.com/dimasfarhan/ppl-placement-api/pkg/errors"
)

type mockLocationRepo struct {
	locations map[string]models.Location
	occupied  map[string]int
	created   *models.Location
}

func (m *mockLocationRepo) FindByID(ctx context.Context, id string) (*models.Location, error) {
	if l, ok := m.locations[id]; ok {
		return &l, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockLocationRepo) List(ctx context.Context, filter models.LocationFilter) ([]models.Location, int, error) {
	return nil, 0, nil
}

func (m *mockLocationRepo) ListOccupancy(ctx context.Context) ([]models.LocationOccupancy, error) {
	var list []models.LocationOccupancy
	for id, l := range m.locations {
		list = append(list, models.LocationOccupancy{Location: l, ActivePlacements: m.occupied[id]})
	}
	return list, nil
}

func (m *mockLocationRepo) CountActivePlacements(ctx context.Context, locationID string) (int, error) {
	return m.occupied[locationID], nil
}

func (m *mockLocationRepo) Create(ctx context.Context, location *models.Location) error {
	if m.locations == nil {
		m.locations = make(map[string]models.Location)
	}
	if location.ID == "" {
		location.ID = "new-location"
	}
	m.locations[location.ID] = *location
	m.created = location
	return nil
}

func (m *mockLocationRepo) Update(ctx context.Context, location *models.Location) error {
	m.locations[location.ID] = *location
	return nil
}

func validLocationRequest() LocationRequest {
	return LocationRequest{
		Name:          "SMA 1",
		Address:       "Jl. Merdeka 1",
		Capacity:      5,
		ContactPerson: "Budi",
		ContactEmail:  "budi@sma1.sch.id",
		ContactPhone:  "+62-811-000-111",
	}
}

func TestLocationServiceCreateDefaultsActive(t *testing.T) {
	repo := &mockLocationRepo{}
	svc := NewLocationService(repo, validator.New(), zap.NewNop())

	location, err := svc.Create(context.Background(), validLocationRequest())
	require.NoError(t, err)
	assert.Equal(t, models.LocationStatusActive, location.Status)
}

func TestLocationServiceCreateInvalidEmail(t *testing.T) {
	svc := NewLocationService(&mockLocationRepo{}, validator.New(), zap.NewNop())

	req := validLocationRequest()
	req.ContactEmail = "not-an-email"
	_, err := svc.Create(context.Background(), req)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLocationServiceUpdateCapacityBelowOccupancy(t *testing.T) {
	repo := &mockLocationRepo{
		locations: map[string]models.Location{"l1": {ID: "l1", Name: "SMA 1", Capacity: 5, Status: models.LocationStatusActive}},
		occupied:  map[string]int{"l1": 4},
	}
	svc := NewLocationService(repo, validator.New(), zap.NewNop())

	req := validLocationRequest()
	req.Capacity = 3
	_, err := svc.Update(context.Background(), "l1", req)
	assert.Equal(t, appErrors.ErrCapacity.Code, appErrors.FromError(err).Code)
}

func TestLocationServiceUpdate(t *testing.T) {
	repo := &mockLocationRepo{
		locations: map[string]models.Location{"l1": {ID: "l1", Name: "SMA 1", Capacity: 5, Status: models.LocationStatusActive}},
		occupied:  map[string]int{"l1": 2},
	}
	svc := NewLocationService(repo, validator.New(), zap.NewNop())

	req := validLocationRequest()
	req.Capacity = 3
	req.Status = models.LocationStatusInactive
	location, err := svc.Update(context.Background(), "l1", req)
	require.NoError(t, err)
	assert.Equal(t, 3, location.Capacity)
	assert.Equal(t, models.LocationStatusInactive, location.Status)
}

func TestLocationServiceGetMissing(t *testing.T) {
	svc := NewLocationService(&mockLocationRepo{}, validator.New(), zap.NewNop())

	_, err := svc.Get(context.Background(), "missing")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
