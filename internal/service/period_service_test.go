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

	"github.com/dimasfarhan/ppl-placement-api/internal/models"
	appErrors "github.com/dimasfarhan/ppl-placement-api/pkg/errors"
)

type mockPeriodRepo struct {
	periods map[string]models.Period
	created *models.Period
}

func (m *mockPeriodRepo) FindByID(ctx context.Context, id string) (*models.Period, error) {
	if p, ok := m.periods[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPeriodRepo) List(ctx context.Context, filter models.PeriodFilter) ([]models.Period, int, error) {
	return nil, 0, nil
}

func (m *mockPeriodRepo) Create(ctx context.Context, period *models.Period) error {
	if m.periods == nil {
		m.periods = make(map[string]models.Period)
	}
	if period.ID == "" {
		period.ID = "new-period"
	}
	m.periods[period.ID] = *period
	m.created = period
	return nil
}

func (m *mockPeriodRepo) Update(ctx context.Context, period *models.Period) error {
	m.periods[period.ID] = *period
	return nil
}

func TestPeriodServiceCreate(t *testing.T) {
	repo := &mockPeriodRepo{}
	svc := NewPeriodService(repo, validator.New(), zap.NewNop())

	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	period, err := svc.Create(context.Background(), PeriodRequest{Name: "2026 Even Semester", StartDate: start, EndDate: start.AddDate(0, 4, 0)})
	require.NoError(t, err)
	assert.Equal(t, models.PeriodStatusUpcoming, period.Status)
}

func TestPeriodServiceCreateInvertedDates(t *testing.T) {
	svc := NewPeriodService(&mockPeriodRepo{}, validator.New(), zap.NewNop())

	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.Create(context.Background(), PeriodRequest{Name: "Bad", StartDate: start, EndDate: start.AddDate(0, -1, 0)})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPeriodServiceUpdateCompletedCannotReopen(t *testing.T) {
	start := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	repo := &mockPeriodRepo{periods: map[string]models.Period{"p1": {ID: "p1", Name: "2025 Odd Semester", StartDate: start, EndDate: start.AddDate(0, 4, 0), Status: models.PeriodStatusCompleted}}}
	svc := NewPeriodService(repo, validator.New(), zap.NewNop())

	_, err := svc.Update(context.Background(), "p1", PeriodRequest{Name: "2025 Odd Semester", StartDate: start, EndDate: start.AddDate(0, 5, 0), Status: models.PeriodStatusActive})
	assert.Equal(t, appErrors.ErrNotEligible.Code, appErrors.FromError(err).Code)
}

func TestPeriodServiceUpdateActivate(t *testing.T) {
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	repo := &mockPeriodRepo{periods: map[string]models.Period{"p1": {ID: "p1", Name: "2026 Even Semester", StartDate: start, EndDate: start.AddDate(0, 4, 0), Status: models.PeriodStatusUpcoming}}}
	svc := NewPeriodService(repo, validator.New(), zap.NewNop())

	period, err := svc.Update(context.Background(), "p1", PeriodRequest{Name: "2026 Even Semester", StartDate: start, EndDate: start.AddDate(0, 4, 0), Status: models.PeriodStatusActive})
	require.NoError(t, err)
	assert.Equal(t, models.PeriodStatusActive, period.Status)
}
