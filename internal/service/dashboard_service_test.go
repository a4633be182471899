package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dimasfarhan/ppl-placement-api/internal/models"
	appErrors "github.com/dimasfarhan/ppl-placement-api/pkg/errors"
)

type memoryCacheRepo struct {
	entries map[string][]byte
	gets    int
	sets    int
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.gets++
	payload, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.sets++
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.entries == nil {
		m.entries = make(map[string][]byte)
	}
	m.entries[key] = payload
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.entries = nil
	return nil
}

type mockStatsRepo struct {
	stats models.AdminStats
	calls int
}

func (m *mockStatsRepo) AdminStats(ctx context.Context) (*models.AdminStats, error) {
	m.calls++
	stats := m.stats
	return &stats, nil
}

type mockRegistrationLister struct {
	registrations []models.RegistrationDetail
}

func (m *mockRegistrationLister) List(ctx context.Context, filter models.RegistrationFilter) ([]models.RegistrationDetail, int, error) {
	return m.registrations, len(m.registrations), nil
}

type mockPlacementLister struct {
	placements []models.PlacementDetail
	filters    []models.PlacementFilter
}

func (m *mockPlacementLister) List(ctx context.Context, filter models.PlacementFilter) ([]models.PlacementDetail, int, error) {
	m.filters = append(m.filters, filter)
	return m.placements, len(m.placements), nil
}

type mockAssessmentLister struct {
	assessments []models.AssessmentDetail
	counts      map[models.AssessmentStatus]int
}

func (m *mockAssessmentLister) List(ctx context.Context, filter models.AssessmentFilter) ([]models.AssessmentDetail, int, error) {
	if filter.Status != "" {
		return nil, m.counts[filter.Status], nil
	}
	return m.assessments, len(m.assessments), nil
}

type mockCertificateLister struct {
	certificates []models.CertificateDetail
}

func (m *mockCertificateLister) List(ctx context.Context, filter models.CertificateFilter) ([]models.CertificateDetail, int, error) {
	return m.certificates, len(m.certificates), nil
}

func newDashboardFixture(stats *mockStatsRepo, cacheRepo *memoryCacheRepo) *DashboardService {
	cache := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), cacheRepo != nil)
	registrations := &mockRegistrationLister{registrations: []models.RegistrationDetail{
		{Registration: models.Registration{ID: "r1", StudentID: "s1", Status: models.RegistrationStatusApproved}},
	}}
	placements := &mockPlacementLister{placements: []models.PlacementDetail{
		{Placement: models.Placement{ID: "p1", Status: models.PlacementStatusActive, Progress: 50}},
	}}
	assessments := &mockAssessmentLister{
		assessments: []models.AssessmentDetail{{Assessment: models.Assessment{ID: "a1", PlacementID: "p1", Type: models.AssessmentTypeMidterm}}},
		counts:      map[models.AssessmentStatus]int{models.AssessmentStatusDraft: 2, models.AssessmentStatusSubmitted: 5},
	}
	certificates := &mockCertificateLister{certificates: []models.CertificateDetail{
		{Certificate: models.Certificate{ID: "c1", Status: models.CertificateStatusIssued}},
	}}
	return NewDashboardService(stats, registrations, placements, assessments, certificates, cache, time.Minute, zap.NewNop())
}

func TestDashboardServiceAdminStatsCached(t *testing.T) {
	stats := &mockStatsRepo{stats: models.AdminStats{TotalStudents: 40, ActivePlacements: 12}}
	cacheRepo := &memoryCacheRepo{}
	svc := newDashboardFixture(stats, cacheRepo)

	first, err := svc.AdminStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 40, first.TotalStudents)
	assert.Equal(t, 1, stats.calls)
	assert.Equal(t, 1, cacheRepo.sets)

	second, err := svc.AdminStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, second.ActivePlacements)
	assert.Equal(t, 1, stats.calls)
}

func TestDashboardServiceAdminStatsInvalidation(t *testing.T) {
	stats := &mockStatsRepo{stats: models.AdminStats{TotalStudents: 40}}
	cacheRepo := &memoryCacheRepo{}
	svc := newDashboardFixture(stats, cacheRepo)

	_, err := svc.AdminStats(context.Background())
	require.NoError(t, err)

	svc.InvalidateAdminStats(context.Background())

	_, err = svc.AdminStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.calls)
}

func TestDashboardServiceAdminStatsWithoutCache(t *testing.T) {
	stats := &mockStatsRepo{stats: models.AdminStats{TotalStudents: 40}}
	svc := newDashboardFixture(stats, nil)

	_, err := svc.AdminStats(context.Background())
	require.NoError(t, err)
	_, err = svc.AdminStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.calls)
}

func TestDashboardServiceStudentDashboard(t *testing.T) {
	svc := newDashboardFixture(&mockStatsRepo{}, nil)

	dashboard, err := svc.StudentDashboard(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, dashboard.Registration)
	require.NotNil(t, dashboard.Placement)
	assert.Len(t, dashboard.Assessments, 1)
	require.NotNil(t, dashboard.Certificate)
}

func TestDashboardServiceSupervisorDashboard(t *testing.T) {
	svc := newDashboardFixture(&mockStatsRepo{}, nil)

	dashboard, err := svc.SupervisorDashboard(context.Background(), "sup1")
	require.NoError(t, err)
	assert.Len(t, dashboard.Placements, 1)
	assert.Equal(t, 2, dashboard.PendingAssessments)
	assert.Equal(t, 5, dashboard.SubmittedAssessments)
}
