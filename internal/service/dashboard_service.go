package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dimasfarhan/ppl-placement-api/internal/models"
	appErrors "github.com/dimasfarhan/ppl-placement-api/pkg/errors"
)

const adminStatsCacheKey = "dashboard:admin:stats"

type adminStatsRepo interface {
	AdminStats(ctx context.Context) (*models.AdminStats, error)
}

type dashboardRegistrationReader interface {
	List(ctx context.Context, filter models.RegistrationFilter) ([]models.RegistrationDetail, int, error)
}

type dashboardPlacementReader interface {
	List(ctx context.Context, filter models.PlacementFilter) ([]models.PlacementDetail, int, error)
}

type dashboardAssessmentReader interface {
	List(ctx context.Context, filter models.AssessmentFilter) ([]models.AssessmentDetail, int, error)
}

type dashboardCertificateReader interface {
	List(ctx context.Context, filter models.CertificateFilter) ([]models.CertificateDetail, int, error)
}

// DashboardService aggregates role-specific overviews. Admin stats are cached
// in Redis since they fan out across every table.
type DashboardService struct {
	stats         adminStatsRepo
	registrations dashboardRegistrationReader
	placements    dashboardPlacementReader
	assessments   dashboardAssessmentReader
	certificates  dashboardCertificateReader
	cache         *CacheService
	cacheTTL      time.Duration
	logger        *zap.Logger
}

// NewDashboardService constructs DashboardService.
func NewDashboardService(stats adminStatsRepo, registrations dashboardRegistrationReader, placements dashboardPlacementReader, assessments dashboardAssessmentReader, certificates dashboardCertificateReader, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		stats:         stats,
		registrations: registrations,
		placements:    placements,
		assessments:   assessments,
		certificates:  certificates,
		cache:         cache,
		cacheTTL:      cacheTTL,
		logger:        logger,
	}
}

// AdminStats returns aggregate counts, served from cache when fresh.
func (s *DashboardService) AdminStats(ctx context.Context) (*models.AdminStats, error) {
	var cached models.AdminStats
	if hit, err := s.cache.Get(ctx, adminStatsCacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	stats, err := s.stats.AdminStats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load admin stats")
	}
	stats.GeneratedAt = time.Now().UTC()
	if err := s.cache.Set(ctx, adminStatsCacheKey, stats, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache admin stats", zap.Error(err))
	}
	return stats, nil
}

// InvalidateAdminStats drops the cached aggregate after lifecycle writes.
func (s *DashboardService) InvalidateAdminStats(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, adminStatsCacheKey); err != nil {
		s.logger.Warn("failed to invalidate admin stats cache", zap.Error(err))
	}
}

// StudentDashboard assembles the student's view: their latest registration,
// placement, its assessments and certificate.
func (s *DashboardService) StudentDashboard(ctx context.Context, studentID string) (*models.StudentDashboard, error) {
	dashboard := &models.StudentDashboard{}

	registrations, _, err := s.registrations.List(ctx, models.RegistrationFilter{
		StudentID: studentID, Page: 1, PageSize: 1, SortBy: "created_at", SortOrder: "desc",
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registrations")
	}
	if len(registrations) > 0 {
		dashboard.Registration = &registrations[0]
	}

	placements, _, err := s.placements.List(ctx, models.PlacementFilter{
		StudentID: studentID, Page: 1, PageSize: 1, SortBy: "created_at", SortOrder: "desc",
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load placements")
	}
	if len(placements) > 0 {
		dashboard.Placement = &placements[0]

		assessments, _, err := s.assessments.List(ctx, models.AssessmentFilter{
			PlacementID: placements[0].ID, Page: 1, PageSize: 10,
		})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessments")
		}
		dashboard.Assessments = assessments
	}

	certificates, _, err := s.certificates.List(ctx, models.CertificateFilter{
		StudentID: studentID, Page: 1, PageSize: 1, SortBy: "created_at", SortOrder: "desc",
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certificates")
	}
	if len(certificates) > 0 {
		dashboard.Certificate = &certificates[0]
	}

	return dashboard, nil
}

// SupervisorDashboard assembles the supervisor's view of assigned placements
// and assessment workload.
func (s *DashboardService) SupervisorDashboard(ctx context.Context, supervisorID string) (*models.SupervisorDashboard, error) {
	placements, _, err := s.placements.List(ctx, models.PlacementFilter{
		SupervisorID: supervisorID, Page: 1, PageSize: 100, SortBy: "created_at", SortOrder: "desc",
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load placements")
	}

	_, drafts, err := s.assessments.List(ctx, models.AssessmentFilter{
		SupervisorID: supervisorID, Status: models.AssessmentStatusDraft, Page: 1, PageSize: 1,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count draft assessments")
	}
	_, submitted, err := s.assessments.List(ctx, models.AssessmentFilter{
		SupervisorID: supervisorID, Status: models.AssessmentStatusSubmitted, Page: 1, PageSize: 1,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count submitted assessments")
	}

	return &models.SupervisorDashboard{
		Placements:           placements,
		PendingAssessments:   drafts,
		SubmittedAssessments: submitted,
	}, nil
}
