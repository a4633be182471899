package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dimasfarhan/ppl-placement-api/internal/models"
	"github.com/dimasfarhan/ppl-placement-api/pkg/config"
	appErrors "github.com/dimasfarhan/ppl-placement-api/pkg/errors"
	"github.com/dimasfarhan/ppl-placement-api/pkg/export"
)

type certificateRepo interface {
	FindByID(ctx context.Context, id string) (*models.Certificate, error)
	FindDetailByID(ctx context.Context, id string) (*models.CertificateDetail, error)
	FindByPlacement(ctx context.Context, placementID string) (*models.Certificate, error)
	List(ctx context.Context, filter models.CertificateFilter) ([]models.CertificateDetail, int, error)
	Create(ctx context.Context, certificate *models.Certificate) error
	Update(ctx context.Context, certificate *models.Certificate) error
}

type certificatePlacementReader interface {
	FindByID(ctx context.Context, id string) (*models.Placement, error)
}

type finalAssessmentReader interface {
	FindByPlacementAndType(ctx context.Context, placementID string, typ models.AssessmentType) (*models.Assessment, error)
}

type certificateRenderer interface {
	RenderCertificate(doc export.CertificateDocument) ([]byte, error)
}

// NewCertificateNumber generates a human-readable certificate number such as
// PPL-2026-4F2A91C0, backed by a UUID for uniqueness.
func NewCertificateNumber(prefix string) string {
	if prefix == "" {
		prefix = "PPL"
	}
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UTC().Year(), suffix)
}

// CertificateService issues, revokes and renders completion certificates.
type CertificateService struct {
	certificates certificateRepo
	placements   certificatePlacementReader
	assessments  finalAssessmentReader
	renderer     certificateRenderer
	cfg          config.CertificatesConfig
	logger       *zap.Logger
}

// NewCertificateService constructs CertificateService.
func NewCertificateService(certificates certificateRepo, placements certificatePlacementReader, assessments finalAssessmentReader, renderer certificateRenderer, cfg config.CertificatesConfig, logger *zap.Logger) *CertificateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CertificateService{
		certificates: certificates,
		placements:   placements,
		assessments:  assessments,
		renderer:     renderer,
		cfg:          cfg,
		logger:       logger,
	}
}

// IssueForPlacement issues the certificate of a completed placement, creating
// the record if the final submission did not seed one. Placements in any
// other state fail the precondition.
func (s *CertificateService) IssueForPlacement(ctx context.Context, placementID string) (*models.CertificateDetail, error) {
	placement, err := s.placements.FindByID(ctx, placementID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "placement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load placement")
	}
	if placement.Status != models.PlacementStatusCompleted {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "placement is not completed")
	}

	certificate, err := s.certificates.FindByPlacement(ctx, placementID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certificate")
		}
		certificate = &models.Certificate{
			PlacementID:       placementID,
			CertificateNumber: NewCertificateNumber(s.cfg.NumberPrefix),
			Status:            models.CertificateStatusPending,
		}
		if err := s.certificates.Create(ctx, certificate); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create certificate")
		}
	}
	return s.issue(ctx, certificate)
}

// Issue marks a pending certificate as issued. Revoked certificates go
// through Reissue so they get a fresh number.
func (s *CertificateService) Issue(ctx context.Context, id string) (*models.CertificateDetail, error) {
	certificate, err := s.loadCertificate(ctx, id)
	if err != nil {
		return nil, err
	}
	if certificate.Status != models.CertificateStatusPending {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "only pending certificates can be issued")
	}
	placement, err := s.placements.FindByID(ctx, certificate.PlacementID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load placement")
	}
	if placement.Status != models.PlacementStatusCompleted {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "placement is not completed")
	}
	return s.issue(ctx, certificate)
}

// Revoke withdraws an issued certificate.
func (s *CertificateService) Revoke(ctx context.Context, id string) (*models.CertificateDetail, error) {
	certificate, err := s.loadCertificate(ctx, id)
	if err != nil {
		return nil, err
	}
	if certificate.Status != models.CertificateStatusIssued {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "only issued certificates can be revoked")
	}
	certificate.Status = models.CertificateStatusRevoked
	if err := s.certificates.Update(ctx, certificate); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke certificate")
	}
	s.logger.Info("certificate revoked", zap.String("certificate_id", id))
	return s.loadDetail(ctx, id)
}

// Reissue replaces the number on a revoked certificate and issues it again.
func (s *CertificateService) Reissue(ctx context.Context, id string) (*models.CertificateDetail, error) {
	certificate, err := s.loadCertificate(ctx, id)
	if err != nil {
		return nil, err
	}
	if certificate.Status != models.CertificateStatusRevoked {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "only revoked certificates can be reissued")
	}
	certificate.CertificateNumber = NewCertificateNumber(s.cfg.NumberPrefix)
	return s.issue(ctx, certificate)
}

// Get returns a certificate with context.
func (s *CertificateService) Get(ctx context.Context, id string) (*models.CertificateDetail, error) {
	return s.loadDetail(ctx, id)
}

// List returns certificates with pagination metadata.
func (s *CertificateService) List(ctx context.Context, filter models.CertificateFilter) ([]models.CertificateDetail, *models.Pagination, error) {
	certificates, total, err := s.certificates.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list certificates")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return certificates, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Download renders the certificate PDF. Only issued certificates can be
// downloaded, and students may only download their own.
func (s *CertificateService) Download(ctx context.Context, id, studentID string) ([]byte, string, error) {
	detail, err := s.loadDetail(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if studentID != "" && detail.StudentID != studentID {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "certificate belongs to another student")
	}
	if detail.Status != models.CertificateStatusIssued {
		return nil, "", appErrors.Clone(appErrors.ErrPreconditionFailed, "certificate is not issued")
	}

	doc := export.CertificateDocument{
		CertificateNumber: detail.CertificateNumber,
		StudentName:       detail.StudentName,
		StudentNumber:     detail.StudentNumber,
		LocationName:      detail.LocationName,
		PeriodName:        detail.PeriodName,
	}
	if detail.Major != nil {
		doc.Major = *detail.Major
	}
	if detail.SupervisorName != nil {
		doc.SupervisorName = *detail.SupervisorName
	}
	if detail.IssueDate != nil {
		doc.IssueDate = detail.IssueDate.Format("2 January 2006")
	}
	final, err := s.assessments.FindByPlacementAndType(ctx, detail.PlacementID, models.AssessmentTypeFinal)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load final assessment")
	}
	if final != nil {
		doc.FinalGrade = final.OverallPerformance
	}

	content, err := s.renderer.RenderCertificate(doc)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render certificate")
	}
	filename := fmt.Sprintf("certificate-%s.pdf", detail.CertificateNumber)
	return content, filename, nil
}

// ExportDataset flattens certificates for CSV export.
func (s *CertificateService) ExportDataset(ctx context.Context, filter models.CertificateFilter) (export.Dataset, error) {
	filter.Page = 1
	filter.PageSize = 100
	certificates, _, err := s.certificates.List(ctx, filter)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export certificates")
	}
	dataset := export.Dataset{
		Headers: []string{"Certificate Number", "Student", "Student Number", "Location", "Period", "Status", "Issue Date"},
	}
	for _, certificate := range certificates {
		issued := ""
		if certificate.IssueDate != nil {
			issued = certificate.IssueDate.Format("2006-01-02")
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Certificate Number": certificate.CertificateNumber,
			"Student":            certificate.StudentName,
			"Student Number":     certificate.StudentNumber,
			"Location":           certificate.LocationName,
			"Period":             certificate.PeriodName,
			"Status":             string(certificate.Status),
			"Issue Date":         issued,
		})
	}
	return dataset, nil
}

func (s *CertificateService) issue(ctx context.Context, certificate *models.Certificate) (*models.CertificateDetail, error) {
	now := time.Now().UTC()
	certificate.Status = models.CertificateStatusIssued
	certificate.IssueDate = &now
	if s.cfg.DownloadBaseURL != "" {
		url := fmt.Sprintf("%s/%s/download", strings.TrimRight(s.cfg.DownloadBaseURL, "/"), certificate.ID)
		certificate.DownloadURL = &url
	}
	if err := s.certificates.Update(ctx, certificate); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue certificate")
	}
	s.logger.Info("certificate issued",
		zap.String("certificate_id", certificate.ID),
		zap.String("certificate_number", certificate.CertificateNumber))
	return s.loadDetail(ctx, certificate.ID)
}

func (s *CertificateService) loadCertificate(ctx context.Context, id string) (*models.Certificate, error) {
	certificate, err := s.certificates.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "certificate not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certificate")
	}
	return certificate, nil
}

func (s *CertificateService) loadDetail(ctx context.Context, id string) (*models.CertificateDetail, error) {
	detail, err := s.certificates.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "certificate not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certificate")
	}
	return detail, nil
}
