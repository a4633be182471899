package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/dimasfarhan/ppl-placement-api/internal/models"
	appErrors "github.com/dimasfarhan/ppl-placement-api/pkg/errors"
	"github.com/dimasfarhan/ppl-placement-api/pkg/export"
)

type registrationRepo interface {
	FindByID(ctx context.Context, id string) (*models.Registration, error)
	FindDetailByID(ctx context.Context, id string) (*models.RegistrationDetail, error)
	ExistsOpen(ctx context.Context, studentID, periodID string) (bool, error)
	List(ctx context.Context, filter models.RegistrationFilter) ([]models.RegistrationDetail, int, error)
	Create(ctx context.Context, registration *models.Registration) error
	UpdateDocuments(ctx context.Context, registration *models.Registration) error
	UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus) error
}

type periodReader interface {
	FindByID(ctx context.Context, id string) (*models.Period, error)
}

type placementExistenceChecker interface {
	ExistsForRegistration(ctx context.Context, registrationID string) (bool, error)
}

// CreateRegistrationRequest is a student's application to a period.
type CreateRegistrationRequest struct {
	PeriodID               string `json:"period_id" validate:"required"`
	TranscriptUploaded     bool   `json:"transcript_uploaded"`
	IDCardUploaded         bool   `json:"id_card_uploaded"`
	PhotoUploaded          bool   `json:"photo_uploaded"`
	RecommendationUploaded bool   `json:"recommendation_uploaded"`
	AgreementAccepted      bool   `json:"agreement_accepted"`
}

// UpdateDocumentsRequest updates the upload flags on a pending registration.
type UpdateDocumentsRequest struct {
	TranscriptUploaded     *bool `json:"transcript_uploaded"`
	IDCardUploaded         *bool `json:"id_card_uploaded"`
	PhotoUploaded          *bool `json:"photo_uploaded"`
	RecommendationUploaded *bool `json:"recommendation_uploaded"`
	AgreementAccepted      *bool `json:"agreement_accepted"`
}

// RegistrationService owns the registration leg of the placement lifecycle.
type RegistrationService struct {
	registrations registrationRepo
	periods       periodReader
	placements    placementExistenceChecker
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewRegistrationService constructs RegistrationService.
func NewRegistrationService(registrations registrationRepo, periods periodReader, placements placementExistenceChecker, validate *validator.Validate, logger *zap.Logger) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{
		registrations: registrations,
		periods:       periods,
		placements:    placements,
		validator:     validate,
		logger:        logger,
	}
}

// Create registers a student for a period.
func (s *RegistrationService) Create(ctx context.Context, studentID string, req CreateRegistrationRequest) (*models.RegistrationDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	period, err := s.periods.FindByID(ctx, req.PeriodID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period")
	}
	if period.Status == models.PeriodStatusCompleted {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "period already completed")
	}
	open, err := s.registrations.ExistsOpen(ctx, studentID, req.PeriodID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing registration")
	}
	if open {
		return nil, appErrors.Clone(appErrors.ErrConflict, "registration already exists for this period")
	}

	registration := &models.Registration{
		StudentID:              studentID,
		PeriodID:               req.PeriodID,
		Status:                 models.RegistrationStatusPending,
		TranscriptUploaded:     req.TranscriptUploaded,
		IDCardUploaded:         req.IDCardUploaded,
		PhotoUploaded:          req.PhotoUploaded,
		RecommendationUploaded: req.RecommendationUploaded,
		AgreementAccepted:      req.AgreementAccepted,
	}
	if err := s.registrations.Create(ctx, registration); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create registration")
	}
	s.logger.Info("registration created",
		zap.String("registration_id", registration.ID),
		zap.String("student_id", studentID),
		zap.String("period_id", req.PeriodID))
	return s.loadDetail(ctx, registration.ID)
}

// UpdateDocuments updates upload flags on a student's own pending registration.
func (s *RegistrationService) UpdateDocuments(ctx context.Context, id, studentID string, req UpdateDocumentsRequest) (*models.RegistrationDetail, error) {
	registration, err := s.registrations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}
	if studentID != "" && registration.StudentID != studentID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "registration belongs to another student")
	}
	if registration.Status != models.RegistrationStatusPending {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "documents can only change while pending")
	}

	if req.TranscriptUploaded != nil {
		registration.TranscriptUploaded = *req.TranscriptUploaded
	}
	if req.IDCardUploaded != nil {
		registration.IDCardUploaded = *req.IDCardUploaded
	}
	if req.PhotoUploaded != nil {
		registration.PhotoUploaded = *req.PhotoUploaded
	}
	if req.RecommendationUploaded != nil {
		registration.RecommendationUploaded = *req.RecommendationUploaded
	}
	if req.AgreementAccepted != nil {
		registration.AgreementAccepted = *req.AgreementAccepted
	}
	if err := s.registrations.UpdateDocuments(ctx, registration); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update documents")
	}
	return s.loadDetail(ctx, registration.ID)
}

// Approve transitions a pending registration to approved. All four document
// flags and the signed agreement are required.
func (s *RegistrationService) Approve(ctx context.Context, id string) (*models.RegistrationDetail, error) {
	registration, err := s.registrations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}
	if registration.Status != models.RegistrationStatusPending {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "registration is not pending")
	}
	if !registration.DocumentsComplete() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "registration documents incomplete")
	}
	if err := s.registrations.UpdateStatus(ctx, id, models.RegistrationStatusApproved); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve registration")
	}
	s.logger.Info("registration approved", zap.String("registration_id", id))
	return s.loadDetail(ctx, id)
}

// Reject transitions a pending registration to rejected. Rejection is blocked
// once a placement references the registration.
func (s *RegistrationService) Reject(ctx context.Context, id string) (*models.RegistrationDetail, error) {
	registration, err := s.registrations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}
	if registration.Status != models.RegistrationStatusPending {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "registration is not pending")
	}
	placed, err := s.placements.ExistsForRegistration(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check placements")
	}
	if placed {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "registration already has a placement")
	}
	if err := s.registrations.UpdateStatus(ctx, id, models.RegistrationStatusRejected); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject registration")
	}
	s.logger.Info("registration rejected", zap.String("registration_id", id))
	return s.loadDetail(ctx, id)
}

// Get returns a registration with context.
func (s *RegistrationService) Get(ctx context.Context, id string) (*models.RegistrationDetail, error) {
	return s.loadDetail(ctx, id)
}

// List returns registrations with pagination metadata.
func (s *RegistrationService) List(ctx context.Context, filter models.RegistrationFilter) ([]models.RegistrationDetail, *models.Pagination, error) {
	registrations, total, err := s.registrations.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return registrations, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// ExportDataset flattens registrations for CSV export.
func (s *RegistrationService) ExportDataset(ctx context.Context, filter models.RegistrationFilter) (export.Dataset, error) {
	filter.Page = 1
	filter.PageSize = 100
	registrations, _, err := s.registrations.List(ctx, filter)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export registrations")
	}
	dataset := export.Dataset{
		Headers: []string{"Student", "Student Number", "Period", "Status", "Documents Complete", "Created At"},
	}
	for _, registration := range registrations {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Student":            registration.StudentName,
			"Student Number":     registration.StudentNumber,
			"Period":             registration.PeriodName,
			"Status":             string(registration.Status),
			"Documents Complete": fmt.Sprintf("%t", registration.DocumentsComplete()),
			"Created At":         registration.CreatedAt.Format("2006-01-02"),
		})
	}
	return dataset, nil
}

func (s *RegistrationService) loadDetail(ctx context.Context, id string) (*models.RegistrationDetail, error) {
	detail, err := s.registrations.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}
	return detail, nil
}
