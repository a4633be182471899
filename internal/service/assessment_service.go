package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/dimasfarhan/ppl-placement-api/internal/models"
	"github.com/dimasfarhan/ppl-placement-api/pkg/config"
	appErrors "github.com/dimasfarhan/ppl-placement-api/pkg/errors"
	"github.com/dimasfarhan/ppl-placement-api/pkg/export"
)

const midtermProgress = 50

type assessmentRepo interface {
	FindByID(ctx context.Context, id string) (*models.Assessment, error)
	FindByPlacementAndType(ctx context.Context, placementID string, typ models.AssessmentType) (*models.Assessment, error)
	List(ctx context.Context, filter models.AssessmentFilter) ([]models.AssessmentDetail, int, error)
	Create(ctx context.Context, assessment *models.Assessment) error
	Update(ctx context.Context, assessment *models.Assessment) error
	SubmitFinal(ctx context.Context, assessment *models.Assessment, placement *models.Placement, certificate *models.Certificate) error
	UpdatePlacementProgress(ctx context.Context, placementID string, progress int) error
}

type assessmentPlacementReader interface {
	FindByID(ctx context.Context, id string) (*models.Placement, error)
}

type certificateByPlacementReader interface {
	FindByPlacement(ctx context.Context, placementID string) (*models.Certificate, error)
}

// AssessmentDraftRequest carries the editable content of an assessment.
type AssessmentDraftRequest struct {
	PlacementID         string                `json:"placement_id" validate:"required"`
	Type                models.AssessmentType `json:"type" validate:"required,oneof=MIDTERM FINAL"`
	TeachingSkills      int                   `json:"teaching_skills"`
	ClassroomManagement int                   `json:"classroom_management"`
	LessonPlanning      int                   `json:"lesson_planning"`
	StudentEngagement   int                   `json:"student_engagement"`
	ProfessionalConduct int                   `json:"professional_conduct"`
	OverallPerformance  string                `json:"overall_performance"`
	Strengths           string                `json:"strengths"`
	AreasForImprovement string                `json:"areas_for_improvement"`
	Recommendations     string                `json:"recommendations"`
	AdditionalComments  *string               `json:"additional_comments,omitempty"`
}

func (r AssessmentDraftRequest) scores() models.CriterionScores {
	return models.CriterionScores{
		TeachingSkills:      r.TeachingSkills,
		ClassroomManagement: r.ClassroomManagement,
		LessonPlanning:      r.LessonPlanning,
		StudentEngagement:   r.StudentEngagement,
		ProfessionalConduct: r.ProfessionalConduct,
	}
}

// AssessmentService manages supervisor evaluations: drafting, scoring and
// submission. Submitting the final assessment completes the placement and
// seeds its certificate in the same transaction.
type AssessmentService struct {
	assessments  assessmentRepo
	placements   assessmentPlacementReader
	certificates certificateByPlacementReader
	policy       config.PolicyConfig
	certCfg      config.CertificatesConfig
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewAssessmentService constructs AssessmentService.
func NewAssessmentService(assessments assessmentRepo, placements assessmentPlacementReader, certificates certificateByPlacementReader, policy config.PolicyConfig, certCfg config.CertificatesConfig, validate *validator.Validate, logger *zap.Logger) *AssessmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssessmentService{
		assessments:  assessments,
		placements:   placements,
		certificates: certificates,
		policy:       policy,
		certCfg:      certCfg,
		validator:    validate,
		logger:       logger,
	}
}

// CreateDraft opens a draft assessment on an active placement. A supervisor
// may only assess placements assigned to them; pass an empty supervisorID for
// admin actors.
func (s *AssessmentService) CreateDraft(ctx context.Context, supervisorID string, req AssessmentDraftRequest) (*models.Assessment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assessment payload")
	}
	placement, err := s.loadPlacement(ctx, req.PlacementID)
	if err != nil {
		return nil, err
	}
	if placement.Status != models.PlacementStatusActive {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "placement is not active")
	}
	if err := s.checkAssigned(placement, supervisorID); err != nil {
		return nil, err
	}
	existing, err := s.assessments.FindByPlacementAndType(ctx, req.PlacementID, req.Type)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing assessment")
	}
	if existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("%s assessment already exists for this placement", strings.ToLower(string(req.Type))))
	}

	authorID := supervisorID
	if authorID == "" && placement.SupervisorID != nil {
		authorID = *placement.SupervisorID
	}
	assessment := &models.Assessment{
		PlacementID:         req.PlacementID,
		SupervisorID:        authorID,
		Type:                req.Type,
		CriterionScores:     ClampScores(req.scores()),
		OverallPerformance:  req.OverallPerformance,
		Strengths:           req.Strengths,
		AreasForImprovement: req.AreasForImprovement,
		Recommendations:     req.Recommendations,
		AdditionalComments:  req.AdditionalComments,
		Status:              models.AssessmentStatusDraft,
	}
	if err := s.assessments.Create(ctx, assessment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assessment")
	}
	s.logger.Info("assessment draft created",
		zap.String("assessment_id", assessment.ID),
		zap.String("placement_id", req.PlacementID),
		zap.String("type", string(req.Type)))
	return assessment, nil
}

// UpdateDraft replaces the content of a draft assessment. Submitted
// assessments are immutable.
func (s *AssessmentService) UpdateDraft(ctx context.Context, id, supervisorID string, req AssessmentDraftRequest) (*models.Assessment, error) {
	assessment, err := s.loadAssessment(ctx, id)
	if err != nil {
		return nil, err
	}
	if supervisorID != "" && assessment.SupervisorID != supervisorID {
		return nil, appErrors.Clone(appErrors.ErrNotAssigned, "assessment belongs to another supervisor")
	}
	if assessment.Status != models.AssessmentStatusDraft {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "submitted assessments cannot be edited")
	}

	assessment.CriterionScores = ClampScores(req.scores())
	assessment.OverallPerformance = req.OverallPerformance
	assessment.Strengths = req.Strengths
	assessment.AreasForImprovement = req.AreasForImprovement
	assessment.Recommendations = req.Recommendations
	assessment.AdditionalComments = req.AdditionalComments
	if err := s.assessments.Update(ctx, assessment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assessment")
	}
	return assessment, nil
}

// Submit finalises a draft. Every criterion must carry a score and the three
// narrative sections must be filled in. Submitting a FINAL assessment also
// completes the placement and seeds its certificate.
func (s *AssessmentService) Submit(ctx context.Context, id, supervisorID string) (*models.Assessment, error) {
	assessment, err := s.loadAssessment(ctx, id)
	if err != nil {
		return nil, err
	}
	if supervisorID != "" && assessment.SupervisorID != supervisorID {
		return nil, appErrors.Clone(appErrors.ErrNotAssigned, "assessment belongs to another supervisor")
	}
	if assessment.Status != models.AssessmentStatusDraft {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "assessment is already submitted")
	}
	if err := s.checkComplete(assessment); err != nil {
		return nil, err
	}

	placement, err := s.loadPlacement(ctx, assessment.PlacementID)
	if err != nil {
		return nil, err
	}
	if placement.Status != models.PlacementStatusActive {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "placement is not active")
	}

	now := time.Now().UTC()
	average := AverageScore(assessment.CriterionScores)
	tier := ScoreTier(average)
	assessment.AverageScore = &average
	assessment.ScoreTier = &tier
	if s.policy.DeriveGradeFromScore {
		assessment.OverallPerformance = DeriveLetterGrade(average)
	}
	assessment.Status = models.AssessmentStatusSubmitted
	assessment.SubmittedAt = &now

	if assessment.Type == models.AssessmentTypeFinal {
		certificate, err := s.seedCertificate(ctx, placement.ID)
		if err != nil {
			return nil, err
		}
		if err := s.assessments.SubmitFinal(ctx, assessment, placement, certificate); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit final assessment")
		}
		s.logger.Info("final assessment submitted, placement completed",
			zap.String("assessment_id", assessment.ID),
			zap.String("placement_id", placement.ID),
			zap.Float64("average_score", average),
			zap.String("score_tier", tier))
		return assessment, nil
	}

	if err := s.assessments.Update(ctx, assessment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit assessment")
	}
	if placement.Progress < midtermProgress {
		if err := s.assessments.UpdatePlacementProgress(ctx, placement.ID, midtermProgress); err != nil {
			s.logger.Warn("failed to bump placement progress", zap.String("placement_id", placement.ID), zap.Error(err))
		}
	}
	s.logger.Info("midterm assessment submitted",
		zap.String("assessment_id", assessment.ID),
		zap.String("placement_id", placement.ID),
		zap.Float64("average_score", average))
	return assessment, nil
}

// Get returns a single assessment.
func (s *AssessmentService) Get(ctx context.Context, id string) (*models.Assessment, error) {
	return s.loadAssessment(ctx, id)
}

// List returns assessments with pagination metadata.
func (s *AssessmentService) List(ctx context.Context, filter models.AssessmentFilter) ([]models.AssessmentDetail, *models.Pagination, error) {
	assessments, total, err := s.assessments.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assessments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return assessments, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// ExportDataset flattens assessments for CSV export.
func (s *AssessmentService) ExportDataset(ctx context.Context, filter models.AssessmentFilter) (export.Dataset, error) {
	filter.Page = 1
	filter.PageSize = 100
	assessments, _, err := s.assessments.List(ctx, filter)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export assessments")
	}
	dataset := export.Dataset{
		Headers: []string{"Student", "Student Number", "Location", "Type", "Status", "Average", "Tier", "Grade"},
	}
	for _, assessment := range assessments {
		average, tier := "", ""
		if assessment.AverageScore != nil {
			average = fmt.Sprintf("%.1f", *assessment.AverageScore)
		}
		if assessment.ScoreTier != nil {
			tier = *assessment.ScoreTier
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Student":        assessment.StudentName,
			"Student Number": assessment.StudentNumber,
			"Location":       assessment.LocationName,
			"Type":           string(assessment.Type),
			"Status":         string(assessment.Status),
			"Average":        average,
			"Tier":           tier,
			"Grade":          assessment.OverallPerformance,
		})
	}
	return dataset, nil
}

func (s *AssessmentService) checkAssigned(placement *models.Placement, supervisorID string) error {
	if placement.SupervisorID == nil {
		return appErrors.Clone(appErrors.ErrNotAssigned, "placement has no assigned supervisor")
	}
	if supervisorID == "" {
		return nil
	}
	if *placement.SupervisorID != supervisorID {
		return appErrors.Clone(appErrors.ErrNotAssigned, "placement is assigned to another supervisor")
	}
	return nil
}

func (s *AssessmentService) checkComplete(assessment *models.Assessment) error {
	for _, score := range assessment.Values() {
		if score < minCriterionScore || score > maxCriterionScore {
			return appErrors.Clone(appErrors.ErrValidation, "every criterion needs a score between 1 and 100")
		}
	}
	for _, narrative := range []string{assessment.Strengths, assessment.AreasForImprovement, assessment.Recommendations} {
		if len(strings.TrimSpace(narrative)) < 10 {
			return appErrors.Clone(appErrors.ErrValidation, "strengths, areas for improvement and recommendations each need at least 10 characters")
		}
	}
	if !s.policy.DeriveGradeFromScore && strings.TrimSpace(assessment.OverallPerformance) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "overall performance grade is required")
	}
	return nil
}

func (s *AssessmentService) seedCertificate(ctx context.Context, placementID string) (*models.Certificate, error) {
	existing, err := s.certificates.FindByPlacement(ctx, placementID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check certificate")
	}
	if existing != nil {
		return nil, nil
	}
	return &models.Certificate{
		PlacementID:       placementID,
		CertificateNumber: NewCertificateNumber(s.certCfg.NumberPrefix),
		Status:            models.CertificateStatusPending,
	}, nil
}

func (s *AssessmentService) loadAssessment(ctx context.Context, id string) (*models.Assessment, error) {
	assessment, err := s.assessments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assessment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment")
	}
	return assessment, nil
}

func (s *AssessmentService) loadPlacement(ctx context.Context, id string) (*models.Placement, error) {
	placement, err := s.placements.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "placement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load placement")
	}
	return placement, nil
}
