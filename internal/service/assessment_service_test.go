package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dimasfarhan/ppl-placement-api/internal/models"
	"github.com/dimasfarhan/ppl-placement-api/pkg/config"
	appErrors "github.com/dimasfarhan/ppl-placement-api/pkg/errors"
)

type mockAssessmentRepo struct {
	assessments     map[string]models.Assessment
	created         *models.Assessment
	finalPlacement  *models.Placement
	finalCert       *models.Certificate
	progressUpdates map[string]int
}

func (m *mockAssessmentRepo) FindByID(ctx context.Context, id string) (*models.Assessment, error) {
	if a, ok := m.assessments[id]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAssessmentRepo) FindByPlacementAndType(ctx context.Context, placementID string, typ models.AssessmentType) (*models.Assessment, error) {
	for _, a := range m.assessments {
		if a.PlacementID == placementID && a.Type == typ {
			return &a, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAssessmentRepo) List(ctx context.Context, filter models.AssessmentFilter) ([]models.AssessmentDetail, int, error) {
	return nil, 0, nil
}

func (m *mockAssessmentRepo) Create(ctx context.Context, assessment *models.Assessment) error {
	if m.assessments == nil {
		m.assessments = make(map[string]models.Assessment)
	}
	if assessment.ID == "" {
		assessment.ID = "new-assessment"
	}
	m.assessments[assessment.ID] = *assessment
	m.created = assessment
	return nil
}

func (m *mockAssessmentRepo) Update(ctx context.Context, assessment *models.Assessment) error {
	m.assessments[assessment.ID] = *assessment
	return nil
}

func (m *mockAssessmentRepo) SubmitFinal(ctx context.Context, assessment *models.Assessment, placement *models.Placement, certificate *models.Certificate) error {
	m.assessments[assessment.ID] = *assessment
	placement.Status = models.PlacementStatusCompleted
	placement.Progress = 100
	m.finalPlacement = placement
	m.finalCert = certificate
	return nil
}

func (m *mockAssessmentRepo) UpdatePlacementProgress(ctx context.Context, placementID string, progress int) error {
	if m.progressUpdates == nil {
		m.progressUpdates = make(map[string]int)
	}
	m.progressUpdates[placementID] = progress
	return nil
}

type mockAssessmentPlacements struct {
	placements map[string]models.Placement
}

func (m *mockAssessmentPlacements) FindByID(ctx context.Context, id string) (*models.Placement, error) {
	if p, ok := m.placements[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

type mockCertificateSeedReader struct {
	certificates map[string]models.Certificate
}

func (m *mockCertificateSeedReader) FindByPlacement(ctx context.Context, placementID string) (*models.Certificate, error) {
	if c, ok := m.certificates[placementID]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func completeDraftRequest(typ models.AssessmentType) AssessmentDraftRequest {
	return AssessmentDraftRequest{
		PlacementID:         "p1",
		Type:                typ,
		TeachingSkills:      85,
		ClassroomManagement: 80,
		LessonPlanning:      90,
		StudentEngagement:   75,
		ProfessionalConduct: 88,
		OverallPerformance:  "B+",
		Strengths:           "Strong rapport with students",
		AreasForImprovement: "Time management during lessons",
		Recommendations:     "Ready for independent teaching",
	}
}

func newAssessmentFixture(policy config.PolicyConfig) (*AssessmentService, *mockAssessmentRepo, *mockAssessmentPlacements, *mockCertificateSeedReader) {
	repo := &mockAssessmentRepo{}
	supervisor := "sup1"
	placements := &mockAssessmentPlacements{placements: map[string]models.Placement{
		"p1": {ID: "p1", RegistrationID: "r1", LocationID: "l1", SupervisorID: &supervisor, Status: models.PlacementStatusActive, Version: 2},
		"p2": {ID: "p2", RegistrationID: "r2", LocationID: "l1", Status: models.PlacementStatusPending, Version: 1},
	}}
	certificates := &mockCertificateSeedReader{}
	svc := NewAssessmentService(repo, placements, certificates, policy, config.CertificatesConfig{NumberPrefix: "PPL"}, validator.New(), zap.NewNop())
	return svc, repo, placements, certificates
}

func TestAssessmentServiceCreateDraft(t *testing.T) {
	svc, repo, _, _ := newAssessmentFixture(config.PolicyConfig{})

	assessment, err := svc.CreateDraft(context.Background(), "sup1", completeDraftRequest(models.AssessmentTypeMidterm))
	require.NoError(t, err)
	assert.Equal(t, models.AssessmentStatusDraft, assessment.Status)
	assert.Equal(t, "sup1", repo.created.SupervisorID)
}

func TestAssessmentServiceCreateDraftOtherSupervisor(t *testing.T) {
	svc, _, _, _ := newAssessmentFixture(config.PolicyConfig{})

	_, err := svc.CreateDraft(context.Background(), "sup9", completeDraftRequest(models.AssessmentTypeMidterm))
	assert.Equal(t, appErrors.ErrNotAssigned.Code, appErrors.FromError(err).Code)
}

func TestAssessmentServiceCreateDraftInactivePlacement(t *testing.T) {
	svc, _, _, _ := newAssessmentFixture(config.PolicyConfig{})

	req := completeDraftRequest(models.AssessmentTypeMidterm)
	req.PlacementID = "p2"
	_, err := svc.CreateDraft(context.Background(), "", req)
	assert.Equal(t, appErrors.ErrNotEligible.Code, appErrors.FromError(err).Code)
}

func TestAssessmentServiceCreateDraftDuplicateType(t *testing.T) {
	svc, repo, _, _ := newAssessmentFixture(config.PolicyConfig{})
	repo.assessments = map[string]models.Assessment{"a1": {ID: "a1", PlacementID: "p1", Type: models.AssessmentTypeMidterm, Status: models.AssessmentStatusSubmitted}}

	_, err := svc.CreateDraft(context.Background(), "sup1", completeDraftRequest(models.AssessmentTypeMidterm))
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAssessmentServiceCreateDraftAdminUsesAssignedSupervisor(t *testing.T) {
	svc, repo, _, _ := newAssessmentFixture(config.PolicyConfig{})

	_, err := svc.CreateDraft(context.Background(), "", completeDraftRequest(models.AssessmentTypeMidterm))
	require.NoError(t, err)
	assert.Equal(t, "sup1", repo.created.SupervisorID)
}

func TestAssessmentServiceCreateDraftUnsupervisedPlacement(t *testing.T) {
	svc, repo, placements, _ := newAssessmentFixture(config.PolicyConfig{})
	placements.placements["p3"] = models.Placement{ID: "p3", RegistrationID: "r3", LocationID: "l1", Status: models.PlacementStatusActive, Version: 1}

	req := completeDraftRequest(models.AssessmentTypeMidterm)
	req.PlacementID = "p3"

	// Even an admin cannot assess a placement without a supervisor on record.
	_, err := svc.CreateDraft(context.Background(), "", req)
	assert.Equal(t, appErrors.ErrNotAssigned.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)

	_, err = svc.CreateDraft(context.Background(), "sup1", req)
	assert.Equal(t, appErrors.ErrNotAssigned.Code, appErrors.FromError(err).Code)
}

func TestAssessmentServiceUpdateDraftSubmitted(t *testing.T) {
	svc, repo, _, _ := newAssessmentFixture(config.PolicyConfig{})
	repo.assessments = map[string]models.Assessment{"a1": {ID: "a1", PlacementID: "p1", SupervisorID: "sup1", Type: models.AssessmentTypeMidterm, Status: models.AssessmentStatusSubmitted}}

	_, err := svc.UpdateDraft(context.Background(), "a1", "sup1", completeDraftRequest(models.AssessmentTypeMidterm))
	assert.Equal(t, appErrors.ErrNotEligible.Code, appErrors.FromError(err).Code)
}

func draftAssessment(id string, typ models.AssessmentType) models.Assessment {
	return models.Assessment{
		ID:           id,
		PlacementID:  "p1",
		SupervisorID: "sup1",
		Type:         typ,
		CriterionScores: models.CriterionScores{
			TeachingSkills:      85,
			ClassroomManagement: 80,
			LessonPlanning:      90,
			StudentEngagement:   75,
			ProfessionalConduct: 88,
		},
		OverallPerformance:  "B+",
		Strengths:           "Strong rapport with students",
		AreasForImprovement: "Time management during lessons",
		Recommendations:     "Ready for independent teaching",
		Status:              models.AssessmentStatusDraft,
	}
}

func TestAssessmentServiceSubmitMidterm(t *testing.T) {
	svc, repo, _, _ := newAssessmentFixture(config.PolicyConfig{})
	repo.assessments = map[string]models.Assessment{"a1": draftAssessment("a1", models.AssessmentTypeMidterm)}

	assessment, err := svc.Submit(context.Background(), "a1", "sup1")
	require.NoError(t, err)
	assert.Equal(t, models.AssessmentStatusSubmitted, assessment.Status)
	require.NotNil(t, assessment.AverageScore)
	assert.InDelta(t, 83.6, *assessment.AverageScore, 0.0001)
	assert.Equal(t, TierVeryGood, *assessment.ScoreTier)
	assert.NotNil(t, assessment.SubmittedAt)
	assert.Equal(t, 50, repo.progressUpdates["p1"])
	assert.Nil(t, repo.finalPlacement)
}

func TestAssessmentServiceSubmitFinalCompletesPlacement(t *testing.T) {
	svc, repo, _, _ := newAssessmentFixture(config.PolicyConfig{})
	repo.assessments = map[string]models.Assessment{"a1": draftAssessment("a1", models.AssessmentTypeFinal)}

	assessment, err := svc.Submit(context.Background(), "a1", "sup1")
	require.NoError(t, err)
	assert.Equal(t, models.AssessmentStatusSubmitted, assessment.Status)
	require.NotNil(t, repo.finalPlacement)
	assert.Equal(t, models.PlacementStatusCompleted, repo.finalPlacement.Status)
	assert.Equal(t, 100, repo.finalPlacement.Progress)
	require.NotNil(t, repo.finalCert)
	assert.Equal(t, models.CertificateStatusPending, repo.finalCert.Status)
	assert.True(t, strings.HasPrefix(repo.finalCert.CertificateNumber, "PPL-"))
}

func TestAssessmentServiceSubmitFinalSkipsExistingCertificate(t *testing.T) {
	svc, repo, _, certificates := newAssessmentFixture(config.PolicyConfig{})
	repo.assessments = map[string]models.Assessment{"a1": draftAssessment("a1", models.AssessmentTypeFinal)}
	certificates.certificates = map[string]models.Certificate{"p1": {ID: "c1", PlacementID: "p1", Status: models.CertificateStatusPending}}

	_, err := svc.Submit(context.Background(), "a1", "sup1")
	require.NoError(t, err)
	assert.Nil(t, repo.finalCert)
}

func TestAssessmentServiceSubmitIncompleteNarratives(t *testing.T) {
	svc, repo, _, _ := newAssessmentFixture(config.PolicyConfig{})
	incomplete := draftAssessment("a1", models.AssessmentTypeFinal)
	incomplete.Strengths = "ok"
	repo.assessments = map[string]models.Assessment{"a1": incomplete}

	_, err := svc.Submit(context.Background(), "a1", "sup1")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAssessmentServiceSubmitMissingScore(t *testing.T) {
	svc, repo, _, _ := newAssessmentFixture(config.PolicyConfig{})
	incomplete := draftAssessment("a1", models.AssessmentTypeFinal)
	incomplete.LessonPlanning = 0
	repo.assessments = map[string]models.Assessment{"a1": incomplete}

	_, err := svc.Submit(context.Background(), "a1", "sup1")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAssessmentServiceSubmitMissingGrade(t *testing.T) {
	svc, repo, _, _ := newAssessmentFixture(config.PolicyConfig{})
	ungraded := draftAssessment("a1", models.AssessmentTypeFinal)
	ungraded.OverallPerformance = " "
	repo.assessments = map[string]models.Assessment{"a1": ungraded}

	_, err := svc.Submit(context.Background(), "a1", "sup1")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAssessmentServiceSubmitDerivedGrade(t *testing.T) {
	svc, repo, _, _ := newAssessmentFixture(config.PolicyConfig{DeriveGradeFromScore: true})
	ungraded := draftAssessment("a1", models.AssessmentTypeMidterm)
	ungraded.OverallPerformance = ""
	repo.assessments = map[string]models.Assessment{"a1": ungraded}

	assessment, err := svc.Submit(context.Background(), "a1", "sup1")
	require.NoError(t, err)
	assert.Equal(t, "B", assessment.OverallPerformance)
}

func TestAssessmentServiceSubmitTwice(t *testing.T) {
	svc, repo, _, _ := newAssessmentFixture(config.PolicyConfig{})
	repo.assessments = map[string]models.Assessment{"a1": draftAssessment("a1", models.AssessmentTypeMidterm)}

	_, err := svc.Submit(context.Background(), "a1", "sup1")
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), "a1", "sup1")
	assert.Equal(t, appErrors.ErrNotEligible.Code, appErrors.FromError(err).Code)
}

func TestAssessmentServiceSubmitOtherSupervisor(t *testing.T) {
	svc, repo, _, _ := newAssessmentFixture(config.PolicyConfig{})
	repo.assessments = map[string]models.Assessment{"a1": draftAssessment("a1", models.AssessmentTypeMidterm)}

	_, err := svc.Submit(context.Background(), "a1", "sup9")
	assert.Equal(t, appErrors.ErrNotAssigned.Code, appErrors.FromError(err).Code)
}
