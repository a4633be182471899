package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/dimasfarhan/ppl-placement-api/internal/middleware"
	"github.com/dimasfarhan/ppl-placement-api/internal/models"
	"github.com/dimasfarhan/ppl-placement-api/internal/service"
	"github.com/dimasfarhan/ppl-placement-api/pkg/config"
)

type assessmentRepoStub struct {
	assessments map[string]models.Assessment
}

func (m *assessmentRepoStub) FindByID(ctx context.Context, id string) (*models.Assessment, error) {
	if a, ok := m.assessments[id]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *assessmentRepoStub) FindByPlacementAndType(ctx context.Context, placementID string, typ models.AssessmentType) (*models.Assessment, error) {
	return nil, sql.ErrNoRows
}

func (m *assessmentRepoStub) List(ctx context.Context, filter models.AssessmentFilter) ([]models.AssessmentDetail, int, error) {
	return nil, 0, nil
}

func (m *assessmentRepoStub) Create(ctx context.Context, assessment *models.Assessment) error {
	return nil
}

func (m *assessmentRepoStub) Update(ctx context.Context, assessment *models.Assessment) error {
	return nil
}

func (m *assessmentRepoStub) SubmitFinal(ctx context.Context, assessment *models.Assessment, placement *models.Placement, certificate *models.Certificate) error {
	return nil
}

func (m *assessmentRepoStub) UpdatePlacementProgress(ctx context.Context, placementID string, progress int) error {
	return nil
}

type placementReaderStub struct{}

func (m *placementReaderStub) FindByID(ctx context.Context, id string) (*models.Placement, error) {
	return nil, sql.ErrNoRows
}

type certificateReaderStub struct{}

func (m *certificateReaderStub) FindByPlacement(ctx context.Context, placementID string) (*models.Certificate, error) {
	return nil, sql.ErrNoRows
}

type supervisorRepoStub struct {
	byUser map[string]models.Supervisor
}

func (m *supervisorRepoStub) FindByID(ctx context.Context, id string) (*models.Supervisor, error) {
	return nil, sql.ErrNoRows
}

func (m *supervisorRepoStub) FindByUserID(ctx context.Context, userID string) (*models.Supervisor, error) {
	if s, ok := m.byUser[userID]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *supervisorRepoStub) FindDetailByID(ctx context.Context, id string) (*models.SupervisorDetail, error) {
	return nil, sql.ErrNoRows
}

func (m *supervisorRepoStub) List(ctx context.Context, filter models.SupervisorFilter) ([]models.SupervisorLoad, int, error) {
	return nil, 0, nil
}

func (m *supervisorRepoStub) CountActiveAssignments(ctx context.Context, supervisorID string) (int, error) {
	return 0, nil
}

func (m *supervisorRepoStub) Create(ctx context.Context, supervisor *models.Supervisor) error {
	return nil
}

func (m *supervisorRepoStub) Update(ctx context.Context, supervisor *models.Supervisor) error {
	return nil
}

type supervisorUserStub struct{}

func (m *supervisorUserStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	return nil, sql.ErrNoRows
}

func newAssessmentHandlerFixture() *AssessmentHandler {
	assessments := &assessmentRepoStub{assessments: map[string]models.Assessment{
		"a1": {ID: "a1", PlacementID: "p1", SupervisorID: "sup1", Type: models.AssessmentTypeMidterm, Status: models.AssessmentStatusDraft},
	}}
	assessmentSvc := service.NewAssessmentService(assessments, &placementReaderStub{}, &certificateReaderStub{}, config.PolicyConfig{}, config.CertificatesConfig{}, nil, nil)
	supervisorSvc := service.NewSupervisorService(&supervisorRepoStub{byUser: map[string]models.Supervisor{
		"u-sup1": {ID: "sup1", UserID: "u-sup1"},
		"u-sup2": {ID: "sup2", UserID: "u-sup2"},
	}}, &supervisorUserStub{}, nil, nil)
	return NewAssessmentHandler(assessmentSvc, supervisorSvc, nil)
}

func assessmentGetContext(t *testing.T, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodGet, "/assessments/a1", nil)
	if err != nil {
		t.Fatal(err)
	}
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "a1"}}
	c.Set(middleware.ContextUserKey, claims)
	return c, w
}

func TestAssessmentHandlerGetOtherSupervisor(t *testing.T) {
	handler := newAssessmentHandlerFixture()
	c, w := assessmentGetContext(t, &models.JWTClaims{UserID: "u-sup2", Role: models.RoleSupervisor})

	handler.Get(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAssessmentHandlerGetOwnSupervisor(t *testing.T) {
	handler := newAssessmentHandlerFixture()
	c, w := assessmentGetContext(t, &models.JWTClaims{UserID: "u-sup1", Role: models.RoleSupervisor})

	handler.Get(c)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAssessmentHandlerGetAdmin(t *testing.T) {
	handler := newAssessmentHandlerFixture()
	c, w := assessmentGetContext(t, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})

	handler.Get(c)
	assert.Equal(t, http.StatusOK, w.Code)
}
