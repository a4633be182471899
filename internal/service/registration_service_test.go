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

type mockRegistrationRepo struct {
	registrations map[string]models.Registration
	openMap       map[string]bool
	created       *models.Registration
	status        map[string]models.RegistrationStatus
}

func (m *mockRegistrationRepo) FindByID(ctx context.Context, id string) (*models.Registration, error) {
	if r, ok := m.registrations[id]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRegistrationRepo) FindDetailByID(ctx context.Context, id string) (*models.RegistrationDetail, error) {
	if r, ok := m.registrations[id]; ok {
		return &models.RegistrationDetail{Registration: r}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRegistrationRepo) ExistsOpen(ctx context.Context, studentID, periodID string) (bool, error) {
	return m.openMap[studentID+periodID], nil
}

func (m *mockRegistrationRepo) List(ctx context.Context, filter models.RegistrationFilter) ([]models.RegistrationDetail, int, error) {
	return nil, 0, nil
}

func (m *mockRegistrationRepo) Create(ctx context.Context, registration *models.Registration) error {
	if m.registrations == nil {
		m.registrations = make(map[string]models.Registration)
	}
	if registration.ID == "" {
		registration.ID = "new-reg"
	}
	m.registrations[registration.ID] = *registration
	m.created = registration
	return nil
}

func (m *mockRegistrationRepo) UpdateDocuments(ctx context.Context, registration *models.Registration) error {
	m.registrations[registration.ID] = *registration
	return nil
}

func (m *mockRegistrationRepo) UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus) error {
	if m.status == nil {
		m.status = make(map[string]models.RegistrationStatus)
	}
	m.status[id] = status
	if r, ok := m.registrations[id]; ok {
		r.Status = status
		m.registrations[id] = r
	}
	return nil
}

type mockPeriodReader struct {
	periods map[string]models.Period
}

func (m *mockPeriodReader) FindByID(ctx context.Context, id string) (*models.Period, error) {
	if p, ok := m.periods[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

type mockPlacementChecker struct {
	placed map[string]bool
}

func (m *mockPlacementChecker) ExistsForRegistration(ctx context.Context, registrationID string) (bool, error) {
	return m.placed[registrationID], nil
}

func completeRegistration(id string) models.Registration {
	return models.Registration{
		ID:                     id,
		StudentID:              "s1",
		PeriodID:               "p1",
		Status:                 models.RegistrationStatusPending,
		TranscriptUploaded:     true,
		IDCardUploaded:         true,
		PhotoUploaded:          true,
		RecommendationUploaded: true,
		AgreementAccepted:      true,
	}
}

func newRegistrationService(repo *mockRegistrationRepo, periods *mockPeriodReader, placements *mockPlacementChecker) *RegistrationService {
	if periods == nil {
		periods = &mockPeriodReader{periods: map[string]models.Period{"p1": {ID: "p1", Status: models.PeriodStatusActive}}}
	}
	if placements == nil {
		placements = &mockPlacementChecker{}
	}
	return NewRegistrationService(repo, periods, placements, validator.New(), zap.NewNop())
}

func TestRegistrationServiceCreate(t *testing.T) {
	repo := &mockRegistrationRepo{}
	svc := newRegistrationService(repo, nil, nil)

	detail, err := svc.Create(context.Background(), "s1", CreateRegistrationRequest{PeriodID: "p1", TranscriptUploaded: true})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStatusPending, detail.Status)
	assert.Equal(t, "s1", repo.created.StudentID)
}

func TestRegistrationServiceCreateCompletedPeriod(t *testing.T) {
	periods := &mockPeriodReader{periods: map[string]models.Period{"p1": {ID: "p1", Status: models.PeriodStatusCompleted}}}
	svc := newRegistrationService(&mockRegistrationRepo{}, periods, nil)

	_, err := svc.Create(context.Background(), "s1", CreateRegistrationRequest{PeriodID: "p1"})
	assert.Equal(t, appErrors.ErrNotEligible.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceCreateDuplicate(t *testing.T) {
	repo := &mockRegistrationRepo{openMap: map[string]bool{"s1p1": true}}
	svc := newRegistrationService(repo, nil, nil)

	_, err := svc.Create(context.Background(), "s1", CreateRegistrationRequest{PeriodID: "p1"})
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceApprove(t *testing.T) {
	repo := &mockRegistrationRepo{registrations: map[string]models.Registration{"r1": completeRegistration("r1")}}
	svc := newRegistrationService(repo, nil, nil)

	detail, err := svc.Approve(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStatusApproved, detail.Status)
}

func TestRegistrationServiceApproveIncompleteDocuments(t *testing.T) {
	incomplete := completeRegistration("r1")
	incomplete.RecommendationUploaded = false
	repo := &mockRegistrationRepo{registrations: map[string]models.Registration{"r1": incomplete}}
	svc := newRegistrationService(repo, nil, nil)

	_, err := svc.Approve(context.Background(), "r1")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.status)
}

func TestRegistrationServiceApproveWithoutAgreement(t *testing.T) {
	unsigned := completeRegistration("r1")
	unsigned.AgreementAccepted = false
	repo := &mockRegistrationRepo{registrations: map[string]models.Registration{"r1": unsigned}}
	svc := newRegistrationService(repo, nil, nil)

	_, err := svc.Approve(context.Background(), "r1")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceApproveNotPending(t *testing.T) {
	rejected := completeRegistration("r1")
	rejected.Status = models.RegistrationStatusRejected
	repo := &mockRegistrationRepo{registrations: map[string]models.Registration{"r1": rejected}}
	svc := newRegistrationService(repo, nil, nil)

	_, err := svc.Approve(context.Background(), "r1")
	assert.Equal(t, appErrors.ErrNotEligible.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceReject(t *testing.T) {
	repo := &mockRegistrationRepo{registrations: map[string]models.Registration{"r1": completeRegistration("r1")}}
	svc := newRegistrationService(repo, nil, nil)

	detail, err := svc.Reject(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStatusRejected, detail.Status)
}

func TestRegistrationServiceRejectBlockedByPlacement(t *testing.T) {
	repo := &mockRegistrationRepo{registrations: map[string]models.Registration{"r1": completeRegistration("r1")}}
	placements := &mockPlacementChecker{placed: map[string]bool{"r1": true}}
	svc := newRegistrationService(repo, nil, placements)

	_, err := svc.Reject(context.Background(), "r1")
	assert.Equal(t, appErrors.ErrNotEligible.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.status)
}

func TestRegistrationServiceUpdateDocumentsOwnership(t *testing.T) {
	repo := &mockRegistrationRepo{registrations: map[string]models.Registration{"r1": completeRegistration("r1")}}
	svc := newRegistrationService(repo, nil, nil)

	_, err := svc.UpdateDocuments(context.Background(), "r1", "other-student", UpdateDocumentsRequest{})
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceUpdateDocumentsAfterApproval(t *testing.T) {
	approved := completeRegistration("r1")
	approved.Status = models.RegistrationStatusApproved
	repo := &mockRegistrationRepo{registrations: map[string]models.Registration{"r1": approved}}
	svc := newRegistrationService(repo, nil, nil)

	flag := true
	_, err := svc.UpdateDocuments(context.Background(), "r1", "s1", UpdateDocumentsRequest{TranscriptUploaded: &flag})
	assert.Equal(t, appErrors.ErrNotEligible.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceUpdateDocumentsPartial(t *testing.T) {
	reg := completeRegistration("r1")
	reg.PhotoUploaded = false
	repo := &mockRegistrationRepo{registrations: map[string]models.Registration{"r1": reg}}
	svc := newRegistrationService(repo, nil, nil)

	flag := true
	detail, err := svc.UpdateDocuments(context.Background(), "r1", "s1", UpdateDocumentsRequest{PhotoUploaded: &flag})
	require.NoError(t, err)
	assert.True(t, detail.PhotoUploaded)
	assert.True(t, detail.TranscriptUploaded)
}
