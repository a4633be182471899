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

type mockSupervisorRepo struct {
	supervisors map[string]models.Supervisor
	assigned    map[string]int
	created     *models.Supervisor
}

func (m *mockSupervisorRepo) FindByID(ctx context.Context, id string) (*models.Supervisor, error) {
	if s, ok := m.supervisors[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSupervisorRepo) FindByUserID(ctx context.Context, userID string) (*models.Supervisor, error) {
	for _, s := range m.supervisors {
		if s.UserID == userID {
			return &s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockSupervisorRepo) FindDetailByID(ctx context.Context, id string) (*models.SupervisorDetail, error) {
	if s, ok := m.supervisors[id]; ok {
		return &models.SupervisorDetail{Supervisor: s, FullName: "Pak Guru", Email: "guru@example.edu"}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSupervisorRepo) List(ctx context.Context, filter models.SupervisorFilter) ([]models.SupervisorLoad, int, error) {
	return nil, 0, nil
}

func (m *mockSupervisorRepo) CountActiveAssignments(ctx context.Context, supervisorID string) (int, error) {
	return m.assigned[supervisorID], nil
}

func (m *mockSupervisorRepo) Create(ctx context.Context, supervisor *models.Supervisor) error {
	if m.supervisors == nil {
		m.supervisors = make(map[string]models.Supervisor)
	}
	if supervisor.ID == "" {
		supervisor.ID = "new-supervisor"
	}
	m.supervisors[supervisor.ID] = *supervisor
	m.created = supervisor
	return nil
}

func (m *mockSupervisorRepo) Update(ctx context.Context, supervisor *models.Supervisor) error {
	m.supervisors[supervisor.ID] = *supervisor
	return nil
}

type mockSupervisorUsers struct {
	users map[string]models.User
}

func (m *mockSupervisorUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func newSupervisorFixture() (*SupervisorService, *mockSupervisorRepo) {
	repo := &mockSupervisorRepo{assigned: map[string]int{}}
	users := &mockSupervisorUsers{users: map[string]models.User{
		"u1": {ID: "u1", Role: models.RoleSupervisor, Active: true},
		"u2": {ID: "u2", Role: models.RoleStudent, Active: true},
	}}
	return NewSupervisorService(repo, users, validator.New(), zap.NewNop()), repo
}

func TestSupervisorServiceCreate(t *testing.T) {
	svc, repo := newSupervisorFixture()

	detail, err := svc.Create(context.Background(), SupervisorRequest{UserID: "u1", Specialization: "Mathematics", MaxStudents: 3})
	require.NoError(t, err)
	assert.Equal(t, "u1", detail.UserID)
	assert.Equal(t, 3, repo.created.MaxStudents)
}

func TestSupervisorServiceCreateWrongRole(t *testing.T) {
	svc, _ := newSupervisorFixture()

	_, err := svc.Create(context.Background(), SupervisorRequest{UserID: "u2", Specialization: "Mathematics", MaxStudents: 3})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSupervisorServiceCreateDuplicateProfile(t *testing.T) {
	svc, repo := newSupervisorFixture()
	repo.supervisors = map[string]models.Supervisor{"sup1": {ID: "sup1", UserID: "u1", MaxStudents: 3}}

	_, err := svc.Create(context.Background(), SupervisorRequest{UserID: "u1", Specialization: "Mathematics", MaxStudents: 3})
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestSupervisorServiceUpdateBelowAssignments(t *testing.T) {
	svc, repo := newSupervisorFixture()
	repo.supervisors = map[string]models.Supervisor{"sup1": {ID: "sup1", UserID: "u1", MaxStudents: 3}}
	repo.assigned["sup1"] = 2

	_, err := svc.Update(context.Background(), "sup1", SupervisorRequest{UserID: "u1", Specialization: "Mathematics", MaxStudents: 1})
	assert.Equal(t, appErrors.ErrCapacity.Code, appErrors.FromError(err).Code)
}

func TestSupervisorServiceGetByUser(t *testing.T) {
	svc, repo := newSupervisorFixture()
	repo.supervisors = map[string]models.Supervisor{"sup1": {ID: "sup1", UserID: "u1", MaxStudents: 3}}

	supervisor, err := svc.GetByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "sup1", supervisor.ID)

	_, err = svc.GetByUser(context.Background(), "u2")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
