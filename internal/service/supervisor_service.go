package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/dimasfarhan/ppl-placement-api/internal/models"
	appErrors "github.com/dimasfarhan/ppl-placement-api/pkg/errors"
)

type supervisorRepo interface {
	FindByID(ctx context.Context, id string) (*models.Supervisor, error)
	FindByUserID(ctx context.Context, userID string) (*models.Supervisor, error)
	FindDetailByID(ctx context.Context, id string) (*models.SupervisorDetail, error)
	List(ctx context.Context, filter models.SupervisorFilter) ([]models.SupervisorLoad, int, error)
	CountActiveAssignments(ctx context.Context, supervisorID string) (int, error)
	Create(ctx context.Context, supervisor *models.Supervisor) error
	Update(ctx context.Context, supervisor *models.Supervisor) error
}

type supervisorUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// SupervisorRequest carries supervisor fields for create and update.
type SupervisorRequest struct {
	UserID         string  `json:"user_id" validate:"required"`
	Specialization string  `json:"specialization" validate:"required"`
	MaxStudents    int     `json:"max_students" validate:"required,min=1"`
	LocationID     *string `json:"location_id,omitempty"`
}

// SupervisorService manages supervisor profiles and their teaching load.
type SupervisorService struct {
	supervisors supervisorRepo
	users       supervisorUserReader
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewSupervisorService constructs SupervisorService.
func NewSupervisorService(supervisors supervisorRepo, users supervisorUserReader, validate *validator.Validate, logger *zap.Logger) *SupervisorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SupervisorService{supervisors: supervisors, users: users, validator: validate, logger: logger}
}

// Create links a supervisor-role user to a specialization and host location.
func (s *SupervisorService) Create(ctx context.Context, req SupervisorRequest) (*models.SupervisorDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid supervisor payload")
	}
	user, err := s.users.FindByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if user.Role != models.RoleSupervisor {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user does not have the supervisor role")
	}
	existing, err := s.supervisors.FindByUserID(ctx, req.UserID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check supervisor")
	}
	if existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "user already has a supervisor profile")
	}

	supervisor := &models.Supervisor{
		UserID:         req.UserID,
		Specialization: req.Specialization,
		MaxStudents:    req.MaxStudents,
		LocationID:     req.LocationID,
	}
	if err := s.supervisors.Create(ctx, supervisor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create supervisor")
	}
	s.logger.Info("supervisor created", zap.String("supervisor_id", supervisor.ID), zap.String("user_id", req.UserID))
	return s.Get(ctx, supervisor.ID)
}

// Update applies changes to a supervisor profile. The load ceiling cannot
// drop below the current number of active assignments.
func (s *SupervisorService) Update(ctx context.Context, id string, req SupervisorRequest) (*models.SupervisorDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid supervisor payload")
	}
	supervisor, err := s.supervisors.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "supervisor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load supervisor")
	}
	assigned, err := s.supervisors.CountActiveAssignments(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count assignments")
	}
	if req.MaxStudents < assigned {
		return nil, appErrors.Clone(appErrors.ErrCapacity, "max students cannot drop below current assignments")
	}

	supervisor.Specialization = req.Specialization
	supervisor.MaxStudents = req.MaxStudents
	supervisor.LocationID = req.LocationID
	if err := s.supervisors.Update(ctx, supervisor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update supervisor")
	}
	return s.Get(ctx, id)
}

// Get returns a supervisor with user and location context.
func (s *SupervisorService) Get(ctx context.Context, id string) (*models.SupervisorDetail, error) {
	detail, err := s.supervisors.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "supervisor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load supervisor")
	}
	return detail, nil
}

// GetByUser resolves the supervisor profile behind a user account.
func (s *SupervisorService) GetByUser(ctx context.Context, userID string) (*models.Supervisor, error) {
	supervisor, err := s.supervisors.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "supervisor profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load supervisor")
	}
	return supervisor, nil
}

// List returns supervisors with their current load.
func (s *SupervisorService) List(ctx context.Context, filter models.SupervisorFilter) ([]models.SupervisorLoad, *models.Pagination, error) {
	supervisors, total, err := s.supervisors.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list supervisors")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return supervisors, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}
