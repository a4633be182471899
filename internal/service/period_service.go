package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/dimasfarhan/ppl-placement-api/internal/models"
	appErrors "github.com/dimasfarhan/ppl-placement-api/pkg/errors"
)

type periodRepo interface {
	FindByID(ctx context.Context, id string) (*models.Period, error)
	List(ctx context.Context, filter models.PeriodFilter) ([]models.Period, int, error)
	Create(ctx context.Context, period *models.Period) error
	Update(ctx context.Context, period *models.Period) error
}

// PeriodRequest carries period fields for create and update.
type PeriodRequest struct {
	Name      string              `json:"name" validate:"required"`
	StartDate time.Time           `json:"start_date" validate:"required"`
	EndDate   time.Time           `json:"end_date" validate:"required"`
	Status    models.PeriodStatus `json:"status" validate:"omitempty,oneof=UPCOMING ACTIVE COMPLETED"`
}

// PeriodService manages teaching-practice periods.
type PeriodService struct {
	periods   periodRepo
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPeriodService constructs PeriodService.
func NewPeriodService(periods periodRepo, validate *validator.Validate, logger *zap.Logger) *PeriodService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PeriodService{periods: periods, validator: validate, logger: logger}
}

// Create adds a period. End date must follow start date.
func (s *PeriodService) Create(ctx context.Context, req PeriodRequest) (*models.Period, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid period payload")
	}
	if !req.EndDate.After(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date must be after start date")
	}
	status := req.Status
	if status == "" {
		status = models.PeriodStatusUpcoming
	}
	period := &models.Period{
		Name:      req.Name,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Status:    status,
	}
	if err := s.periods.Create(ctx, period); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create period")
	}
	s.logger.Info("period created", zap.String("period_id", period.ID), zap.String("name", period.Name))
	return period, nil
}

// Update applies changes to a period. Completed periods cannot reopen.
func (s *PeriodService) Update(ctx context.Context, id string, req PeriodRequest) (*models.Period, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid period payload")
	}
	if !req.EndDate.After(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date must be after start date")
	}
	period, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if period.Status == models.PeriodStatusCompleted && req.Status != "" && req.Status != models.PeriodStatusCompleted {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "completed periods cannot reopen")
	}

	period.Name = req.Name
	period.StartDate = req.StartDate
	period.EndDate = req.EndDate
	if req.Status != "" {
		period.Status = req.Status
	}
	if err := s.periods.Update(ctx, period); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update period")
	}
	return period, nil
}

// Get returns a period by id.
func (s *PeriodService) Get(ctx context.Context, id string) (*models.Period, error) {
	period, err := s.periods.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period")
	}
	return period, nil
}

// List returns periods with pagination metadata.
func (s *PeriodService) List(ctx context.Context, filter models.PeriodFilter) ([]models.Period, *models.Pagination, error) {
	periods, total, err := s.periods.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list periods")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return periods, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}
