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

type locationRepo interface {
	FindByID(ctx context.Context, id string) (*models.Location, error)
	List(ctx context.Context, filter models.LocationFilter) ([]models.Location, int, error)
	ListOccupancy(ctx context.Context) ([]models.LocationOccupancy, error)
	CountActivePlacements(ctx context.Context, locationID string) (int, error)
	Create(ctx context.Context, location *models.Location) error
	Update(ctx context.Context, location *models.Location) error
}

// LocationRequest carries location fields for create and update.
type LocationRequest struct {
	Name          string                `json:"name" validate:"required"`
	Address       string                `json:"address" validate:"required"`
	Capacity      int                   `json:"capacity" validate:"required,min=1"`
	ContactPerson string                `json:"contact_person" validate:"required"`
	ContactEmail  string                `json:"contact_email" validate:"required,email"`
	ContactPhone  string                `json:"contact_phone" validate:"required"`
	Status        models.LocationStatus `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
	Notes         *string               `json:"notes,omitempty"`
}

// LocationService manages partner school records.
type LocationService struct {
	locations locationRepo
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLocationService constructs LocationService.
func NewLocationService(locations locationRepo, validate *validator.Validate, logger *zap.Logger) *LocationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocationService{locations: locations, validator: validate, logger: logger}
}

// Create adds a partner school.
func (s *LocationService) Create(ctx context.Context, req LocationRequest) (*models.Location, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid location payload")
	}
	status := req.Status
	if status == "" {
		status = models.LocationStatusActive
	}
	location := &models.Location{
		Name:          req.Name,
		Address:       req.Address,
		Capacity:      req.Capacity,
		ContactPerson: req.ContactPerson,
		ContactEmail:  req.ContactEmail,
		ContactPhone:  req.ContactPhone,
		Status:        status,
		Notes:         req.Notes,
	}
	if err := s.locations.Create(ctx, location); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create location")
	}
	s.logger.Info("location created", zap.String("location_id", location.ID), zap.String("name", location.Name))
	return location, nil
}

// Update applies changes to a location. Shrinking capacity below the current
// active occupancy is rejected.
func (s *LocationService) Update(ctx context.Context, id string, req LocationRequest) (*models.Location, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid location payload")
	}
	location, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	occupied, err := s.locations.CountActivePlacements(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count placements")
	}
	if req.Capacity < occupied {
		return nil, appErrors.Clone(appErrors.ErrCapacity, "capacity cannot drop below current active placements")
	}

	location.Name = req.Name
	location.Address = req.Address
	location.Capacity = req.Capacity
	location.ContactPerson = req.ContactPerson
	location.ContactEmail = req.ContactEmail
	location.ContactPhone = req.ContactPhone
	if req.Status != "" {
		location.Status = req.Status
	}
	location.Notes = req.Notes
	if err := s.locations.Update(ctx, location); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update location")
	}
	return location, nil
}

// Get returns a location by id.
func (s *LocationService) Get(ctx context.Context, id string) (*models.Location, error) {
	location, err := s.locations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "location not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load location")
	}
	return location, nil
}

// List returns locations with pagination metadata.
func (s *LocationService) List(ctx context.Context, filter models.LocationFilter) ([]models.Location, *models.Pagination, error) {
	locations, total, err := s.locations.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list locations")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return locations, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Occupancy reports every location with its active placement count.
func (s *LocationService) Occupancy(ctx context.Context) ([]models.LocationOccupancy, error) {
	occupancy, err := s.locations.ListOccupancy(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load occupancy")
	}
	return occupancy, nil
}
