package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/dimasfarhan/ppl-placement-api/internal/models"
	"github.com/dimasfarhan/ppl-placement-api/pkg/config"
	appErrors "github.com/dimasfarhan/ppl-placement-api/pkg/errors"
	"github.com/dimasfarhan/ppl-placement-api/pkg/export"
)

type placementRepo interface {
	FindByID(ctx context.Context, id string) (*models.Placement, error)
	FindDetailByID(ctx context.Context, id string) (*models.PlacementDetail, error)
	ExistsForRegistration(ctx context.Context, registrationID string) (bool, error)
	List(ctx context.Context, filter models.PlacementFilter) ([]models.PlacementDetail, int, error)
	Create(ctx context.Context, placement *models.Placement) error
	Update(ctx context.Context, placement *models.Placement) error
	RecordChange(ctx context.Context, change *models.PlacementChange) error
	ListChanges(ctx context.Context, placementID string) ([]models.PlacementChange, error)
}

type registrationReader interface {
	FindByID(ctx context.Context, id string) (*models.Registration, error)
}

type locationReader interface {
	FindByID(ctx context.Context, id string) (*models.Location, error)
	CountActivePlacements(ctx context.Context, locationID string) (int, error)
}

type supervisorReader interface {
	FindByID(ctx context.Context, id string) (*models.Supervisor, error)
	CountActiveAssignments(ctx context.Context, supervisorID string) (int, error)
}

// AssignPlacementRequest creates a placement from an approved registration.
type AssignPlacementRequest struct {
	RegistrationID string     `json:"registration_id" validate:"required"`
	LocationID     string     `json:"location_id" validate:"required"`
	SupervisorID   *string    `json:"supervisor_id,omitempty"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty"`
}

// ChangeSupervisorRequest reassigns the supervisor, with an audit reason.
type ChangeSupervisorRequest struct {
	SupervisorID string `json:"supervisor_id" validate:"required"`
	Reason       string `json:"reason" validate:"required,min=5"`
	Version      int    `json:"version" validate:"min=0"`
}

// ChangeLocationRequest moves the placement to another location, with an audit reason.
type ChangeLocationRequest struct {
	LocationID string `json:"location_id" validate:"required"`
	Reason     string `json:"reason" validate:"required,min=5"`
	Version    int    `json:"version" validate:"min=0"`
}

// CancelPlacementRequest terminates a placement.
type CancelPlacementRequest struct {
	Reason  string `json:"reason" validate:"required,min=5"`
	Version int    `json:"version" validate:"min=0"`
}

// PlacementService manages the placement lifecycle: assignment, activation,
// reassignment and cancellation. Completion happens through final assessment
// submission, not here.
type PlacementService struct {
	placements    placementRepo
	registrations registrationReader
	periods       periodReader
	locations     locationReader
	supervisors   supervisorReader
	policy        config.PolicyConfig
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewPlacementService constructs PlacementService.
func NewPlacementService(placements placementRepo, registrations registrationReader, periods periodReader, locations locationReader, supervisors supervisorReader, policy config.PolicyConfig, validate *validator.Validate, logger *zap.Logger) *PlacementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlacementService{
		placements:    placements,
		registrations: registrations,
		periods:       periods,
		locations:     locations,
		supervisors:   supervisors,
		policy:        policy,
		validator:     validate,
		logger:        logger,
	}
}

// Assign creates a pending placement for an approved registration. actorStudentID
// is empty for admin assignment; students may only place their own registration.
func (s *PlacementService) Assign(ctx context.Context, req AssignPlacementRequest, actorStudentID string) (*models.PlacementDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid placement payload")
	}

	registration, err := s.registrations.FindByID(ctx, req.RegistrationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}
	if actorStudentID != "" && registration.StudentID != actorStudentID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "registration belongs to another student")
	}
	if registration.Status != models.RegistrationStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "registration is not approved")
	}
	exists, err := s.placements.ExistsForRegistration(ctx, req.RegistrationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing placement")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "registration already has a placement")
	}

	location, err := s.checkLocation(ctx, req.LocationID)
	if err != nil {
		return nil, err
	}
	if req.SupervisorID != nil {
		if err := s.checkSupervisor(ctx, *req.SupervisorID, location); err != nil {
			return nil, err
		}
	}

	placement := &models.Placement{
		RegistrationID: req.RegistrationID,
		LocationID:     req.LocationID,
		SupervisorID:   req.SupervisorID,
		Status:         models.PlacementStatusPending,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		Progress:       0,
		Version:        1,
	}
	if err := s.placements.Create(ctx, placement); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create placement")
	}
	s.logger.Info("placement assigned",
		zap.String("placement_id", placement.ID),
		zap.String("registration_id", req.RegistrationID),
		zap.String("location_id", req.LocationID))
	return s.loadDetail(ctx, placement.ID)
}

// Approve activates a pending placement.
func (s *PlacementService) Approve(ctx context.Context, id string, version int) (*models.PlacementDetail, error) {
	placement, err := s.loadForUpdate(ctx, id, version)
	if err != nil {
		return nil, err
	}
	if placement.Status != models.PlacementStatusPending {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "placement is not pending")
	}
	placement.Status = models.PlacementStatusActive
	if placement.StartDate == nil || placement.EndDate == nil {
		registration, err := s.registrations.FindByID(ctx, placement.RegistrationID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
		}
		period, err := s.periods.FindByID(ctx, registration.PeriodID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period")
		}
		if placement.StartDate == nil {
			placement.StartDate = &period.StartDate
		}
		if placement.EndDate == nil {
			placement.EndDate = &period.EndDate
		}
	}
	if err := s.update(ctx, placement); err != nil {
		return nil, err
	}
	s.logger.Info("placement activated", zap.String("placement_id", id))
	return s.loadDetail(ctx, id)
}

// ChangeSupervisor reassigns the supervisor of a non-terminal placement and
// records the change with its reason.
func (s *PlacementService) ChangeSupervisor(ctx context.Context, id, changedBy string, req ChangeSupervisorRequest) (*models.PlacementDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid supervisor change payload")
	}
	placement, err := s.loadForUpdate(ctx, id, req.Version)
	if err != nil {
		return nil, err
	}
	if placement.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, fmt.Sprintf("placement is %s", placement.Status))
	}

	location, err := s.locations.FindByID(ctx, placement.LocationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load location")
	}
	if err := s.checkSupervisor(ctx, req.SupervisorID, location); err != nil {
		return nil, err
	}

	oldValue := placement.SupervisorID
	placement.SupervisorID = &req.SupervisorID
	if err := s.update(ctx, placement); err != nil {
		return nil, err
	}
	change := &models.PlacementChange{
		PlacementID: id,
		Field:       "supervisor",
		OldValue:    oldValue,
		NewValue:    req.SupervisorID,
		Reason:      req.Reason,
		ChangedBy:   changedBy,
	}
	if err := s.placements.RecordChange(ctx, change); err != nil {
		s.logger.Warn("failed to record supervisor change", zap.String("placement_id", id), zap.Error(err))
	}
	s.logger.Info("placement supervisor changed",
		zap.String("placement_id", id),
		zap.String("supervisor_id", req.SupervisorID))
	return s.loadDetail(ctx, id)
}

// ChangeLocation moves a non-terminal placement to another location and
// records the change with its reason.
func (s *PlacementService) ChangeLocation(ctx context.Context, id, changedBy string, req ChangeLocationRequest) (*models.PlacementDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid location change payload")
	}
	placement, err := s.loadForUpdate(ctx, id, req.Version)
	if err != nil {
		return nil, err
	}
	if placement.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, fmt.Sprintf("placement is %s", placement.Status))
	}

	location, err := s.checkLocation(ctx, req.LocationID)
	if err != nil {
		return nil, err
	}
	if placement.SupervisorID != nil && s.policy.EnforceLocationSupervisorMatch {
		supervisor, err := s.supervisors.FindByID(ctx, *placement.SupervisorID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load supervisor")
		}
		if supervisor.LocationID != nil && *supervisor.LocationID != location.ID {
			return nil, appErrors.Clone(appErrors.ErrNotEligible, "current supervisor is hosted at another location, reassign the supervisor first")
		}
	}

	oldValue := placement.LocationID
	placement.LocationID = req.LocationID
	if err := s.update(ctx, placement); err != nil {
		return nil, err
	}
	change := &models.PlacementChange{
		PlacementID: id,
		Field:       "location",
		OldValue:    &oldValue,
		NewValue:    req.LocationID,
		Reason:      req.Reason,
		ChangedBy:   changedBy,
	}
	if err := s.placements.RecordChange(ctx, change); err != nil {
		s.logger.Warn("failed to record location change", zap.String("placement_id", id), zap.Error(err))
	}
	s.logger.Info("placement location changed",
		zap.String("placement_id", id),
		zap.String("location_id", req.LocationID))
	return s.loadDetail(ctx, id)
}

// Cancel terminates a pending or active placement. Completed or already
// cancelled placements cannot be cancelled again.
func (s *PlacementService) Cancel(ctx context.Context, id string, req CancelPlacementRequest) (*models.PlacementDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cancellation payload")
	}
	placement, err := s.loadForUpdate(ctx, id, req.Version)
	if err != nil {
		return nil, err
	}
	if placement.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, fmt.Sprintf("placement is already %s", placement.Status))
	}
	placement.Status = models.PlacementStatusCancelled
	placement.CancelReason = &req.Reason
	if err := s.update(ctx, placement); err != nil {
		return nil, err
	}
	s.logger.Info("placement cancelled", zap.String("placement_id", id), zap.String("reason", req.Reason))
	return s.loadDetail(ctx, id)
}

// Get returns a placement with context.
func (s *PlacementService) Get(ctx context.Context, id string) (*models.PlacementDetail, error) {
	return s.loadDetail(ctx, id)
}

// List returns placements with pagination metadata.
func (s *PlacementService) List(ctx context.Context, filter models.PlacementFilter) ([]models.PlacementDetail, *models.Pagination, error) {
	placements, total, err := s.placements.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list placements")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return placements, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// History returns the reassignment audit trail of a placement.
func (s *PlacementService) History(ctx context.Context, id string) ([]models.PlacementChange, error) {
	if _, err := s.loadDetail(ctx, id); err != nil {
		return nil, err
	}
	changes, err := s.placements.ListChanges(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list placement changes")
	}
	return changes, nil
}

// ExportDataset flattens placements for CSV export.
func (s *PlacementService) ExportDataset(ctx context.Context, filter models.PlacementFilter) (export.Dataset, error) {
	filter.Page = 1
	filter.PageSize = 100
	placements, _, err := s.placements.List(ctx, filter)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export placements")
	}
	dataset := export.Dataset{
		Headers: []string{"Student", "Student Number", "Location", "Supervisor", "Period", "Status", "Progress"},
	}
	for _, placement := range placements {
		supervisor := ""
		if placement.SupervisorName != nil {
			supervisor = *placement.SupervisorName
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Student":        placement.StudentName,
			"Student Number": placement.StudentNumber,
			"Location":       placement.LocationName,
			"Supervisor":     supervisor,
			"Period":         placement.PeriodName,
			"Status":         string(placement.Status),
			"Progress":       fmt.Sprintf("%d%%", placement.Progress),
		})
	}
	return dataset, nil
}

func (s *PlacementService) checkLocation(ctx context.Context, locationID string) (*models.Location, error) {
	location, err := s.locations.FindByID(ctx, locationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "location not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load location")
	}
	if location.Status != models.LocationStatusActive {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "location is inactive")
	}
	if s.policy.EnforceCapacity {
		occupied, err := s.locations.CountActivePlacements(ctx, locationID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count placements")
		}
		if occupied >= location.Capacity {
			return nil, appErrors.Clone(appErrors.ErrCapacity, fmt.Sprintf("location %s is at capacity (%d)", location.Name, location.Capacity))
		}
	}
	return location, nil
}

func (s *PlacementService) checkSupervisor(ctx context.Context, supervisorID string, location *models.Location) error {
	supervisor, err := s.supervisors.FindByID(ctx, supervisorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "supervisor not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load supervisor")
	}
	if s.policy.EnforceLocationSupervisorMatch && supervisor.LocationID != nil && *supervisor.LocationID != location.ID {
		return appErrors.Clone(appErrors.ErrNotEligible, "supervisor is hosted at another location")
	}
	assigned, err := s.supervisors.CountActiveAssignments(ctx, supervisorID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count supervisor assignments")
	}
	if assigned >= supervisor.MaxStudents {
		return appErrors.Clone(appErrors.ErrCapacity, fmt.Sprintf("supervisor already has %d assigned students", assigned))
	}
	return nil
}

func (s *PlacementService) loadForUpdate(ctx context.Context, id string, version int) (*models.Placement, error) {
	placement, err := s.placements.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "placement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load placement")
	}
	if version > 0 && placement.Version != version {
		return nil, appErrors.Clone(appErrors.ErrVersionConflict, "placement was modified, reload and retry")
	}
	return placement, nil
}

func (s *PlacementService) update(ctx context.Context, placement *models.Placement) error {
	if err := s.placements.Update(ctx, placement); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrVersionConflict, "placement was modified, reload and retry")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update placement")
	}
	return nil
}

func (s *PlacementService) loadDetail(ctx context.Context, id string) (*models.PlacementDetail, error) {
	detail, err := s.placements.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "placement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load placement")
	}
	return detail, nil
}
