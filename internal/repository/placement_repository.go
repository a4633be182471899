package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dimasfarhan/ppl-placement-api/internal/models"
)

const placementColumns = `id, registration_id, location_id, supervisor_id, status, start_date, end_date, progress, cancel_reason, version, created_at, updated_at`

const placementDetailSelect = `SELECT p.id, p.registration_id, p.location_id, p.supervisor_id, p.status, p.start_date, p.end_date,
        p.progress, p.cancel_reason, p.version, p.created_at, p.updated_at,
        r.student_id, u.full_name AS student_name, COALESCE(u.student_number, '') AS student_number,
        l.name AS location_name, su.full_name AS supervisor_name,
        r.period_id, pe.name AS period_name
        FROM placements p
        JOIN student_registrations r ON r.id = p.registration_id
        JOIN users u ON u.id = r.student_id
        JOIN locations l ON l.id = p.location_id
        JOIN ppl_periods pe ON pe.id = r.period_id
        LEFT JOIN supervisors s ON s.id = p.supervisor_id
        LEFT JOIN users su ON su.id = s.user_id`

// PlacementRepository handles persistence of placements, the central
// record of the teaching-practice lifecycle.
type PlacementRepository struct {
	db *sqlx.DB
}

// NewPlacementRepository constructs the repository.
func NewPlacementRepository(db *sqlx.DB) *PlacementRepository {
	return &PlacementRepository{db: db}
}

// FindByID returns a placement by its ID.
func (r *PlacementRepository) FindByID(ctx context.Context, id string) (*models.Placement, error) {
	query := fmt.Sprintf(`SELECT %s FROM placements WHERE id = $1`, placementColumns)
	var placement models.Placement
	if err := r.db.GetContext(ctx, &placement, query, id); err != nil {
		return nil, err
	}
	return &placement, nil
}

// FindDetailByID returns a placement with student, location and supervisor context.
func (r *PlacementRepository) FindDetailByID(ctx context.Context, id string) (*models.PlacementDetail, error) {
	query := placementDetailSelect + ` WHERE p.id = $1`
	var detail models.PlacementDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsForRegistration reports whether any placement references the registration.
func (r *PlacementRepository) ExistsForRegistration(ctx context.Context, registrationID string) (bool, error) {
	const query = `SELECT 1 FROM placements WHERE registration_id = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, registrationID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check placement for registration: %w", err)
	}
	return true, nil
}

// List returns placements filtered by the provided criteria.
func (r *PlacementRepository) List(ctx context.Context, filter models.PlacementFilter) ([]models.PlacementDetail, int, error) {
	base := `FROM placements p
JOIN student_registrations r ON r.id = p.registration_id
JOIN users u ON u.id = r.student_id
JOIN locations l ON l.id = p.location_id
JOIN ppl_periods pe ON pe.id = r.period_id
LEFT JOIN supervisors s ON s.id = p.supervisor_id
LEFT JOIN users su ON su.id = s.user_id`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("r.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.LocationID != "" {
		conditions = append(conditions, fmt.Sprintf("p.location_id = $%d", len(args)+1))
		args = append(args, filter.LocationID)
	}
	if filter.SupervisorID != "" {
		conditions = append(conditions, fmt.Sprintf("p.supervisor_id = $%d", len(args)+1))
		args = append(args, filter.SupervisorID)
	}
	if filter.PeriodID != "" {
		conditions = append(conditions, fmt.Sprintf("r.period_id = $%d", len(args)+1))
		args = append(args, filter.PeriodID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"created_at":   "p.created_at",
		"student_name": "u.full_name",
		"location":     "l.name",
		"status":       "p.status",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "p.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT p.id, p.registration_id, p.location_id, p.supervisor_id, p.status, p.start_date, p.end_date,
        p.progress, p.cancel_reason, p.version, p.created_at, p.updated_at,
        r.student_id, u.full_name AS student_name, COALESCE(u.student_number, '') AS student_number,
        l.name AS location_name, su.full_name AS supervisor_name,
        r.period_id, pe.name AS period_name
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var placements []models.PlacementDetail
	if err := r.db.SelectContext(ctx, &placements, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list placements: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count placements: %w", err)
	}
	return placements, total, nil
}

// Create persists a new placement record.
func (r *PlacementRepository) Create(ctx context.Context, placement *models.Placement) error {
	if placement.ID == "" {
		placement.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if placement.CreatedAt.IsZero() {
		placement.CreatedAt = now
	}
	placement.UpdatedAt = now
	if placement.Status == "" {
		placement.Status = models.PlacementStatusPending
	}
	if placement.Version == 0 {
		placement.Version = 1
	}
	const query = `INSERT INTO placements (id, registration_id, location_id, supervisor_id, status, start_date, end_date, progress, cancel_reason, version, created_at, updated_at)
        VALUES (:id, :registration_id, :location_id, :supervisor_id, :status, :start_date, :end_date, :progress, :cancel_reason, :version, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, placement); err != nil {
		return fmt.Errorf("create placement: %w", err)
	}
	return nil
}

// Update persists the full mutable state of a placement guarded by its
// version counter. Returns sql.ErrNoRows when the version is stale.
func (r *PlacementRepository) Update(ctx context.Context, placement *models.Placement) error {
	expected := placement.Version
	placement.UpdatedAt = time.Now().UTC()
	const query = `UPDATE placements SET location_id = $2, supervisor_id = $3, status = $4, start_date = $5, end_date = $6,
        progress = $7, cancel_reason = $8, version = version + 1, updated_at = $9
        WHERE id = $1 AND version = $10`
	result, err := r.db.ExecContext(ctx, query,
		placement.ID, placement.LocationID, placement.SupervisorID, placement.Status,
		placement.StartDate, placement.EndDate, placement.Progress, placement.CancelReason,
		placement.UpdatedAt, expected)
	if err != nil {
		return fmt.Errorf("update placement: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update placement rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	placement.Version = expected + 1
	return nil
}

// RecordChange stores a reassignment entry for auditability.
func (r *PlacementRepository) RecordChange(ctx context.Context, change *models.PlacementChange) error {
	if change.ID == "" {
		change.ID = uuid.NewString()
	}
	if change.CreatedAt.IsZero() {
		change.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO placement_changes (id, placement_id, field, old_value, new_value, reason, changed_by, created_at)
        VALUES (:id, :placement_id, :field, :old_value, :new_value, :reason, :changed_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, change); err != nil {
		return fmt.Errorf("record placement change: %w", err)
	}
	return nil
}

// ListChanges returns the reassignment history for a placement.
func (r *PlacementRepository) ListChanges(ctx context.Context, placementID string) ([]models.PlacementChange, error) {
	const query = `SELECT id, placement_id, field, old_value, new_value, reason, changed_by, created_at
        FROM placement_changes WHERE placement_id = $1 ORDER BY created_at DESC`
	var changes []models.PlacementChange
	if err := r.db.SelectContext(ctx, &changes, query, placementID); err != nil {
		return nil, fmt.Errorf("list placement changes: %w", err)
	}
	return changes, nil
}
