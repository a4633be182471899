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

// SupervisorRepository handles persistence of supervisors.
type SupervisorRepository struct {
	db *sqlx.DB
}

// NewSupervisorRepository constructs the repository.
func NewSupervisorRepository(db *sqlx.DB) *SupervisorRepository {
	return &SupervisorRepository{db: db}
}

// FindByID returns a supervisor by its ID.
func (r *SupervisorRepository) FindByID(ctx context.Context, id string) (*models.Supervisor, error) {
	const query = `SELECT id, user_id, specialization, max_students, location_id, created_at, updated_at FROM supervisors WHERE id = $1`
	var supervisor models.Supervisor
	if err := r.db.GetContext(ctx, &supervisor, query, id); err != nil {
		return nil, err
	}
	return &supervisor, nil
}

// FindByUserID returns the supervisor record owned by a user account.
func (r *SupervisorRepository) FindByUserID(ctx context.Context, userID string) (*models.Supervisor, error) {
	const query = `SELECT id, user_id, specialization, max_students, location_id, created_at, updated_at FROM supervisors WHERE user_id = $1`
	var supervisor models.Supervisor
	if err := r.db.GetContext(ctx, &supervisor, query, userID); err != nil {
		return nil, err
	}
	return &supervisor, nil
}

// FindDetailByID returns a supervisor with user and location context.
func (r *SupervisorRepository) FindDetailByID(ctx context.Context, id string) (*models.SupervisorDetail, error) {
	const query = `SELECT s.id, s.user_id, s.specialization, s.max_students, s.location_id, s.created_at, s.updated_at,
        u.full_name, u.email, l.name AS location_name
        FROM supervisors s
        JOIN users u ON u.id = s.user_id
        LEFT JOIN locations l ON l.id = s.location_id
        WHERE s.id = $1`
	var detail models.SupervisorDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// List returns supervisors with load counts filtered by the provided criteria.
func (r *SupervisorRepository) List(ctx context.Context, filter models.SupervisorFilter) ([]models.SupervisorLoad, int, error) {
	base := `FROM supervisors s
JOIN users u ON u.id = s.user_id
LEFT JOIN locations l ON l.id = s.location_id`
	var conditions []string
	var args []interface{}

	if filter.LocationID != "" {
		conditions = append(conditions, fmt.Sprintf("s.location_id = $%d", len(args)+1))
		args = append(args, filter.LocationID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(u.full_name) LIKE $%d OR LOWER(s.specialization) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"full_name":      "u.full_name",
		"specialization": "s.specialization",
		"created_at":     "s.created_at",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "u.full_name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
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

	query := fmt.Sprintf(`SELECT s.id, s.user_id, s.specialization, s.max_students, s.location_id, s.created_at, s.updated_at,
        u.full_name, u.email, l.name AS location_name,
        (SELECT COUNT(*) FROM placements p WHERE p.supervisor_id = s.id AND p.status IN ('PENDING', 'ACTIVE')) AS assigned_students
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var supervisors []models.SupervisorLoad
	if err := r.db.SelectContext(ctx, &supervisors, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list supervisors: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count supervisors: %w", err)
	}
	return supervisors, total, nil
}

// CountActiveAssignments returns the number of non-terminal placements supervised.
func (r *SupervisorRepository) CountActiveAssignments(ctx context.Context, supervisorID string) (int, error) {
	const query = `SELECT COUNT(*) FROM placements WHERE supervisor_id = $1 AND status IN ($2, $3)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, supervisorID, models.PlacementStatusPending, models.PlacementStatusActive); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("count supervisor assignments: %w", err)
	}
	return count, nil
}

// Create persists a new supervisor record.
func (r *SupervisorRepository) Create(ctx context.Context, supervisor *models.Supervisor) error {
	if supervisor.ID == "" {
		supervisor.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if supervisor.CreatedAt.IsZero() {
		supervisor.CreatedAt = now
	}
	supervisor.UpdatedAt = now
	const query = `INSERT INTO supervisors (id, user_id, specialization, max_students, location_id, created_at, updated_at)
        VALUES (:id, :user_id, :specialization, :max_students, :location_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, supervisor); err != nil {
		return fmt.Errorf("create supervisor: %w", err)
	}
	return nil
}

// Update persists changes to a supervisor record.
func (r *SupervisorRepository) Update(ctx context.Context, supervisor *models.Supervisor) error {
	supervisor.UpdatedAt = time.Now().UTC()
	const query = `UPDATE supervisors SET specialization = :specialization, max_students = :max_students, location_id = :location_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, supervisor); err != nil {
		return fmt.Errorf("update supervisor: %w", err)
	}
	return nil
}
