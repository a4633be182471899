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

const locationColumns = `id, name, address, capacity, contact_person, contact_email, contact_phone, status, notes, created_at, updated_at`

// LocationRepository handles persistence of placement locations.
type LocationRepository struct {
	db *sqlx.DB
}

// NewLocationRepository constructs the repository.
func NewLocationRepository(db *sqlx.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

// FindByID returns a location by its ID.
func (r *LocationRepository) FindByID(ctx context.Context, id string) (*models.Location, error) {
	query := fmt.Sprintf(`SELECT %s FROM locations WHERE id = $1`, locationColumns)
	var location models.Location
	if err := r.db.GetContext(ctx, &location, query, id); err != nil {
		return nil, err
	}
	return &location, nil
}

// List returns locations filtered by the provided criteria.
func (r *LocationRepository) List(ctx context.Context, filter models.LocationFilter) ([]models.Location, int, error) {
	base := `FROM locations`
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(address) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]bool{"name": true, "capacity": true, "created_at": true}
	sortBy := filter.SortBy
	if !allowedSorts[sortBy] {
		sortBy = "name"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", locationColumns, base+clause, sortBy, order, size, offset)
	var locations []models.Location
	if err := r.db.SelectContext(ctx, &locations, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list locations: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count locations: %w", err)
	}
	return locations, total, nil
}

// ListOccupancy returns locations with their active placement counts.
func (r *LocationRepository) ListOccupancy(ctx context.Context) ([]models.LocationOccupancy, error) {
	const query = `SELECT l.id, l.name, l.address, l.capacity, l.contact_person, l.contact_email, l.contact_phone, l.status, l.notes, l.created_at, l.updated_at,
        COUNT(p.id) FILTER (WHERE p.status IN ('PENDING', 'ACTIVE')) AS active_placements
        FROM locations l
        LEFT JOIN placements p ON p.location_id = l.id
        GROUP BY l.id
        ORDER BY l.name ASC`
	var occupancies []models.LocationOccupancy
	if err := r.db.SelectContext(ctx, &occupancies, query); err != nil {
		return nil, fmt.Errorf("list location occupancy: %w", err)
	}
	return occupancies, nil
}

// CountActivePlacements returns the number of non-terminal placements at a location.
func (r *LocationRepository) CountActivePlacements(ctx context.Context, locationID string) (int, error) {
	const query = `SELECT COUNT(*) FROM placements WHERE location_id = $1 AND status IN ($2, $3)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, locationID, models.PlacementStatusPending, models.PlacementStatusActive); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("count active placements: %w", err)
	}
	return count, nil
}

// Create persists a new location record.
func (r *LocationRepository) Create(ctx context.Context, location *models.Location) error {
	if location.ID == "" {
		location.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if location.CreatedAt.IsZero() {
		location.CreatedAt = now
	}
	location.UpdatedAt = now
	if location.Status == "" {
		location.Status = models.LocationStatusActive
	}
	const query = `INSERT INTO locations (id, name, address, capacity, contact_person, contact_email, contact_phone, status, notes, created_at, updated_at)
        VALUES (:id, :name, :address, :capacity, :contact_person, :contact_email, :contact_phone, :status, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, location); err != nil {
		return fmt.Errorf("create location: %w", err)
	}
	return nil
}

// Update persists changes to a location record.
func (r *LocationRepository) Update(ctx context.Context, location *models.Location) error {
	location.UpdatedAt = time.Now().UTC()
	const query = `UPDATE locations SET name = :name, address = :address, capacity = :capacity, contact_person = :contact_person,
        contact_email = :contact_email, contact_phone = :contact_phone, status = :status, notes = :notes, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, location); err != nil {
		return fmt.Errorf("update location: %w", err)
	}
	return nil
}
