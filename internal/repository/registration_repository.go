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

const registrationColumns = `id, student_id, period_id, status, transcript_uploaded, id_card_uploaded, photo_uploaded, recommendation_uploaded, agreement_accepted, created_at, updated_at`

// RegistrationRepository handles persistence of student registrations.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs the repository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// FindByID returns a registration by its ID.
func (r *RegistrationRepository) FindByID(ctx context.Context, id string) (*models.Registration, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_registrations WHERE id = $1`, registrationColumns)
	var registration models.Registration
	if err := r.db.GetContext(ctx, &registration, query, id); err != nil {
		return nil, err
	}
	return &registration, nil
}

// FindDetailByID returns a registration with student and period context.
func (r *RegistrationRepository) FindDetailByID(ctx context.Context, id string) (*models.RegistrationDetail, error) {
	const query = `SELECT r.id, r.student_id, r.period_id, r.status, r.transcript_uploaded, r.id_card_uploaded, r.photo_uploaded,
        r.recommendation_uploaded, r.agreement_accepted, r.created_at, r.updated_at,
        u.full_name AS student_name, COALESCE(u.student_number, '') AS student_number, p.name AS period_name
        FROM student_registrations r
        JOIN users u ON u.id = r.student_id
        JOIN ppl_periods p ON p.id = r.period_id
        WHERE r.id = $1`
	var detail models.RegistrationDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsOpen reports whether the student already has a pending or approved
// registration for the period.
func (r *RegistrationRepository) ExistsOpen(ctx context.Context, studentID, periodID string) (bool, error) {
	const query = `SELECT 1 FROM student_registrations WHERE student_id = $1 AND period_id = $2 AND status IN ($3, $4) LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, periodID, models.RegistrationStatusPending, models.RegistrationStatusApproved); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check open registration: %w", err)
	}
	return true, nil
}

// List returns registrations filtered by the provided criteria.
func (r *RegistrationRepository) List(ctx context.Context, filter models.RegistrationFilter) ([]models.RegistrationDetail, int, error) {
	base := `FROM student_registrations r
JOIN users u ON u.id = r.student_id
JOIN ppl_periods p ON p.id = r.period_id`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("r.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.PeriodID != "" {
		conditions = append(conditions, fmt.Sprintf("r.period_id = $%d", len(args)+1))
		args = append(args, filter.PeriodID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("r.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"created_at":   "r.created_at",
		"student_name": "u.full_name",
		"period_name":  "p.name",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "r.created_at"
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

	query := fmt.Sprintf(`SELECT r.id, r.student_id, r.period_id, r.status, r.transcript_uploaded, r.id_card_uploaded, r.photo_uploaded,
        r.recommendation_uploaded, r.agreement_accepted, r.created_at, r.updated_at,
        u.full_name AS student_name, COALESCE(u.student_number, '') AS student_number, p.name AS period_name
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var registrations []models.RegistrationDetail
	if err := r.db.SelectContext(ctx, &registrations, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list registrations: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count registrations: %w", err)
	}
	return registrations, total, nil
}

// Create persists a new registration record.
func (r *RegistrationRepository) Create(ctx context.Context, registration *models.Registration) error {
	if registration.ID == "" {
		registration.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if registration.CreatedAt.IsZero() {
		registration.CreatedAt = now
	}
	registration.UpdatedAt = now
	if registration.Status == "" {
		registration.Status = models.RegistrationStatusPending
	}
	const query = `INSERT INTO student_registrations (id, student_id, period_id, status, transcript_uploaded, id_card_uploaded, photo_uploaded, recommendation_uploaded, agreement_accepted, created_at, updated_at)
        VALUES (:id, :student_id, :period_id, :status, :transcript_uploaded, :id_card_uploaded, :photo_uploaded, :recommendation_uploaded, :agreement_accepted, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, registration); err != nil {
		return fmt.Errorf("create registration: %w", err)
	}
	return nil
}

// UpdateDocuments updates the document upload flags for a registration.
func (r *RegistrationRepository) UpdateDocuments(ctx context.Context, registration *models.Registration) error {
	registration.UpdatedAt = time.Now().UTC()
	const query = `UPDATE student_registrations SET transcript_uploaded = :transcript_uploaded, id_card_uploaded = :id_card_uploaded,
        photo_uploaded = :photo_uploaded, recommendation_uploaded = :recommendation_uploaded, agreement_accepted = :agreement_accepted,
        updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, registration); err != nil {
		return fmt.Errorf("update registration documents: %w", err)
	}
	return nil
}

// UpdateStatus transitions a registration to a new status.
func (r *RegistrationRepository) UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus) error {
	const query = `UPDATE student_registrations SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update registration status: %w", err)
	}
	return nil
}
