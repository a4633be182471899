package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dimasfarhan/ppl-placement-api/internal/models"
)

const certificateColumns = `id, placement_id, certificate_number, issue_date, status, download_url, created_at, updated_at`

const certificateDetailSelect = `SELECT c.id, c.placement_id, c.certificate_number, c.issue_date, c.status, c.download_url, c.created_at, c.updated_at,
        reg.student_id, u.full_name AS student_name, COALESCE(u.student_number, '') AS student_number, u.major,
        l.name AS location_name, pe.name AS period_name, su.full_name AS supervisor_name
        FROM certificates c
        JOIN placements p ON p.id = c.placement_id
        JOIN student_registrations reg ON reg.id = p.registration_id
        JOIN users u ON u.id = reg.student_id
        JOIN locations l ON l.id = p.location_id
        JOIN ppl_periods pe ON pe.id = reg.period_id
        LEFT JOIN supervisors s ON s.id = p.supervisor_id
        LEFT JOIN users su ON su.id = s.user_id`

// CertificateRepository handles persistence of completion certificates.
type CertificateRepository struct {
	db *sqlx.DB
}

// NewCertificateRepository constructs the repository.
func NewCertificateRepository(db *sqlx.DB) *CertificateRepository {
	return &CertificateRepository{db: db}
}

// FindByID returns a certificate by its ID.
func (r *CertificateRepository) FindByID(ctx context.Context, id string) (*models.Certificate, error) {
	query := fmt.Sprintf(`SELECT %s FROM certificates WHERE id = $1`, certificateColumns)
	var certificate models.Certificate
	if err := r.db.GetContext(ctx, &certificate, query, id); err != nil {
		return nil, err
	}
	return &certificate, nil
}

// FindDetailByID returns a certificate with student and placement context.
func (r *CertificateRepository) FindDetailByID(ctx context.Context, id string) (*models.CertificateDetail, error) {
	query := certificateDetailSelect + ` WHERE c.id = $1`
	var detail models.CertificateDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FindByPlacement returns the certificate seeded for a placement, if any.
func (r *CertificateRepository) FindByPlacement(ctx context.Context, placementID string) (*models.Certificate, error) {
	query := fmt.Sprintf(`SELECT %s FROM certificates WHERE placement_id = $1 LIMIT 1`, certificateColumns)
	var certificate models.Certificate
	if err := r.db.GetContext(ctx, &certificate, query, placementID); err != nil {
		return nil, err
	}
	return &certificate, nil
}

// List returns certificates filtered by the provided criteria.
func (r *CertificateRepository) List(ctx context.Context, filter models.CertificateFilter) ([]models.CertificateDetail, int, error) {
	base := `FROM certificates c
JOIN placements p ON p.id = c.placement_id
JOIN student_registrations reg ON reg.id = p.registration_id
JOIN users u ON u.id = reg.student_id
JOIN locations l ON l.id = p.location_id
JOIN ppl_periods pe ON pe.id = reg.period_id
LEFT JOIN supervisors s ON s.id = p.supervisor_id
LEFT JOIN users su ON su.id = s.user_id`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("reg.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("c.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"created_at":   "c.created_at",
		"issue_date":   "c.issue_date",
		"student_name": "u.full_name",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "c.created_at"
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

	query := fmt.Sprintf(`SELECT c.id, c.placement_id, c.certificate_number, c.issue_date, c.status, c.download_url, c.created_at, c.updated_at,
        reg.student_id, u.full_name AS student_name, COALESCE(u.student_number, '') AS student_number, u.major,
        l.name AS location_name, pe.name AS period_name, su.full_name AS supervisor_name
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var certificates []models.CertificateDetail
	if err := r.db.SelectContext(ctx, &certificates, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list certificates: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count certificates: %w", err)
	}
	return certificates, total, nil
}

// Create persists a new certificate record.
func (r *CertificateRepository) Create(ctx context.Context, certificate *models.Certificate) error {
	if certificate.ID == "" {
		certificate.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if certificate.CreatedAt.IsZero() {
		certificate.CreatedAt = now
	}
	certificate.UpdatedAt = now
	if certificate.Status == "" {
		certificate.Status = models.CertificateStatusPending
	}
	const query = `INSERT INTO certificates (id, placement_id, certificate_number, issue_date, status, download_url, created_at, updated_at)
        VALUES (:id, :placement_id, :certificate_number, :issue_date, :status, :download_url, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, certificate); err != nil {
		return fmt.Errorf("create certificate: %w", err)
	}
	return nil
}

// Update persists status, issue date and download URL changes.
func (r *CertificateRepository) Update(ctx context.Context, certificate *models.Certificate) error {
	certificate.UpdatedAt = time.Now().UTC()
	const query = `UPDATE certificates SET certificate_number = :certificate_number, issue_date = :issue_date,
        status = :status, download_url = :download_url, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, certificate); err != nil {
		return fmt.Errorf("update certificate: %w", err)
	}
	return nil
}
