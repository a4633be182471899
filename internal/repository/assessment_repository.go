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

const assessmentColumns = `id, placement_id, supervisor_id, type, teaching_skills, classroom_management, lesson_planning, student_engagement, professional_conduct, overall_performance, strengths, areas_for_improvement, recommendations, additional_comments, average_score, score_tier, status, submitted_at, created_at, updated_at`

// AssessmentRepository handles persistence of assessments.
type AssessmentRepository struct {
	db *sqlx.DB
}

// NewAssessmentRepository constructs the repository.
func NewAssessmentRepository(db *sqlx.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// FindByID returns an assessment by its ID.
func (r *AssessmentRepository) FindByID(ctx context.Context, id string) (*models.Assessment, error) {
	query := fmt.Sprintf(`SELECT %s FROM assessments WHERE id = $1`, assessmentColumns)
	var assessment models.Assessment
	if err := r.db.GetContext(ctx, &assessment, query, id); err != nil {
		return nil, err
	}
	return &assessment, nil
}

// FindByPlacementAndType returns the assessment of one type for a placement, if any.
func (r *AssessmentRepository) FindByPlacementAndType(ctx context.Context, placementID string, typ models.AssessmentType) (*models.Assessment, error) {
	query := fmt.Sprintf(`SELECT %s FROM assessments WHERE placement_id = $1 AND type = $2 LIMIT 1`, assessmentColumns)
	var assessment models.Assessment
	if err := r.db.GetContext(ctx, &assessment, query, placementID, typ); err != nil {
		return nil, err
	}
	return &assessment, nil
}

// List returns assessments filtered by the provided criteria.
func (r *AssessmentRepository) List(ctx context.Context, filter models.AssessmentFilter) ([]models.AssessmentDetail, int, error) {
	base := `FROM assessments a
JOIN placements p ON p.id = a.placement_id
JOIN student_registrations reg ON reg.id = p.registration_id
JOIN users u ON u.id = reg.student_id
JOIN locations l ON l.id = p.location_id`
	var conditions []string
	var args []interface{}

	if filter.PlacementID != "" {
		conditions = append(conditions, fmt.Sprintf("a.placement_id = $%d", len(args)+1))
		args = append(args, filter.PlacementID)
	}
	if filter.SupervisorID != "" {
		conditions = append(conditions, fmt.Sprintf("a.supervisor_id = $%d", len(args)+1))
		args = append(args, filter.SupervisorID)
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("a.type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"created_at":   "a.created_at",
		"submitted_at": "a.submitted_at",
		"student_name": "u.full_name",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "a.created_at"
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

	query := fmt.Sprintf(`SELECT a.id, a.placement_id, a.supervisor_id, a.type, a.teaching_skills, a.classroom_management,
        a.lesson_planning, a.student_engagement, a.professional_conduct, a.overall_performance, a.strengths,
        a.areas_for_improvement, a.recommendations, a.additional_comments, a.average_score, a.score_tier,
        a.status, a.submitted_at, a.created_at, a.updated_at,
        u.full_name AS student_name, COALESCE(u.student_number, '') AS student_number, l.name AS location_name
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var assessments []models.AssessmentDetail
	if err := r.db.SelectContext(ctx, &assessments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list assessments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count assessments: %w", err)
	}
	return assessments, total, nil
}

// Create persists a new draft assessment.
func (r *AssessmentRepository) Create(ctx context.Context, assessment *models.Assessment) error {
	if assessment.ID == "" {
		assessment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if assessment.CreatedAt.IsZero() {
		assessment.CreatedAt = now
	}
	assessment.UpdatedAt = now
	if assessment.Status == "" {
		assessment.Status = models.AssessmentStatusDraft
	}
	const query = `INSERT INTO assessments (id, placement_id, supervisor_id, type, teaching_skills, classroom_management, lesson_planning, student_engagement, professional_conduct, overall_performance, strengths, areas_for_improvement, recommendations, additional_comments, average_score, score_tier, status, submitted_at, created_at, updated_at)
        VALUES (:id, :placement_id, :supervisor_id, :type, :teaching_skills, :classroom_management, :lesson_planning, :student_engagement, :professional_conduct, :overall_performance, :strengths, :areas_for_improvement, :recommendations, :additional_comments, :average_score, :score_tier, :status, :submitted_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assessment); err != nil {
		return fmt.Errorf("create assessment: %w", err)
	}
	return nil
}

// Update persists changes to a draft assessment.
func (r *AssessmentRepository) Update(ctx context.Context, assessment *models.Assessment) error {
	assessment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE assessments SET teaching_skills = :teaching_skills, classroom_management = :classroom_management,
        lesson_planning = :lesson_planning, student_engagement = :student_engagement, professional_conduct = :professional_conduct,
        overall_performance = :overall_performance, strengths = :strengths, areas_for_improvement = :areas_for_improvement,
        recommendations = :recommendations, additional_comments = :additional_comments, average_score = :average_score,
        score_tier = :score_tier, status = :status, submitted_at = :submitted_at, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, assessment); err != nil {
		return fmt.Errorf("update assessment: %w", err)
	}
	return nil
}

// SubmitFinal marks a final assessment submitted, completes its placement and
// seeds the pending certificate inside one transaction so the three writes
// land together or not at all.
func (r *AssessmentRepository) SubmitFinal(ctx context.Context, assessment *models.Assessment, placement *models.Placement, certificate *models.Certificate) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin final submission: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	assessment.UpdatedAt = now
	const assessmentQuery = `UPDATE assessments SET teaching_skills = :teaching_skills, classroom_management = :classroom_management,
        lesson_planning = :lesson_planning, student_engagement = :student_engagement, professional_conduct = :professional_conduct,
        overall_performance = :overall_performance, strengths = :strengths, areas_for_improvement = :areas_for_improvement,
        recommendations = :recommendations, additional_comments = :additional_comments, average_score = :average_score,
        score_tier = :score_tier, status = :status, submitted_at = :submitted_at, updated_at = :updated_at
        WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, assessmentQuery, assessment); err != nil {
		return fmt.Errorf("submit final assessment: %w", err)
	}

	const placementQuery = `UPDATE placements SET status = $2, progress = $3, version = version + 1, updated_at = $4 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, placementQuery, placement.ID, models.PlacementStatusCompleted, 100, now); err != nil {
		return fmt.Errorf("complete placement: %w", err)
	}

	if certificate != nil {
		if certificate.ID == "" {
			certificate.ID = uuid.NewString()
		}
		if certificate.CreatedAt.IsZero() {
			certificate.CreatedAt = now
		}
		certificate.UpdatedAt = now
		const certificateQuery = `INSERT INTO certificates (id, placement_id, certificate_number, issue_date, status, download_url, created_at, updated_at)
            VALUES (:id, :placement_id, :certificate_number, :issue_date, :status, :download_url, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, certificateQuery, certificate); err != nil {
			return fmt.Errorf("seed certificate: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit final submission: %w", err)
	}
	return nil
}

// UpdatePlacementProgress bumps placement progress after a midterm submission.
func (r *AssessmentRepository) UpdatePlacementProgress(ctx context.Context, placementID string, progress int) error {
	const query = `UPDATE placements SET progress = $2, version = version + 1, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, placementID, progress, time.Now().UTC()); err != nil {
		return fmt.Errorf("update placement progress: %w", err)
	}
	return nil
}
