package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/dimasfarhan/ppl-placement-api/internal/models"
)

// DashboardRepository aggregates counts for the admin dashboard.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs the repository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// AdminStats returns program-wide aggregate counts in one round trip.
func (r *DashboardRepository) AdminStats(ctx context.Context) (*models.AdminStats, error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM users WHERE role = 'STUDENT' AND active = TRUE) AS total_students,
        (SELECT COUNT(*) FROM student_registrations WHERE status = 'PENDING') AS pending_registrations,
        (SELECT COUNT(*) FROM student_registrations WHERE status = 'APPROVED') AS approved_registrations,
        (SELECT COUNT(*) FROM placements WHERE status = 'ACTIVE') AS active_placements,
        (SELECT COUNT(*) FROM placements WHERE status = 'COMPLETED') AS completed_placements,
        (SELECT COUNT(*) FROM certificates WHERE status = 'PENDING') AS pending_certificates,
        (SELECT COUNT(*) FROM certificates WHERE status = 'ISSUED') AS issued_certificates,
        (SELECT COUNT(*) FROM locations WHERE status = 'ACTIVE') AS active_locations`
	var stats models.AdminStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("load admin stats: %w", err)
	}
	return &stats, nil
}
