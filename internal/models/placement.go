package models

import "time"

// PlacementStatus represents the lifecycle of a placement.
type PlacementStatus string

const (
	PlacementStatusPending   PlacementStatus = "PENDING"
	PlacementStatusActive    PlacementStatus = "ACTIVE"
	PlacementStatusCompleted PlacementStatus = "COMPLETED"
	PlacementStatusCancelled PlacementStatus = "CANCELLED"
)

// Terminal reports whether no further transitions are allowed.
func (s PlacementStatus) Terminal() bool {
	return s == PlacementStatusCompleted || s == PlacementStatusCancelled
}

// Placement assigns an approved registration to a location and supervisor.
// Version supports compare-and-swap updates between concurrent admins.
type Placement struct {
	ID             string          `db:"id" json:"id"`
	RegistrationID string          `db:"registration_id" json:"registration_id"`
	LocationID     string          `db:"location_id" json:"location_id"`
	SupervisorID   *string         `db:"supervisor_id" json:"supervisor_id,omitempty"`
	Status         PlacementStatus `db:"status" json:"status"`
	StartDate      *time.Time      `db:"start_date" json:"start_date,omitempty"`
	EndDate        *time.Time      `db:"end_date" json:"end_date,omitempty"`
	Progress       int             `db:"progress" json:"progress"`
	CancelReason   *string         `db:"cancel_reason" json:"cancel_reason,omitempty"`
	Version        int             `db:"version" json:"version"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// PlacementDetail enriches Placement with student, location and supervisor info.
type PlacementDetail struct {
	Placement
	StudentID      string  `db:"student_id" json:"student_id"`
	StudentName    string  `db:"student_name" json:"student_name"`
	StudentNumber  string  `db:"student_number" json:"student_number"`
	LocationName   string  `db:"location_name" json:"location_name"`
	SupervisorName *string `db:"supervisor_name" json:"supervisor_name,omitempty"`
	PeriodID       string  `db:"period_id" json:"period_id"`
	PeriodName     string  `db:"period_name" json:"period_name"`
}

// PlacementChange records a supervisor or location reassignment with its reason.
type PlacementChange struct {
	ID          string    `db:"id" json:"id"`
	PlacementID string    `db:"placement_id" json:"placement_id"`
	Field       string    `db:"field" json:"field"`
	OldValue    *string   `db:"old_value" json:"old_value,omitempty"`
	NewValue    string    `db:"new_value" json:"new_value"`
	Reason      string    `db:"reason" json:"reason"`
	ChangedBy   string    `db:"changed_by" json:"changed_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// PlacementFilter provides filters for listing placements.
type PlacementFilter struct {
	StudentID    string
	LocationID   string
	SupervisorID string
	PeriodID     string
	Status       PlacementStatus
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
