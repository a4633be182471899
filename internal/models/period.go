package models

import "time"

// PeriodStatus represents the lifecycle of a teaching-practice period.
type PeriodStatus string

const (
	PeriodStatusUpcoming  PeriodStatus = "UPCOMING"
	PeriodStatusActive    PeriodStatus = "ACTIVE"
	PeriodStatusCompleted PeriodStatus = "COMPLETED"
)

// Period models an administrative term during which placements occur.
type Period struct {
	ID        string       `db:"id" json:"id"`
	Name      string       `db:"name" json:"name"`
	StartDate time.Time    `db:"start_date" json:"start_date"`
	EndDate   time.Time    `db:"end_date" json:"end_date"`
	Status    PeriodStatus `db:"status" json:"status"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt time.Time    `db:"updated_at" json:"updated_at"`
}

// PeriodFilter defines filters supported by list endpoints.
type PeriodFilter struct {
	Status    PeriodStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
