package models

import "time"

// Supervisor links a supervisor-role user to a specialization and host location.
type Supervisor struct {
	ID             string    `db:"id" json:"id"`
	UserID         string    `db:"user_id" json:"user_id"`
	Specialization string    `db:"specialization" json:"specialization"`
	MaxStudents    int       `db:"max_students" json:"max_students"`
	LocationID     *string   `db:"location_id" json:"location_id,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// SupervisorDetail enriches Supervisor with user and location info.
type SupervisorDetail struct {
	Supervisor
	FullName     string  `db:"full_name" json:"full_name"`
	Email        string  `db:"email" json:"email"`
	LocationName *string `db:"location_name" json:"location_name,omitempty"`
}

// SupervisorLoad pairs a supervisor with the count of non-terminal placements.
type SupervisorLoad struct {
	SupervisorDetail
	AssignedStudents int `db:"assigned_students" json:"assigned_students"`
}

// SupervisorFilter captures list filters.
type SupervisorFilter struct {
	LocationID string
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
