package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin      UserRole = "ADMIN"
	RoleSupervisor UserRole = "SUPERVISOR"
	RoleStudent    UserRole = "STUDENT"
)

// User represents an application user stored in the users table.
// Student-specific columns are nullable and stay empty for staff accounts.
type User struct {
	ID               string    `db:"id" json:"id"`
	Username         string    `db:"username" json:"username"`
	PasswordHash     string    `db:"password_hash" json:"-"`
	Role             UserRole  `db:"role" json:"role"`
	FullName         string    `db:"full_name" json:"full_name"`
	Email            string    `db:"email" json:"email"`
	Phone            *string   `db:"phone" json:"phone,omitempty"`
	Address          *string   `db:"address" json:"address,omitempty"`
	StudentNumber    *string   `db:"student_number" json:"student_number,omitempty"`
	Major            *string   `db:"major" json:"major,omitempty"`
	Semester         *int      `db:"semester" json:"semester,omitempty"`
	EmergencyContact *string   `db:"emergency_contact" json:"emergency_contact,omitempty"`
	Active           bool      `db:"active" json:"active"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
