package models

import "time"

// LocationStatus represents whether a location accepts placements.
type LocationStatus string

const (
	LocationStatusActive   LocationStatus = "ACTIVE"
	LocationStatusInactive LocationStatus = "INACTIVE"
)

// Location is a partner school hosting teaching-practice placements.
type Location struct {
	ID            string         `db:"id" json:"id"`
	Name          string         `db:"name" json:"name"`
	Address       string         `db:"address" json:"address"`
	Capacity      int            `db:"capacity" json:"capacity"`
	ContactPerson string         `db:"contact_person" json:"contact_person"`
	ContactEmail  string         `db:"contact_email" json:"contact_email"`
	ContactPhone  string         `db:"contact_phone" json:"contact_phone"`
	Status        LocationStatus `db:"status" json:"status"`
	Notes         *string        `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// LocationOccupancy pairs a location with its active placement count.
type LocationOccupancy struct {
	Location
	ActivePlacements int `db:"active_placements" json:"active_placements"`
}

// LocationFilter defines filters supported by list endpoints.
type LocationFilter struct {
	Status    LocationStatus
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
