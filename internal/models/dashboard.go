package models

import "time"

// StudentDashboard summarises a student's progress through the program.
type StudentDashboard struct {
	Registration *RegistrationDetail `json:"registration,omitempty"`
	Placement    *PlacementDetail    `json:"placement,omitempty"`
	Assessments  []AssessmentDetail  `json:"assessments,omitempty"`
	Certificate  *CertificateDetail  `json:"certificate,omitempty"`
}

// SupervisorDashboard summarises a supervisor's assigned students.
type SupervisorDashboard struct {
	Placements        []PlacementDetail `json:"placements"`
	PendingAssessments int              `json:"pending_assessments"`
	SubmittedAssessments int            `json:"submitted_assessments"`
}

// AdminStats carries aggregate counts for the admin dashboard.
type AdminStats struct {
	TotalStudents         int       `db:"total_students" json:"total_students"`
	PendingRegistrations  int       `db:"pending_registrations" json:"pending_registrations"`
	ApprovedRegistrations int       `db:"approved_registrations" json:"approved_registrations"`
	ActivePlacements      int       `db:"active_placements" json:"active_placements"`
	CompletedPlacements   int       `db:"completed_placements" json:"completed_placements"`
	PendingCertificates   int       `db:"pending_certificates" json:"pending_certificates"`
	IssuedCertificates    int       `db:"issued_certificates" json:"issued_certificates"`
	ActiveLocations       int       `db:"active_locations" json:"active_locations"`
	GeneratedAt           time.Time `json:"generated_at"`
}
