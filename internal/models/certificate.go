package models

import "time"

// CertificateStatus represents the lifecycle of a completion certificate.
// REVOKED existed only in the legacy UI; it is part of the persisted enum here.
type CertificateStatus string

const (
	CertificateStatusPending CertificateStatus = "PENDING"
	CertificateStatusIssued  CertificateStatus = "ISSUED"
	CertificateStatusRevoked CertificateStatus = "REVOKED"
)

// Certificate is the proof-of-completion document for a placement.
type Certificate struct {
	ID                string            `db:"id" json:"id"`
	PlacementID       string            `db:"placement_id" json:"placement_id"`
	CertificateNumber string            `db:"certificate_number" json:"certificate_number"`
	IssueDate         *time.Time        `db:"issue_date" json:"issue_date,omitempty"`
	Status            CertificateStatus `db:"status" json:"status"`
	DownloadURL       *string           `db:"download_url" json:"download_url,omitempty"`
	CreatedAt         time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time         `db:"updated_at" json:"updated_at"`
}

// CertificateDetail enriches Certificate with student and placement context.
type CertificateDetail struct {
	Certificate
	StudentID     string  `db:"student_id" json:"student_id"`
	StudentName   string  `db:"student_name" json:"student_name"`
	StudentNumber string  `db:"student_number" json:"student_number"`
	Major         *string `db:"major" json:"major,omitempty"`
	LocationName  string  `db:"location_name" json:"location_name"`
	PeriodName    string  `db:"period_name" json:"period_name"`
	SupervisorName *string `db:"supervisor_name" json:"supervisor_name,omitempty"`
}

// CertificateFilter provides filters for listing certificates.
type CertificateFilter struct {
	StudentID string
	Status    CertificateStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
