package models

import "time"

// RegistrationStatus represents the lifecycle of a student registration.
type RegistrationStatus string

const (
	RegistrationStatusPending  RegistrationStatus = "PENDING"
	RegistrationStatusApproved RegistrationStatus = "APPROVED"
	RegistrationStatusRejected RegistrationStatus = "REJECTED"
)

// Registration is a student's application to join a teaching-practice period.
// Approval is gated on the four document flags plus the signed agreement.
type Registration struct {
	ID                    string             `db:"id" json:"id"`
	StudentID             string             `db:"student_id" json:"student_id"`
	PeriodID              string             `db:"period_id" json:"period_id"`
	Status                RegistrationStatus `db:"status" json:"status"`
	TranscriptUploaded    bool               `db:"transcript_uploaded" json:"transcript_uploaded"`
	IDCardUploaded        bool               `db:"id_card_uploaded" json:"id_card_uploaded"`
	PhotoUploaded         bool               `db:"photo_uploaded" json:"photo_uploaded"`
	RecommendationUploaded bool              `db:"recommendation_uploaded" json:"recommendation_uploaded"`
	AgreementAccepted     bool               `db:"agreement_accepted" json:"agreement_accepted"`
	CreatedAt             time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time          `db:"updated_at" json:"updated_at"`
}

// DocumentsComplete reports whether every required upload and the agreement are in place.
func (r Registration) DocumentsComplete() bool {
	return r.TranscriptUploaded && r.IDCardUploaded && r.PhotoUploaded && r.RecommendationUploaded && r.AgreementAccepted
}

// RegistrationDetail enriches Registration with student and period info.
type RegistrationDetail struct {
	Registration
	StudentName   string `db:"student_name" json:"student_name"`
	StudentNumber string `db:"student_number" json:"student_number"`
	PeriodName    string `db:"period_name" json:"period_name"`
}

// RegistrationFilter provides filters for listing registrations.
type RegistrationFilter struct {
	StudentID string
	PeriodID  string
	Status    RegistrationStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
