package models

import "time"

// AssessmentType distinguishes midterm and final evaluations.
type AssessmentType string

const (
	AssessmentTypeMidterm AssessmentType = "MIDTERM"
	AssessmentTypeFinal   AssessmentType = "FINAL"
)

// AssessmentStatus represents draft vs submitted state.
type AssessmentStatus string

const (
	AssessmentStatusDraft     AssessmentStatus = "DRAFT"
	AssessmentStatusSubmitted AssessmentStatus = "SUBMITTED"
)

// CriterionScores holds the five numeric evaluation criteria, each 1-100.
type CriterionScores struct {
	TeachingSkills      int `db:"teaching_skills" json:"teaching_skills"`
	ClassroomManagement int `db:"classroom_management" json:"classroom_management"`
	LessonPlanning      int `db:"lesson_planning" json:"lesson_planning"`
	StudentEngagement   int `db:"student_engagement" json:"student_engagement"`
	ProfessionalConduct int `db:"professional_conduct" json:"professional_conduct"`
}

// Values returns the criteria in their canonical order.
func (c CriterionScores) Values() []int {
	return []int{c.TeachingSkills, c.ClassroomManagement, c.LessonPlanning, c.StudentEngagement, c.ProfessionalConduct}
}

// Assessment is a supervisor-authored evaluation of a placement.
// The numeric average and tier are diagnostic; OverallPerformance is the
// administrative letter grade, which may be derived from the average by policy.
type Assessment struct {
	ID                  string           `db:"id" json:"id"`
	PlacementID         string           `db:"placement_id" json:"placement_id"`
	SupervisorID        string           `db:"supervisor_id" json:"supervisor_id"`
	Type                AssessmentType   `db:"type" json:"type"`
	CriterionScores
	OverallPerformance  string           `db:"overall_performance" json:"overall_performance"`
	Strengths           string           `db:"strengths" json:"strengths"`
	AreasForImprovement string           `db:"areas_for_improvement" json:"areas_for_improvement"`
	Recommendations     string           `db:"recommendations" json:"recommendations"`
	AdditionalComments  *string          `db:"additional_comments" json:"additional_comments,omitempty"`
	AverageScore        *float64         `db:"average_score" json:"average_score,omitempty"`
	ScoreTier           *string          `db:"score_tier" json:"score_tier,omitempty"`
	Status              AssessmentStatus `db:"status" json:"status"`
	SubmittedAt         *time.Time       `db:"submitted_at" json:"submitted_at,omitempty"`
	CreatedAt           time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time        `db:"updated_at" json:"updated_at"`
}

// AssessmentDetail enriches Assessment with student and placement context.
type AssessmentDetail struct {
	Assessment
	StudentName   string `db:"student_name" json:"student_name"`
	StudentNumber string `db:"student_number" json:"student_number"`
	LocationName  string `db:"location_name" json:"location_name"`
}

// AssessmentFilter provides filters for listing assessments.
type AssessmentFilter struct {
	PlacementID  string
	SupervisorID string
	Type         AssessmentType
	Status       AssessmentStatus
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
