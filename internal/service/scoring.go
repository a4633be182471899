package service

import "github.com/dimasfarhan/ppl-placement-api/internal/models"

// Score tier labels as shown to supervisors while grading.
const (
	TierPoor      = "Poor"
	TierFair      = "Fair"
	TierGood      = "Good"
	TierVeryGood  = "Very Good"
	TierExcellent = "Excellent"
)

const (
	minCriterionScore = 1
	maxCriterionScore = 100
)

func clampScore(value int) int {
	if value < minCriterionScore {
		return minCriterionScore
	}
	if value > maxCriterionScore {
		return maxCriterionScore
	}
	return value
}

// ClampScores normalises every criterion into the [1,100] range.
func ClampScores(scores models.CriterionScores) models.CriterionScores {
	return models.CriterionScores{
		TeachingSkills:      clampScore(scores.TeachingSkills),
		ClassroomManagement: clampScore(scores.ClassroomManagement),
		LessonPlanning:      clampScore(scores.LessonPlanning),
		StudentEngagement:   clampScore(scores.StudentEngagement),
		ProfessionalConduct: clampScore(scores.ProfessionalConduct),
	}
}

// AverageScore returns the unweighted arithmetic mean of the five criteria.
func AverageScore(scores models.CriterionScores) float64 {
	values := ClampScores(scores).Values()
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

// ScoreTier maps an average to its diagnostic label, lower bound inclusive.
func ScoreTier(average float64) string {
	switch {
	case average < 60:
		return TierPoor
	case average < 70:
		return TierFair
	case average < 80:
		return TierGood
	case average < 90:
		return TierVeryGood
	default:
		return TierExcellent
	}
}

// DeriveLetterGrade maps an average to the administrative letter grade. Used
// only when the grade-derivation policy is enabled; otherwise the supervisor
// picks the grade and the average stays diagnostic.
func DeriveLetterGrade(average float64) string {
	switch {
	case average >= 90:
		return "A"
	case average >= 85:
		return "B+"
	case average >= 75:
		return "B"
	case average >= 65:
		return "C"
	case average >= 55:
		return "D"
	default:
		return "F"
	}
}
