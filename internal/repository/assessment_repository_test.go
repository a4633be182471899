package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dimasfarhan/ppl-placement-api/internal/models"
)

func submittedAssessment() *models.Assessment {
	now := time.Now().UTC()
	average := 83.6
	tier := "Very Good"
	return &models.Assessment{
		ID:           "a1",
		PlacementID:  "p1",
		SupervisorID: "sup1",
		Type:         models.AssessmentTypeFinal,
		CriterionScores: models.CriterionScores{
			TeachingSkills:      85,
			ClassroomManagement: 80,
			LessonPlanning:      90,
			StudentEngagement:   75,
			ProfessionalConduct: 88,
		},
		OverallPerformance:  "B+",
		Strengths:           "Strong rapport with students",
		AreasForImprovement: "Time management during lessons",
		Recommendations:     "Ready for independent teaching",
		AverageScore:        &average,
		ScoreTier:           &tier,
		Status:              models.AssessmentStatusSubmitted,
		SubmittedAt:         &now,
	}
}

func TestAssessmentSubmitFinalSeedsCertificate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssessmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE assessments SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE placements SET status").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO certificates").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	certificate := &models.Certificate{PlacementID: "p1", CertificateNumber: "PPL-2026-AAAA1111", Status: models.CertificateStatusPending}
	err := repo.SubmitFinal(context.Background(), submittedAssessment(), &models.Placement{ID: "p1", Version: 2}, certificate)
	require.NoError(t, err)
	assert.NotEmpty(t, certificate.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssessmentSubmitFinalWithoutCertificate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssessmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE assessments SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE placements SET status").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.SubmitFinal(context.Background(), submittedAssessment(), &models.Placement{ID: "p1", Version: 2}, nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssessmentSubmitFinalRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssessmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE assessments SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE placements SET status").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.SubmitFinal(context.Background(), submittedAssessment(), &models.Placement{ID: "p1", Version: 2}, nil)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssessmentCreateDefaultsDraft(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssessmentRepository(db)

	mock.ExpectExec("INSERT INTO assessments").WillReturnResult(sqlmock.NewResult(1, 1))

	assessment := &models.Assessment{PlacementID: "p1", SupervisorID: "sup1", Type: models.AssessmentTypeMidterm}
	require.NoError(t, repo.Create(context.Background(), assessment))
	assert.NotEmpty(t, assessment.ID)
	assert.Equal(t, models.AssessmentStatusDraft, assessment.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
