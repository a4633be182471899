package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dimasfarhan/ppl-placement-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func registrationRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "student_id", "period_id", "status", "transcript_uploaded", "id_card_uploaded", "photo_uploaded", "recommendation_uploaded", "agreement_accepted", "created_at", "updated_at"}).
		AddRow("r1", "s1", "p1", string(models.RegistrationStatusPending), true, true, true, true, true, now, now)
}

func TestRegistrationFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, period_id, status, transcript_uploaded, id_card_uploaded, photo_uploaded, recommendation_uploaded, agreement_accepted, created_at, updated_at FROM student_registrations WHERE id = $1")).
		WithArgs("r1").
		WillReturnRows(registrationRows(now))

	registration, err := repo.FindByID(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "s1", registration.StudentID)
	assert.True(t, registration.DocumentsComplete())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationExistsOpen(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectQuery("SELECT 1 FROM student_registrations").
		WithArgs("s1", "p1", string(models.RegistrationStatusPending), string(models.RegistrationStatusApproved)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsOpen(context.Background(), "s1", "p1")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery("SELECT 1 FROM student_registrations").
		WithArgs("s2", "p1", string(models.RegistrationStatusPending), string(models.RegistrationStatusApproved)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err = repo.ExistsOpen(context.Background(), "s2", "p1")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectExec("INSERT INTO student_registrations").WillReturnResult(sqlmock.NewResult(1, 1))

	registration := &models.Registration{StudentID: "s1", PeriodID: "p1"}
	require.NoError(t, repo.Create(context.Background(), registration))
	assert.NotEmpty(t, registration.ID)
	assert.Equal(t, models.RegistrationStatusPending, registration.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationUpdateStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectExec("UPDATE student_registrations SET status").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "r1", models.RegistrationStatusApproved))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "student_id", "period_id", "status", "transcript_uploaded", "id_card_uploaded", "photo_uploaded", "recommendation_uploaded", "agreement_accepted", "created_at", "updated_at", "student_name", "student_number", "period_name"}).
		AddRow("r1", "s1", "p1", string(models.RegistrationStatusPending), true, true, false, false, true, now, now, "Siti Rahma", "2021-001", "2026 Even Semester")
	mock.ExpectQuery(`(?s)SELECT r\.id, r\.student_id, .+ ORDER BY r\.created_at DESC LIMIT 20 OFFSET 0`).
		WithArgs("s1").
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM student_registrations`).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	registrations, total, err := repo.List(context.Background(), models.RegistrationFilter{StudentID: "s1"})
	require.NoError(t, err)
	assert.Len(t, registrations, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Siti Rahma", registrations[0].StudentName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
