package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dimasfarhan/ppl-placement-api/internal/models"
)

func TestPlacementFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPlacementRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "registration_id", "location_id", "supervisor_id", "status", "start_date", "end_date", "progress", "cancel_reason", "version", "created_at", "updated_at"}).
		AddRow("p1", "r1", "l1", "sup1", string(models.PlacementStatusActive), now, now.AddDate(0, 3, 0), 50, nil, 2, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, registration_id, location_id, supervisor_id, status, start_date, end_date, progress, cancel_reason, version, created_at, updated_at FROM placements WHERE id = $1")).
		WithArgs("p1").
		WillReturnRows(rows)

	placement, err := repo.FindByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, models.PlacementStatusActive, placement.Status)
	assert.Equal(t, 2, placement.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlacementUpdateBumpsVersion(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPlacementRepository(db)

	mock.ExpectExec("UPDATE placements SET").WillReturnResult(sqlmock.NewResult(0, 1))

	placement := &models.Placement{ID: "p1", LocationID: "l1", Status: models.PlacementStatusActive, Version: 2}
	require.NoError(t, repo.Update(context.Background(), placement))
	assert.Equal(t, 3, placement.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlacementUpdateStaleVersion(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPlacementRepository(db)

	mock.ExpectExec("UPDATE placements SET").WillReturnResult(sqlmock.NewResult(0, 0))

	placement := &models.Placement{ID: "p1", LocationID: "l1", Status: models.PlacementStatusActive, Version: 1}
	err := repo.Update(context.Background(), placement)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlacementExistsForRegistration(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPlacementRepository(db)

	mock.ExpectQuery("SELECT 1 FROM placements").
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsForRegistration(context.Background(), "r1")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlacementRecordAndListChanges(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPlacementRepository(db)

	mock.ExpectExec("INSERT INTO placement_changes").WillReturnResult(sqlmock.NewResult(1, 1))

	change := &models.PlacementChange{PlacementID: "p1", Field: "supervisor", NewValue: "sup2", Reason: "supervisor on leave", ChangedBy: "admin-1"}
	require.NoError(t, repo.RecordChange(context.Background(), change))
	assert.NotEmpty(t, change.ID)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "placement_id", "field", "old_value", "new_value", "reason", "changed_by", "created_at"}).
		AddRow("ch1", "p1", "supervisor", "sup1", "sup2", "supervisor on leave", "admin-1", now)
	mock.ExpectQuery("SELECT id, placement_id, field, old_value, new_value").
		WithArgs("p1").
		WillReturnRows(rows)

	changes, err := repo.ListChanges(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "supervisor", changes[0].Field)
	assert.NoError(t, mock.ExpectationsWereMet())
}
