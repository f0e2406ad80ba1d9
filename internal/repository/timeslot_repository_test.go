package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seanma333/project-metronome-app-sub000/internal/models"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTimeslotRepositoryHasOverlap(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewTimeslotRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM teacher_timeslots WHERE teacher_id = $1 AND day_of_week = $2 AND start_minutes < $3 AND end_minutes > $4 LIMIT 1")).
		WithArgs("teacher-1", 1, 600, 540).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	overlaps, err := repo.HasOverlap(context.Background(), "teacher-1", 1, 540, 600, "")
	require.NoError(t, err)
	assert.True(t, overlaps)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeslotRepositoryHasOverlapNone(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewTimeslotRepository(db)

	mock.ExpectQuery("SELECT 1 FROM teacher_timeslots").
		WithArgs("teacher-1", 1, 600, 540).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	overlaps, err := repo.HasOverlap(context.Background(), "teacher-1", 1, 540, 600, "")
	require.NoError(t, err)
	assert.False(t, overlaps)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeslotRepositoryHasOverlapExcludesSelf(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewTimeslotRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("AND id <> $5 LIMIT 1")).
		WithArgs("teacher-1", 2, 660, 600, "slot-9").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	overlaps, err := repo.HasOverlap(context.Background(), "teacher-1", 2, 600, 660, "slot-9")
	require.NoError(t, err)
	assert.False(t, overlaps)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeslotRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewTimeslotRepository(db)

	mock.ExpectExec("INSERT INTO teacher_timeslots").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	slot := &models.Timeslot{TeacherID: "teacher-1", DayOfWeek: 1, StartMinutes: 540, EndMinutes: 600, Format: models.LessonOnline}
	err := repo.Create(context.Background(), slot)
	require.NoError(t, err)
	assert.NotEmpty(t, slot.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeslotRepositoryDeleteBooked(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewTimeslotRepository(db)

	// A booked slot never matches the is_booked = FALSE predicate.
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM teacher_timeslots WHERE id = $1 AND is_booked = FALSE")).
		WithArgs("slot-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := repo.Delete(context.Background(), "slot-1")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeslotRepositoryDeleteOpen(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewTimeslotRepository(db)

	mock.ExpectExec("DELETE FROM teacher_timeslots").
		WithArgs("slot-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := repo.Delete(context.Background(), "slot-1")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
