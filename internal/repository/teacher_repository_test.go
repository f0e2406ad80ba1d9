package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seanma333/project-metronome-app-sub000/internal/models"
)

func TestTeacherRepositorySaveTransaction(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectBegin()
	// The ON CONFLICT clause repeats six named parameters, so the statement
	// binds fourteen values.
	mock.ExpectExec("INSERT INTO teacher_profiles").
		WithArgs("teacher-1", "piano-with-pat", nil, true, models.FormatOnlineOnly, models.AgeAll, sqlmock.AnyArg(), sqlmock.AnyArg(),
			"piano-with-pat", nil, true, models.FormatOnlineOnly, models.AgeAll, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM teacher_instruments WHERE teacher_id").
		WithArgs("teacher-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO teacher_instruments").
		WithArgs("teacher-1", "instrument-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM teacher_languages WHERE teacher_id").
		WithArgs("teacher-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO teacher_languages").
		WithArgs("teacher-1", "language-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	profile := &models.TeacherProfile{
		UserID:            "teacher-1",
		Slug:              "piano-with-pat",
		AcceptingStudents: true,
		Format:            models.FormatOnlineOnly,
		AgePreference:     models.AgeAll,
	}
	err := repo.Save(context.Background(), profile, []string{"instrument-1"}, []string{"language-1"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositorySaveRollsBack(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO teacher_profiles").
		WithArgs("teacher-1", "piano-with-pat", nil, true, models.FormatOnlineOnly, models.AgeAll, sqlmock.AnyArg(), sqlmock.AnyArg(),
			"piano-with-pat", nil, true, models.FormatOnlineOnly, models.AgeAll, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM teacher_instruments WHERE teacher_id").
		WithArgs("teacher-1").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	profile := &models.TeacherProfile{
		UserID:            "teacher-1",
		Slug:              "piano-with-pat",
		AcceptingStudents: true,
		Format:            models.FormatOnlineOnly,
		AgePreference:     models.AgeAll,
	}
	err := repo.Save(context.Background(), profile, []string{"instrument-1"}, nil)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
