package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seanma333/project-metronome-app-sub000/internal/models"
)

func TestUserRepositorySetRole(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("UPDATE users SET role").
		WithArgs("user-1", models.RoleTeacher, "America/New_York", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assigned, err := repo.SetRole(context.Background(), "user-1", models.RoleTeacher, "America/New_York")
	require.NoError(t, err)
	assert.True(t, assigned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositorySetRoleAlreadyAssigned(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewUserRepository(db)

	// The role IS NULL predicate filters out users with a role already.
	mock.ExpectExec("UPDATE users SET role").
		WithArgs("user-1", models.RoleStudent, "UTC", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assigned, err := repo.SetRole(context.Background(), "user-1", models.RoleStudent, "UTC")
	require.NoError(t, err)
	assert.False(t, assigned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	user := &models.User{ExternalID: "ext-1", Email: "a@b.c", FullName: "A", Timezone: "UTC"}
	err := repo.Create(context.Background(), user)
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
