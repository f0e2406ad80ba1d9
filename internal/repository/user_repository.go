package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/seanma333/project-metronome-app-sub000/internal/models"
)

// UserRepository manages persistence for users.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = "id, external_id, email, full_name, role, avatar_url, timezone, created_at, updated_at"

// FindByID fetches a user by internal id.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE id = $1", userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByExternalID fetches a user by the identity provider's subject.
func (r *UserRepository) FindByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE external_id = $1", userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, externalID); err != nil {
		return nil, err
	}
	return &user, nil
}

// Create inserts a new user record.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	const query = `INSERT INTO users (id, external_id, email, full_name, role, avatar_url, timezone, created_at, updated_at)
		VALUES (:id, :external_id, :email, :full_name, :role, :avatar_url, :timezone, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Update modifies an existing user record.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	const query = `UPDATE users SET email = :email, full_name = :full_name, role = :role, avatar_url = :avatar_url, timezone = :timezone, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// SetRole assigns a role during onboarding. It refuses to overwrite an
// existing role: the affected-rows count is zero when the role column is
// already set, and the caller maps that to a conflict.
func (r *UserRepository) SetRole(ctx context.Context, id string, role models.UserRole, timezone string) (bool, error) {
	const query = `UPDATE users SET role = $2, timezone = $3, updated_at = $4 WHERE id = $1 AND role IS NULL`
	result, err := r.db.ExecContext(ctx, query, id, role, timezone, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("set user role: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set user role rows: %w", err)
	}
	return affected == 1, nil
}
