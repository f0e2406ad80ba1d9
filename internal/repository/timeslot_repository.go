package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/seanma333/project-metronome-app-sub000/internal/models"
)

// TimeslotRepository manages the weekly availability grid rows.
type TimeslotRepository struct {
	db *sqlx.DB
}

// NewTimeslotRepository constructs a TimeslotRepository.
func NewTimeslotRepository(db *sqlx.DB) *TimeslotRepository {
	return &TimeslotRepository{db: db}
}

const timeslotColumns = "id, teacher_id, day_of_week, start_minutes, end_minutes, format, is_booked, student_id, created_at, updated_at"

// FindByID fetches a timeslot by id.
func (r *TimeslotRepository) FindByID(ctx context.Context, id string) (*models.Timeslot, error) {
	query := fmt.Sprintf("SELECT %s FROM teacher_timeslots WHERE id = $1", timeslotColumns)
	var slot models.Timeslot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		return nil, err
	}
	return &slot, nil
}

// ListByTeacher returns all of a teacher's slots ordered by day and start.
func (r *TimeslotRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.Timeslot, error) {
	query := fmt.Sprintf("SELECT %s FROM teacher_timeslots WHERE teacher_id = $1 ORDER BY day_of_week ASC, start_minutes ASC", timeslotColumns)
	var slots []models.Timeslot
	if err := r.db.SelectContext(ctx, &slots, query, teacherID); err != nil {
		return nil, fmt.Errorf("list timeslots: %w", err)
	}
	return slots, nil
}

// ListOpenByTeacher returns unbooked slots for the public profile view.
func (r *TimeslotRepository) ListOpenByTeacher(ctx context.Context, teacherID string) ([]models.Timeslot, error) {
	query := fmt.Sprintf("SELECT %s FROM teacher_timeslots WHERE teacher_id = $1 AND is_booked = FALSE ORDER BY day_of_week ASC, start_minutes ASC", timeslotColumns)
	var slots []models.Timeslot
	if err := r.db.SelectContext(ctx, &slots, query, teacherID); err != nil {
		return nil, fmt.Errorf("list open timeslots: %w", err)
	}
	return slots, nil
}

// HasOverlap checks the candidate placement against every other slot of the
// teacher on the same day, using half-open interval intersection.
func (r *TimeslotRepository) HasOverlap(ctx context.Context, teacherID string, dayOfWeek, startMinutes, endMinutes int, excludeID string) (bool, error) {
	query := `SELECT 1 FROM teacher_timeslots WHERE teacher_id = $1 AND day_of_week = $2 AND start_minutes < $3 AND end_minutes > $4`
	args := []interface{}{teacherID, dayOfWeek, endMinutes, startMinutes}
	if excludeID != "" {
		query += " AND id <> $5"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check timeslot overlap: %w", err)
	}
	return true, nil
}

// Create inserts a new timeslot.
func (r *TimeslotRepository) Create(ctx context.Context, slot *models.Timeslot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = now
	}
	slot.UpdatedAt = now

	const query = `INSERT INTO teacher_timeslots (id, teacher_id, day_of_week, start_minutes, end_minutes, format, is_booked, student_id, created_at, updated_at)
		VALUES (:id, :teacher_id, :day_of_week, :start_minutes, :end_minutes, :format, :is_booked, :student_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("create timeslot: %w", err)
	}
	return nil
}

// UpdatePlacement persists a move or resize.
func (r *TimeslotRepository) UpdatePlacement(ctx context.Context, slot *models.Timeslot) error {
	slot.UpdatedAt = time.Now().UTC()
	const query = `UPDATE teacher_timeslots SET day_of_week = :day_of_week, start_minutes = :start_minutes, end_minutes = :end_minutes, format = :format, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("update timeslot placement: %w", err)
	}
	return nil
}

// Delete removes an unbooked timeslot. The affected-rows count is zero when
// the slot is booked, which the caller maps to a conflict.
func (r *TimeslotRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM teacher_timeslots WHERE id = $1 AND is_booked = FALSE`, id)
	if err != nil {
		return false, fmt.Errorf("delete timeslot: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete timeslot rows: %w", err)
	}
	return affected == 1, nil
}
