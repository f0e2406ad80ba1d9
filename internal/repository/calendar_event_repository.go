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

// CalendarEventRepository manages the derived recurring-event rows.
type CalendarEventRepository struct {
	db *sqlx.DB
}

// NewCalendarEventRepository constructs a CalendarEventRepository.
func NewCalendarEventRepository(db *sqlx.DB) *CalendarEventRepository {
	return &CalendarEventRepository{db: db}
}

const calendarColumns = "id, lesson_id, dtstart, dtend, rrule, timezone, status, created_at, updated_at"

// FindByLesson fetches the event projected from a lesson, if any.
func (r *CalendarEventRepository) FindByLesson(ctx context.Context, lessonID string) (*models.CalendarEvent, error) {
	query := fmt.Sprintf("SELECT %s FROM calendar_events WHERE lesson_id = $1", calendarColumns)
	var event models.CalendarEvent
	if err := r.db.GetContext(ctx, &event, query, lessonID); err != nil {
		return nil, err
	}
	return &event, nil
}

// ExistsByLesson checks whether a lesson already has an event.
func (r *CalendarEventRepository) ExistsByLesson(ctx context.Context, lessonID string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM calendar_events WHERE lesson_id = $1 LIMIT 1`, lessonID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check calendar event: %w", err)
	}
	return true, nil
}

// Create inserts a new calendar event.
func (r *CalendarEventRepository) Create(ctx context.Context, event *models.CalendarEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now

	const query = `INSERT INTO calendar_events (id, lesson_id, dtstart, dtend, rrule, timezone, status, created_at, updated_at)
		VALUES (:id, :lesson_id, :dtstart, :dtend, :rrule, :timezone, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create calendar event: %w", err)
	}
	return nil
}

// Delete removes a calendar event.
func (r *CalendarEventRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM calendar_events WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete calendar event: %w", err)
	}
	return nil
}
