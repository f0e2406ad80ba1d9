package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/seanma333/project-metronome-app-sub000/internal/models"
)

// LessonRepository manages lessons and their notes.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository constructs a LessonRepository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

const lessonDetailQuery = `SELECT l.id, l.teacher_id, l.timeslot_id, l.student_id, l.instrument_id, l.format, l.created_at, l.updated_at,
		s.full_name AS student_name, u.full_name AS teacher_name, i.name AS instrument_name,
		ts.day_of_week, ts.start_minutes, ts.end_minutes,
		(SELECT n.body FROM lesson_notes n WHERE n.lesson_id = l.id ORDER BY n.created_at DESC LIMIT 1) AS latest_note
	FROM lessons l
	JOIN students s ON s.id = l.student_id
	JOIN users u ON u.id = l.teacher_id
	JOIN instruments i ON i.id = l.instrument_id
	JOIN teacher_timeslots ts ON ts.id = l.timeslot_id`

// FindByID fetches a lesson by id.
func (r *LessonRepository) FindByID(ctx context.Context, id string) (*models.Lesson, error) {
	const query = `SELECT id, teacher_id, timeslot_id, student_id, instrument_id, format, created_at, updated_at FROM lessons WHERE id = $1`
	var lesson models.Lesson
	if err := r.db.GetContext(ctx, &lesson, query, id); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// FindDetail fetches a lesson with display fields and the latest note.
func (r *LessonRepository) FindDetail(ctx context.Context, id string) (*models.LessonDetail, error) {
	var detail models.LessonDetail
	if err := r.db.GetContext(ctx, &detail, lessonDetailQuery+" WHERE l.id = $1", id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListByTeacher returns a teacher's lessons ordered by slot position.
func (r *LessonRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.LessonDetail, error) {
	var lessons []models.LessonDetail
	if err := r.db.SelectContext(ctx, &lessons, lessonDetailQuery+" WHERE l.teacher_id = $1 ORDER BY ts.day_of_week ASC, ts.start_minutes ASC", teacherID); err != nil {
		return nil, fmt.Errorf("list lessons by teacher: %w", err)
	}
	return lessons, nil
}

// ListByOwner returns lessons for students the user owns.
func (r *LessonRepository) ListByOwner(ctx context.Context, userID string) ([]models.LessonDetail, error) {
	var lessons []models.LessonDetail
	if err := r.db.SelectContext(ctx, &lessons, lessonDetailQuery+" WHERE s.user_id = $1 OR s.parent_id = $1 ORDER BY ts.day_of_week ASC, ts.start_minutes ASC", userID); err != nil {
		return nil, fmt.Errorf("list lessons by owner: %w", err)
	}
	return lessons, nil
}

// Delete removes a lesson in one transaction: notes and calendar events go
// first, the timeslot is freed, then the lesson row itself.
func (r *LessonRepository) Delete(ctx context.Context, lesson *models.Lesson) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete lesson: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM lesson_notes WHERE lesson_id = $1`, lesson.ID); err != nil {
		return fmt.Errorf("delete lesson notes: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM calendar_events WHERE lesson_id = $1`, lesson.ID); err != nil {
		return fmt.Errorf("delete lesson calendar events: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `UPDATE teacher_timeslots SET is_booked = FALSE, student_id = NULL, updated_at = $2 WHERE id = $1`, lesson.TimeslotID, time.Now().UTC()); err != nil {
		return fmt.Errorf("free lesson timeslot: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM lessons WHERE id = $1`, lesson.ID); err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete lesson: %w", err)
	}
	return nil
}

// CreateNote attaches a note to a lesson.
func (r *LessonRepository) CreateNote(ctx context.Context, note *models.LessonNote) error {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO lesson_notes (id, lesson_id, author_id, body, created_at) VALUES (:id, :lesson_id, :author_id, :body, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, note); err != nil {
		return fmt.Errorf("create lesson note: %w", err)
	}
	return nil
}

// ListNotes returns a lesson's notes newest first.
func (r *LessonRepository) ListNotes(ctx context.Context, lessonID string) ([]models.LessonNote, error) {
	const query = `SELECT id, lesson_id, author_id, body, created_at FROM lesson_notes WHERE lesson_id = $1 ORDER BY created_at DESC`
	var notes []models.LessonNote
	if err := r.db.SelectContext(ctx, &notes, query, lessonID); err != nil {
		return nil, fmt.Errorf("list lesson notes: %w", err)
	}
	return notes, nil
}
