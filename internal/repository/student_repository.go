package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/seanma333/project-metronome-app-sub000/internal/models"
)

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = "id, user_id, parent_id, full_name, birth_year, created_at, updated_at"

// FindByID fetches a student by id.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE id = $1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ListByOwner returns student records owned by a user, directly or as parent.
func (r *StudentRepository) ListByOwner(ctx context.Context, userID string) ([]models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE user_id = $1 OR parent_id = $1 ORDER BY created_at ASC", studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, userID); err != nil {
		return nil, fmt.Errorf("list students by owner: %w", err)
	}
	return students, nil
}

// CountByUser returns the number of self-owned student records for a user.
func (r *StudentRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM students WHERE user_id = $1`, userID); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return count, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now

	const query = `INSERT INTO students (id, user_id, parent_id, full_name, birth_year, created_at, updated_at)
		VALUES (:id, :user_id, :parent_id, :full_name, :birth_year, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student record. Ownership columns never change.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET full_name = :full_name, birth_year = :birth_year, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// Delete removes a student in one transaction: lesson notes, calendar
// events, lessons, and booking requests go first, booked timeslots are
// freed, then the instrument links and the student row itself.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete student: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM lesson_notes WHERE lesson_id IN (SELECT id FROM lessons WHERE student_id = $1)`, id); err != nil {
		return fmt.Errorf("delete student lesson notes: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM calendar_events WHERE lesson_id IN (SELECT id FROM lessons WHERE student_id = $1)`, id); err != nil {
		return fmt.Errorf("delete student calendar events: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `UPDATE teacher_timeslots SET is_booked = FALSE, student_id = NULL, updated_at = $2 WHERE student_id = $1`, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("free student timeslots: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM lessons WHERE student_id = $1`, id); err != nil {
		return fmt.Errorf("delete student lessons: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM booking_requests WHERE student_id = $1`, id); err != nil {
		return fmt.Errorf("delete student booking requests: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM student_instruments WHERE student_id = $1`, id); err != nil {
		return fmt.Errorf("delete student instruments: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete student: %w", err)
	}
	return nil
}

// ListInstruments returns the student's instrument interests.
func (r *StudentRepository) ListInstruments(ctx context.Context, studentID string) ([]models.StudentInstrument, error) {
	const query = `SELECT student_id, instrument_id, proficiency FROM student_instruments WHERE student_id = $1`
	var links []models.StudentInstrument
	if err := r.db.SelectContext(ctx, &links, query, studentID); err != nil {
		return nil, fmt.Errorf("list student instruments: %w", err)
	}
	return links, nil
}

// ReplaceInstruments rewrites the student's instrument interests in one
// transaction.
func (r *StudentRepository) ReplaceInstruments(ctx context.Context, studentID string, links []models.StudentInstrument) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace student instruments: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM student_instruments WHERE student_id = $1`, studentID); err != nil {
		return fmt.Errorf("clear student instruments: %w", err)
	}
	for _, link := range links {
		if _, err = tx.ExecContext(ctx, `INSERT INTO student_instruments (student_id, instrument_id, proficiency) VALUES ($1, $2, $3)`, studentID, link.InstrumentID, link.Proficiency); err != nil {
			return fmt.Errorf("insert student instrument: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace student instruments: %w", err)
	}
	return nil
}
