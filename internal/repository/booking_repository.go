package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/seanma333/project-metronome-app-sub000/internal/models"
)

// Sentinel errors for booking state guards. Services map these to conflict
// responses.
var (
	ErrRequestNotPending = errors.New("booking request is no longer pending")
	ErrTimeslotBooked    = errors.New("timeslot is already booked")
)

// BookingRepository manages booking requests and the transactional accept.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository constructs a BookingRepository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = "id, student_id, timeslot_id, instrument_id, format, status, message, created_at, updated_at"

// FindByID fetches a booking request by id.
func (r *BookingRepository) FindByID(ctx context.Context, id string) (*models.BookingRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM booking_requests WHERE id = $1", bookingColumns)
	var request models.BookingRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// HasOpenRequest checks for an existing PENDING request on the same slot by
// the same student.
func (r *BookingRepository) HasOpenRequest(ctx context.Context, studentID, timeslotID string) (bool, error) {
	const query = `SELECT 1 FROM booking_requests WHERE student_id = $1 AND timeslot_id = $2 AND status = 'PENDING' LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, timeslotID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check open booking request: %w", err)
	}
	return true, nil
}

// Create inserts a new PENDING booking request.
func (r *BookingRepository) Create(ctx context.Context, request *models.BookingRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if request.CreatedAt.IsZero() {
		request.CreatedAt = now
	}
	request.UpdatedAt = now

	const query = `INSERT INTO booking_requests (id, student_id, timeslot_id, instrument_id, format, status, message, created_at, updated_at)
		VALUES (:id, :student_id, :timeslot_id, :instrument_id, :format, :status, :message, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create booking request: %w", err)
	}
	return nil
}

// UpdateStatus moves a PENDING request into a terminal status. The
// affected-rows count is zero when the request is no longer pending.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, status models.BookingStatus) error {
	const query = `UPDATE booking_requests SET status = $2, updated_at = $3 WHERE id = $1 AND status = 'PENDING'`
	result, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update booking status rows: %w", err)
	}
	if affected != 1 {
		return ErrRequestNotPending
	}
	return nil
}

// Accept performs the atomic accept: request to ACCEPTED, lesson created,
// timeslot marked booked. Both rows are locked and the guards re-evaluated
// inside the transaction, so a racing accept on the same request or slot
// fails here rather than producing a second lesson.
func (r *BookingRepository) Accept(ctx context.Context, requestID string) (*models.Lesson, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin accept booking: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var request models.BookingRequest
	if err = tx.GetContext(ctx, &request, fmt.Sprintf("SELECT %s FROM booking_requests WHERE id = $1 FOR UPDATE", bookingColumns), requestID); err != nil {
		return nil, err
	}
	if request.Status != models.BookingPending {
		err = ErrRequestNotPending
		return nil, err
	}

	var slot models.Timeslot
	if err = tx.GetContext(ctx, &slot, fmt.Sprintf("SELECT %s FROM teacher_timeslots WHERE id = $1 FOR UPDATE", timeslotColumns), request.TimeslotID); err != nil {
		return nil, err
	}
	if slot.IsBooked {
		err = ErrTimeslotBooked
		return nil, err
	}

	now := time.Now().UTC()

	if _, err = tx.ExecContext(ctx, `UPDATE booking_requests SET status = 'ACCEPTED', updated_at = $2 WHERE id = $1`, request.ID, now); err != nil {
		return nil, fmt.Errorf("accept booking request: %w", err)
	}

	lesson := &models.Lesson{
		ID:           uuid.NewString(),
		TeacherID:    slot.TeacherID,
		TimeslotID:   slot.ID,
		StudentID:    request.StudentID,
		InstrumentID: request.InstrumentID,
		Format:       request.Format,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err = tx.NamedExecContext(ctx, `INSERT INTO lessons (id, teacher_id, timeslot_id, student_id, instrument_id, format, created_at, updated_at)
		VALUES (:id, :teacher_id, :timeslot_id, :student_id, :instrument_id, :format, :created_at, :updated_at)`, lesson); err != nil {
		return nil, fmt.Errorf("create lesson: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `UPDATE teacher_timeslots SET is_booked = TRUE, student_id = $2, updated_at = $3 WHERE id = $1`, slot.ID, request.StudentID, now); err != nil {
		return nil, fmt.Errorf("mark timeslot booked: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit accept booking: %w", err)
	}
	return lesson, nil
}

// ListForTeacher returns requests against the teacher's slots, newest first.
func (r *BookingRepository) ListForTeacher(ctx context.Context, teacherID string) ([]models.BookingRequestDetail, error) {
	const query = `SELECT br.id, br.student_id, br.timeslot_id, br.instrument_id, br.format, br.status, br.message, br.created_at, br.updated_at,
			s.full_name AS student_name, ts.teacher_id, i.name AS instrument_name, ts.day_of_week, ts.start_minutes, ts.end_minutes
		FROM booking_requests br
		JOIN teacher_timeslots ts ON ts.id = br.timeslot_id
		JOIN students s ON s.id = br.student_id
		JOIN instruments i ON i.id = br.instrument_id
		WHERE ts.teacher_id = $1
		ORDER BY br.created_at DESC`
	var requests []models.BookingRequestDetail
	if err := r.db.SelectContext(ctx, &requests, query, teacherID); err != nil {
		return nil, fmt.Errorf("list bookings for teacher: %w", err)
	}
	return requests, nil
}

// ListForOwner returns requests made on behalf of students the user owns.
func (r *BookingRepository) ListForOwner(ctx context.Context, userID string) ([]models.BookingRequestDetail, error) {
	const query = `SELECT br.id, br.student_id, br.timeslot_id, br.instrument_id, br.format, br.status, br.message, br.created_at, br.updated_at,
			s.full_name AS student_name, ts.teacher_id, i.name AS instrument_name, ts.day_of_week, ts.start_minutes, ts.end_minutes
		FROM booking_requests br
		JOIN teacher_timeslots ts ON ts.id = br.timeslot_id
		JOIN students s ON s.id = br.student_id
		JOIN instruments i ON i.id = br.instrument_id
		WHERE s.user_id = $1 OR s.parent_id = $1
		ORDER BY br.created_at DESC`
	var requests []models.BookingRequestDetail
	if err := r.db.SelectContext(ctx, &requests, query, userID); err != nil {
		return nil, fmt.Errorf("list bookings for owner: %w", err)
	}
	return requests, nil
}
