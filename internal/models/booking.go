package models

import "time"

// BookingStatus is the state of a booking request. PENDING is the only
// non-terminal state.
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingAccepted  BookingStatus = "ACCEPTED"
	BookingDenied    BookingStatus = "DENIED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// Terminal reports whether the status allows no further transitions.
func (s BookingStatus) Terminal() bool {
	return s != BookingPending
}

// BookingRequest is a student's request for a specific open timeslot.
type BookingRequest struct {
	ID           string        `db:"id" json:"id"`
	StudentID    string        `db:"student_id" json:"student_id"`
	TimeslotID   string        `db:"timeslot_id" json:"timeslot_id"`
	InstrumentID string        `db:"instrument_id" json:"instrument_id"`
	Format       LessonFormat  `db:"format" json:"format"`
	Status       BookingStatus `db:"status" json:"status"`
	Message      *string       `db:"message" json:"message,omitempty"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}

// BookingRequestDetail joins the request with names needed by list views.
type BookingRequestDetail struct {
	BookingRequest
	StudentName    string `db:"student_name" json:"student_name"`
	TeacherID      string `db:"teacher_id" json:"teacher_id"`
	InstrumentName string `db:"instrument_name" json:"instrument_name"`
	DayOfWeek      int    `db:"day_of_week" json:"day_of_week"`
	StartMinutes   int    `db:"start_minutes" json:"start_minutes"`
	EndMinutes     int    `db:"end_minutes" json:"end_minutes"`
}
