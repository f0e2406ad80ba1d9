package models

import "time"

// Lesson is created exactly once, when a booking request is accepted.
type Lesson struct {
	ID           string       `db:"id" json:"id"`
	TeacherID    string       `db:"teacher_id" json:"teacher_id"`
	TimeslotID   string       `db:"timeslot_id" json:"timeslot_id"`
	StudentID    string       `db:"student_id" json:"student_id"`
	InstrumentID string       `db:"instrument_id" json:"instrument_id"`
	Format       LessonFormat `db:"format" json:"format"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// LessonNote is free text a teacher attaches to a lesson.
type LessonNote struct {
	ID        string    `db:"id" json:"id"`
	LessonID  string    `db:"lesson_id" json:"lesson_id"`
	AuthorID  string    `db:"author_id" json:"author_id"`
	Body      string    `db:"body" json:"body"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// LessonDetail joins a lesson with display fields and the latest note.
type LessonDetail struct {
	Lesson
	StudentName    string     `db:"student_name" json:"student_name"`
	TeacherName    string     `db:"teacher_name" json:"teacher_name"`
	InstrumentName string     `db:"instrument_name" json:"instrument_name"`
	DayOfWeek      int        `db:"day_of_week" json:"day_of_week"`
	StartMinutes   int        `db:"start_minutes" json:"start_minutes"`
	EndMinutes     int        `db:"end_minutes" json:"end_minutes"`
	LatestNote     *string    `db:"latest_note" json:"latest_note,omitempty"`
	NextOccurrence *time.Time `json:"next_occurrence,omitempty"`
}
