package models

import "time"

// LessonFormat is the delivery format of a single slot or lesson.
type LessonFormat string

const (
	LessonInPerson LessonFormat = "IN_PERSON"
	LessonOnline   LessonFormat = "ONLINE"
)

// Valid reports whether the format is a known value.
func (f LessonFormat) Valid() bool {
	return f == LessonInPerson || f == LessonOnline
}

// Timeslot is one recurring weekly availability unit on a teacher's grid.
// Start and end are minutes since local midnight in the teacher's own
// timezone; DayOfWeek uses 0=Sunday through 6=Saturday.
type Timeslot struct {
	ID           string       `db:"id" json:"id"`
	TeacherID    string       `db:"teacher_id" json:"teacher_id"`
	DayOfWeek    int          `db:"day_of_week" json:"day_of_week"`
	StartMinutes int          `db:"start_minutes" json:"start_minutes"`
	EndMinutes   int          `db:"end_minutes" json:"end_minutes"`
	Format       LessonFormat `db:"format" json:"format"`
	IsBooked     bool         `db:"is_booked" json:"is_booked"`
	StudentID    *string      `db:"student_id" json:"student_id,omitempty"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// Duration returns the slot length in minutes.
func (t *Timeslot) Duration() int {
	if t == nil {
		return 0
	}
	return t.EndMinutes - t.StartMinutes
}

// TimeslotView is a slot rendered into a viewer's timezone. Day and times
// may differ from the stored row when the zone offset crosses midnight.
// Both minute fields count from midnight of DayOfWeek, so EndMinutes runs
// past 1440 when the slot ends on the following day.
type TimeslotView struct {
	ID           string       `json:"id"`
	DayOfWeek    int          `json:"day_of_week"`
	StartMinutes int          `json:"start_minutes"`
	EndMinutes   int          `json:"end_minutes"`
	Format       LessonFormat `json:"format"`
	IsBooked     bool         `json:"is_booked"`
	Timezone     string       `json:"timezone"`
}
