package models

import "time"

// CalendarEventStatus mirrors the iCalendar STATUS property values used here.
type CalendarEventStatus string

const (
	EventConfirmed CalendarEventStatus = "CONFIRMED"
	EventCancelled CalendarEventStatus = "CANCELLED"
)

// CalendarEvent is the denormalized recurring-event projection of a lesson.
// DtStart/DtEnd hold one concrete occurrence; RRule is the serialized weekly
// recurrence per RFC 5545. At most one event exists per lesson.
type CalendarEvent struct {
	ID        string              `db:"id" json:"id"`
	LessonID  string              `db:"lesson_id" json:"lesson_id"`
	DtStart   time.Time           `db:"dtstart" json:"dtstart"`
	DtEnd     time.Time           `db:"dtend" json:"dtend"`
	RRule     string              `db:"rrule" json:"rrule"`
	Timezone  string              `db:"timezone" json:"timezone"`
	Status    CalendarEventStatus `db:"status" json:"status"`
	CreatedAt time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt time.Time           `db:"updated_at" json:"updated_at"`
}

// CalendarEventView decorates the stored event with the next occurrence
// computed at read time.
type CalendarEventView struct {
	CalendarEvent
	NextOccurrence time.Time `json:"next_occurrence"`
}
