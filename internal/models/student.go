package models

import "time"

// Student represents a learner. Exactly one of UserID (a STUDENT user
// learning for themselves) or ParentID (a PARENT user's child record) is set.
type Student struct {
	ID        string    `db:"id" json:"id"`
	UserID    *string   `db:"user_id" json:"user_id,omitempty"`
	ParentID  *string   `db:"parent_id" json:"parent_id,omitempty"`
	FullName  string    `db:"full_name" json:"full_name"`
	BirthYear int       `db:"birth_year" json:"birth_year"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Age returns the student's age in the given year.
func (s *Student) Age(year int) int {
	if s == nil || s.BirthYear <= 0 {
		return 0
	}
	return year - s.BirthYear
}

// OwnedBy reports whether the given user owns this student record,
// either directly or as the parent.
func (s *Student) OwnedBy(userID string) bool {
	if s == nil {
		return false
	}
	if s.UserID != nil && *s.UserID == userID {
		return true
	}
	return s.ParentID != nil && *s.ParentID == userID
}

// StudentInstrument links a student to an instrument with proficiency.
type StudentInstrument struct {
	StudentID    string `db:"student_id" json:"student_id"`
	InstrumentID string `db:"instrument_id" json:"instrument_id"`
	Proficiency  string `db:"proficiency" json:"proficiency"`
}
