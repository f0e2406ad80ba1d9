package models

import "time"

// TeachingFormat describes where a teacher gives lessons.
type TeachingFormat string

const (
	FormatInPersonOnly      TeachingFormat = "IN_PERSON_ONLY"
	FormatOnlineOnly        TeachingFormat = "ONLINE_ONLY"
	FormatInPersonAndOnline TeachingFormat = "IN_PERSON_AND_ONLINE"
)

// Valid reports whether the format is a known value.
func (f TeachingFormat) Valid() bool {
	switch f {
	case FormatInPersonOnly, FormatOnlineOnly, FormatInPersonAndOnline:
		return true
	}
	return false
}

// Allows reports whether a lesson in the requested format can be taught
// under this teaching format.
func (f TeachingFormat) Allows(lesson LessonFormat) bool {
	switch f {
	case FormatInPersonAndOnline:
		return true
	case FormatInPersonOnly:
		return lesson == LessonInPerson
	case FormatOnlineOnly:
		return lesson == LessonOnline
	}
	return false
}

// AgePreference restricts which student ages a teacher accepts.
type AgePreference string

const (
	AgeAll          AgePreference = "ALL_AGES"
	AgeThirteenPlus AgePreference = "THIRTEEN_PLUS"
	AgeAdultsOnly   AgePreference = "ADULTS_ONLY"
)

// Valid reports whether the preference is a known value.
func (p AgePreference) Valid() bool {
	switch p {
	case AgeAll, AgeThirteenPlus, AgeAdultsOnly:
		return true
	}
	return false
}

// Accepts reports whether a student of the given age fits the preference.
func (p AgePreference) Accepts(age int) bool {
	switch p {
	case AgeAdultsOnly:
		return age >= 18
	case AgeThirteenPlus:
		return age >= 13
	}
	return true
}

// TeacherProfile is the 1:1 extension of a TEACHER user.
type TeacherProfile struct {
	UserID            string         `db:"user_id" json:"user_id"`
	Slug              string         `db:"slug" json:"slug"`
	Bio               *string        `db:"bio" json:"bio,omitempty"`
	AcceptingStudents bool           `db:"accepting_students" json:"accepting_students"`
	Format            TeachingFormat `db:"format" json:"format"`
	AgePreference     AgePreference  `db:"age_preference" json:"age_preference"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

// Instrument is a lookup row linked to teachers and students.
type Instrument struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Language is a lookup row linked to teachers.
type Language struct {
	ID   string `db:"id" json:"id"`
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}

// TeacherPublicProfile is the profile page payload: the teacher row joined
// with its user, lookups and open availability.
type TeacherPublicProfile struct {
	Profile     TeacherProfile `json:"profile"`
	FullName    string         `json:"full_name"`
	AvatarURL   *string        `json:"avatar_url,omitempty"`
	Timezone    string         `json:"timezone"`
	Instruments []Instrument   `json:"instruments"`
	Languages   []Language     `json:"languages"`
	OpenSlots   []TimeslotView `json:"open_slots"`
}

// TeacherSearchResult is one discovery hit.
type TeacherSearchResult struct {
	UserID            string         `db:"user_id" json:"user_id"`
	Slug              string         `db:"slug" json:"slug"`
	FullName          string         `db:"full_name" json:"full_name"`
	AvatarURL         *string        `db:"avatar_url" json:"avatar_url,omitempty"`
	Timezone          string         `db:"timezone" json:"timezone"`
	Format            TeachingFormat `db:"format" json:"format"`
	AgePreference     AgePreference  `db:"age_preference" json:"age_preference"`
	AcceptingStudents bool           `db:"accepting_students" json:"accepting_students"`
	DistanceKM        *float64       `db:"distance_km" json:"distance_km,omitempty"`
	HourDiff          *int           `json:"hour_diff,omitempty"`
}
