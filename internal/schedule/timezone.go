package schedule

import (
	"fmt"
	"time"
)

// WeeklyTime is a wall-clock position in a recurring week: a day of week
// (0=Sunday) plus minutes since local midnight.
type WeeklyTime struct {
	DayOfWeek int
	Minutes   int
}

// LoadZone resolves an IANA zone name, rejecting empty names explicitly so a
// blank value cannot silently mean UTC.
func LoadZone(name string) (*time.Location, error) {
	if name == "" {
		return nil, fmt.Errorf("timezone name is empty")
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

// NextOccurrence returns the first instant at or after ref whose wall clock
// in loc matches the weekly time. The result is computed from actual zone
// data for the target date, so it stays correct across DST transitions.
func NextOccurrence(wt WeeklyTime, loc *time.Location, ref time.Time) time.Time {
	local := ref.In(loc)
	// Offsets 0-7: if today's occurrence already passed, day+7 lands on the
	// same weekday next week.
	for offset := 0; offset <= 7; offset++ {
		day := local.AddDate(0, 0, offset)
		if int(day.Weekday()) != wt.DayOfWeek {
			continue
		}
		candidate := time.Date(day.Year(), day.Month(), day.Day(), wt.Minutes/60, wt.Minutes%60, 0, 0, loc)
		if !candidate.Before(ref) {
			return candidate
		}
	}
	return time.Time{}
}

// Convert maps a weekly time from one zone into another, anchored at the
// next concrete occurrence on or after ref. Offsets are derived per target
// date rather than from a fixed UTC offset, because the gap between two
// zones changes seasonally.
func Convert(wt WeeklyTime, from, to *time.Location, ref time.Time) WeeklyTime {
	instant := NextOccurrence(wt, from, ref)
	local := instant.In(to)
	return WeeklyTime{
		DayOfWeek: int(local.Weekday()),
		Minutes:   local.Hour()*60 + local.Minute(),
	}
}

// HourDiff returns the absolute whole-hour offset between two zones at the
// given instant, wrapped at 24 so zones either side of the date line compare
// by their shorter distance.
func HourDiff(a, b *time.Location, at time.Time) int {
	_, offA := at.In(a).Zone()
	_, offB := at.In(b).Zone()
	diff := (offA - offB) / 3600
	if diff < 0 {
		diff = -diff
	}
	diff %= 24
	if diff > 12 {
		diff = 24 - diff
	}
	return diff
}
