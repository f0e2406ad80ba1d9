// Package schedule implements the weekly availability grid arithmetic:
// 15-minute snapping, half-open interval overlap checks and timezone-aware
// conversion of weekly slot times between IANA zones.
package schedule

import "fmt"

const (
	// SnapMinutes is the grid resolution. All slot boundaries snap to it.
	SnapMinutes = 15

	// MinDurationMinutes is the shortest slot the grid accepts.
	MinDurationMinutes = 15

	// WindowStartMinutes and WindowEndMinutes bound the editable day range
	// (08:00 to 21:00 in the teacher's local zone).
	WindowStartMinutes = 8 * 60
	WindowEndMinutes   = 21 * 60
)

// Snap rounds minutes to the nearest grid boundary.
func Snap(minutes int) int {
	remainder := minutes % SnapMinutes
	if remainder == 0 {
		return minutes
	}
	if remainder*2 >= SnapMinutes {
		return minutes + (SnapMinutes - remainder)
	}
	return minutes - remainder
}

// Overlaps reports whether two half-open minute ranges intersect.
func Overlaps(start1, end1, start2, end2 int) bool {
	return start1 < end2 && end1 > start2
}

// ValidatePlacement checks a candidate (day, start, end) against the grid
// rules. It does not check overlap with other slots; that requires the
// teacher's persisted rows.
func ValidatePlacement(dayOfWeek, startMinutes, endMinutes int) error {
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return fmt.Errorf("day_of_week must be 0-6, got %d", dayOfWeek)
	}
	if startMinutes%SnapMinutes != 0 || endMinutes%SnapMinutes != 0 {
		return fmt.Errorf("times must align to %d-minute boundaries", SnapMinutes)
	}
	if endMinutes-startMinutes < MinDurationMinutes {
		return fmt.Errorf("slot must be at least %d minutes", MinDurationMinutes)
	}
	if startMinutes < WindowStartMinutes || endMinutes > WindowEndMinutes {
		return fmt.Errorf("slot must lie within %s-%s", FormatMinutes(WindowStartMinutes), FormatMinutes(WindowEndMinutes))
	}
	return nil
}

// FormatMinutes renders minutes since midnight as HH:MM.
func FormatMinutes(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
