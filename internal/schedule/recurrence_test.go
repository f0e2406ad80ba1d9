package schedule

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeeklyRule(t *testing.T) {
	ny := mustZone(t, "America/New_York")
	dtstart := time.Date(2026, 1, 12, 9, 0, 0, 0, ny) // a Monday

	rule, err := WeeklyRule(dtstart)
	require.NoError(t, err)
	assert.Contains(t, rule, "FREQ=WEEKLY")
	assert.Contains(t, rule, "BYDAY=MO")
}

func TestNextInstance(t *testing.T) {
	ny := mustZone(t, "America/New_York")
	dtstart := time.Date(2026, 1, 12, 9, 0, 0, 0, ny)

	rule, err := WeeklyRule(dtstart)
	require.NoError(t, err)

	// Midweek: the next Monday 09:00.
	now := time.Date(2026, 1, 14, 12, 0, 0, 0, ny)
	next := NextInstance(rule, dtstart, now)
	assert.Equal(t, time.Date(2026, 1, 19, 9, 0, 0, 0, ny).Unix(), next.Unix())

	// Before the anchor the first instance is the anchor itself.
	early := time.Date(2026, 1, 1, 0, 0, 0, 0, ny)
	next = NextInstance(rule, dtstart, early)
	assert.Equal(t, dtstart.Unix(), next.Unix())
}

func TestNextInstanceFallsBackToDtstart(t *testing.T) {
	dtstart := time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC)
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	// Unparseable rules degrade to the stored anchor.
	got := NextInstance("not-an-rrule", dtstart, now)
	assert.Equal(t, dtstart, got)

	got = NextInstance(strings.Repeat("FREQ=", 3), dtstart, now)
	assert.Equal(t, dtstart, got)
}
