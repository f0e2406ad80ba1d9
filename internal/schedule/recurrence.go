package schedule

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// lookahead bounds the window searched for the next rule instance.
const lookahead = 365 * 24 * time.Hour

var rruleWeekdays = [7]rrule.Weekday{
	rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA,
}

// WeeklyRule serializes a weekly recurrence anchored at dtstart, using the
// iCalendar RRULE grammar (for example "FREQ=WEEKLY;BYDAY=MO").
func WeeklyRule(dtstart time.Time) (string, error) {
	day := int(dtstart.Weekday())
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: []rrule.Weekday{rruleWeekdays[day]},
		Dtstart:   dtstart,
	})
	if err != nil {
		return "", fmt.Errorf("build weekly rule: %w", err)
	}
	// RRuleString omits the DTSTART line; the anchor is stored separately
	// and reattached when the rule is parsed back.
	return r.OrigOptions.RRuleString(), nil
}

// NextInstance re-parses a stored rule anchored at dtstart and returns the
// first instance after now within a one-year window. When the rule fails to
// parse or yields no instance (single non-recurring events included), the
// raw dtstart is returned.
func NextInstance(ruleStr string, dtstart, now time.Time) time.Time {
	opt, err := rrule.StrToROption(ruleStr)
	if err != nil {
		return dtstart
	}
	opt.Dtstart = dtstart
	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return dtstart
	}
	instances := r.Between(now, now.Add(lookahead), true)
	if len(instances) == 0 {
		return dtstart
	}
	return instances[0]
}
