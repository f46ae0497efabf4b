package bookingflow

import (
	"fmt"
	"strings"
	"time"
)

type ScheduleMode string

const (
	ModeNow   ScheduleMode = "now"
	ModeLater ScheduleMode = "later"
)

// Schedule is the pickup time as picked by the customer: now, or a date
// (YYYY-MM-DD) and a time (HH:MM).
type Schedule struct {
	Mode ScheduleMode
	Date string
	Time string
}

// IsNow reports whether the pickup follows the clock rather than a chosen date.
func (s Schedule) IsNow() bool {
	return s.Mode != ModeLater || strings.TrimSpace(s.Date) == "" || strings.TrimSpace(s.Time) == ""
}

// Resolve returns the pickup instant in UTC. A later schedule without date or
// time falls back to now.
func (s Schedule) Resolve(now time.Time) (time.Time, error) {
	if s.IsNow() {
		return now.UTC().Truncate(time.Second), nil
	}
	date, clock := strings.TrimSpace(s.Date), strings.TrimSpace(s.Time)
	t, err := time.Parse(time.RFC3339, date+"T"+clock+":00Z")
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid schedule %q %q: expected YYYY-MM-DD and HH:MM", date, clock)
	}
	return t, nil
}

// ParseSchedule reads the --at flag: empty or "now", "HH:MM" for today, or
// "YYYY-MM-DD HH:MM" (a "T" separator is accepted too).
func ParseSchedule(at string, now time.Time) Schedule {
	at = strings.TrimSpace(at)
	if at == "" || strings.EqualFold(at, string(ModeNow)) {
		return Schedule{Mode: ModeNow}
	}
	if len(at) >= 16 && at[10] == 'T' {
		at = at[:10] + " " + at[11:16]
	}
	if date, clock, ok := strings.Cut(at, " "); ok {
		return Schedule{Mode: ModeLater, Date: date, Time: strings.TrimSpace(clock)}
	}
	return Schedule{Mode: ModeLater, Date: now.UTC().Format("2006-01-02"), Time: at}
}
