package schedule

import (
	"strings"
	"time"
)

// Shift is a shift policy. Times are time-of-day strings as stored in master data
// ("HH:MM" or "HH:MM:SS") and are parsed at reconciliation time.
type Shift struct {
	ID          string
	Name        string
	InTime      string
	OutTime     string
	LateGrace   *string
	WeekendDays []string
}

// IsWeekend reports whether the weekday of date is one of the shift's weekend days.
func (s Shift) IsWeekend(date time.Time) bool {
	weekday := date.Weekday().String()
	for _, d := range s.WeekendDays {
		if strings.EqualFold(strings.TrimSpace(d), weekday) {
			return true
		}
	}
	return false
}

// Roster is a per-date exception to an employee's default shift and weekend schedule.
type Roster struct {
	EmployeeID string
	Date       time.Time
	ShiftID    *string
	IsOffDay   bool
}
