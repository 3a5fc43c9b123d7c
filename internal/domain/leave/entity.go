package leave

import "time"

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Leave is an approved leave application covering an inclusive date range.
type Leave struct {
	ID         string
	EmployeeID string
	StartDate  time.Time
	EndDate    time.Time
	Status     Status
}

// Covers reports whether the leave is approved and includes the calendar date.
func (l Leave) Covers(date time.Time) bool {
	if l.Status != StatusApproved {
		return false
	}
	day := date.Format("2006-01-02")
	return l.StartDate.Format("2006-01-02") <= day && day <= l.EndDate.Format("2006-01-02")
}
