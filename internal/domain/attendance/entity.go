package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

type Attendance struct {
	ID         string
	EmployeeID string
	Date       time.Time
	Status     Status
	InTime     *time.Time
	OutTime    *time.Time
	OTHours    decimal.Decimal
	Remarks    string
	CreatedAt  time.Time
	CreatedBy  string
	UpdatedAt  time.Time
	UpdatedBy  string
}

type Status string

const (
	StatusPresent        Status = "Present"
	StatusLate           Status = "Late"
	StatusAbsent         Status = "Absent"
	StatusOnLeave        Status = "OnLeave"
	StatusOffDay         Status = "OffDay"
	StatusPresentOutOnly Status = "PresentOutOnly"
)

var StatusValues = []string{
	string(StatusPresent),
	string(StatusLate),
	string(StatusAbsent),
	string(StatusOnLeave),
	string(StatusOffDay),
	string(StatusPresentOutOnly),
}

// Worked reports whether the status is derived from at least one punch.
// Only worked days can carry overtime.
func (s Status) Worked() bool {
	return s == StatusPresent || s == StatusLate || s == StatusPresentOutOnly
}

const (
	RemarksAutoProcessed = "Auto-processed"
	RemarksUpdatedSuffix = " (Updated)"
)

// Outcome is the result of reconciling one employee for one date.
// It carries everything the upsert writer needs and nothing it has to look up.
type Outcome struct {
	EmployeeID string
	Date       time.Time
	Status     Status
	InTime     *time.Time
	OutTime    *time.Time
	OTHours    decimal.Decimal
}

// Skip records an employee/date pair that could not be reconciled.
type Skip struct {
	EmployeeID string
	Date       time.Time
	Reason     string
}
