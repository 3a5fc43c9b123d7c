package employee

import "time"

// Employee is the directory view the attendance engine needs. Master data is owned elsewhere.
type Employee struct {
	ID               string
	EmployeeCode     string
	DeviceUserID     *string
	FullName         string
	ShiftID          *string
	IsOTEligible     bool
	EmploymentStatus EmploymentStatus
	HireDate         time.Time
	ResignationDate  *time.Time
}

type EmploymentStatus string

const (
	EmploymentStatusActive     EmploymentStatus = "active"
	EmploymentStatusResigned   EmploymentStatus = "resigned"
	EmploymentStatusTerminated EmploymentStatus = "terminated"
)
