package attendance

import (
	"errors"
	"fmt"
	"time"
)

// Attendance domain errors
var (
	// Data-gap errors: the employee/date pair is skipped, the run continues
	ErrShiftUnresolved  = errors.New("no effective shift for employee on date")
	ErrInvalidShiftTime = errors.New("shift time is not a valid time of day")

	// Request errors
	ErrInvalidDateRange = errors.New("start date must not be after end date")
	ErrDateRangeTooLong = errors.New("date range exceeds the maximum allowed days")
	ErrFutureDate       = errors.New("cannot process attendance for a future date")

	// General errors
	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrProcessingInFlight = errors.New("another attendance batch is already running")
)

// DataGapError marks a recoverable reconciliation failure for a single employee on a single date.
type DataGapError struct {
	EmployeeID string
	Date       time.Time
	Err        error
}

func (e *DataGapError) Error() string {
	return fmt.Sprintf("employee %s on %s: %v", e.EmployeeID, e.Date.Format("2006-01-02"), e.Err)
}

func (e *DataGapError) Unwrap() error {
	return e.Err
}

// IsDataGap reports whether err is a recoverable per-employee failure.
func IsDataGap(err error) bool {
	var gap *DataGapError
	return errors.As(err, &gap)
}
