package attendance

import (
	"context"
	"time"
)

// AttendanceRepository persists reconciled attendance records.
type AttendanceRepository interface {
	// GetByEmployeeAndDates returns existing records for the given employees on one date, keyed by employee ID.
	GetByEmployeeAndDates(ctx context.Context, employeeIDs []string, date time.Time) (map[string]Attendance, error)

	// GetByEmployeeAndDate looks up one record by YYYY-MM-DD date. It returns ErrAttendanceNotFound when none exists.
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date string) (Attendance, error)

	// SaveBatch inserts new records and overwrites existing ones keyed by (employee_id, date).
	SaveBatch(ctx context.Context, records []Attendance) error

	List(ctx context.Context, filter AttendanceFilter) ([]Attendance, int64, error)
}
