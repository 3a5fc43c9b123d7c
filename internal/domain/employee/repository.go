package employee

import (
	"context"
	"time"
)

type EmployeeRepository interface {
	// GetActiveOn returns employees employed on date. A nil ids slice means every employee.
	GetActiveOn(ctx context.Context, date time.Time, ids []string) ([]Employee, error)

	// GetIDsByDeviceUserIDs maps device badge numbers to employee IDs. Unknown badges are absent from the map.
	GetIDsByDeviceUserIDs(ctx context.Context, deviceUserIDs []string) (map[string]string, error)

	// FilterExisting returns the subset of ids that belong to known employees.
	FilterExisting(ctx context.Context, ids []string) ([]string, error)
}
