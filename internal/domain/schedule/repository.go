package schedule

import (
	"context"
	"time"
)

type ShiftRepository interface {
	// GetByIDs returns shifts keyed by ID. Unknown IDs are absent from the map.
	GetByIDs(ctx context.Context, ids []string) (map[string]Shift, error)
}

type RosterRepository interface {
	// GetByDate returns roster rows for date keyed by employee ID. A nil employeeIDs slice means every employee.
	GetByDate(ctx context.Context, date time.Time, employeeIDs []string) (map[string]Roster, error)
}
