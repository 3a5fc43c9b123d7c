package leave

import (
	"context"
	"time"
)

type LeaveRepository interface {
	// GetApprovedCovering returns approved leave covering date keyed by employee ID.
	// When several approved applications overlap the date the earliest-starting one is returned.
	GetApprovedCovering(ctx context.Context, date time.Time, employeeIDs []string) (map[string]Leave, error)
}
