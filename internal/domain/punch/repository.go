package punch

import (
	"context"
	"time"
)

// PunchRepository is the append-only punch store.
type PunchRepository interface {
	// Append inserts punches, silently skipping any (employee_id, timestamp) pair already stored.
	// It returns the number of rows actually inserted.
	Append(ctx context.Context, punches []Punch) (int, error)

	// ListBetween returns punches with from <= timestamp < to, grouped by employee ID
	// and sorted ascending. A nil employeeIDs slice means all employees.
	ListBetween(ctx context.Context, employeeIDs []string, from, to time.Time) (map[string][]Punch, error)

	// SyncWatermark returns the device time up to which Sync has pulled, or the zero time.
	// Only AdvanceSyncWatermark moves it; imported punches never do.
	SyncWatermark(ctx context.Context, deviceID string) (time.Time, error)

	// AdvanceSyncWatermark moves the watermark forward to ts. An older ts leaves it unchanged.
	AdvanceSyncWatermark(ctx context.Context, deviceID string, ts time.Time) error
}
