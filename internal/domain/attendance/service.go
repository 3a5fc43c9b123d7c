package attendance

import (
	"context"
)

// AttendanceService runs batch reconciliation and serves persisted records to downstream readers.
type AttendanceService interface {
	// Process reconciles every in-scope employee for each date of the request, oldest first.
	// The returned summary is valid even when err is non-nil and covers the dates committed so far.
	Process(ctx context.Context, req ProcessRequest) (ProcessSummary, error)

	ListAttendance(ctx context.Context, filter AttendanceFilter) (ListAttendanceResponse, error)

	GetAttendance(ctx context.Context, employeeID string, date string) (AttendanceResponse, error)
}
