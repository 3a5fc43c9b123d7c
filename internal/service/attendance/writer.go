package attendance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
)

// Writer persists engine outcomes as daily attendance records.
type Writer struct {
	repo attendance.AttendanceRepository
}

func NewWriter(repo attendance.AttendanceRepository) *Writer {
	return &Writer{repo: repo}
}

// Upsert merges the outcomes for one date into the stored records and saves them in a single batch.
// It must run inside the caller's transaction so a date is committed all or nothing.
func (w *Writer) Upsert(ctx context.Context, date time.Time, outcomes []attendance.Outcome, actor string, now time.Time) (int, error) {
	if len(outcomes) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		ids = append(ids, o.EmployeeID)
	}

	existing, err := w.repo.GetByEmployeeAndDates(ctx, ids, date)
	if err != nil {
		return 0, fmt.Errorf("read existing attendance for %s: %w", date.Format("2006-01-02"), err)
	}

	records := make([]attendance.Attendance, 0, len(outcomes))
	for _, o := range outcomes {
		var prev *attendance.Attendance
		if rec, ok := existing[o.EmployeeID]; ok {
			prev = &rec
		}
		records = append(records, Merge(prev, o, actor, now))
	}

	if err := w.repo.SaveBatch(ctx, records); err != nil {
		return 0, fmt.Errorf("save attendance for %s: %w", date.Format("2006-01-02"), err)
	}
	return len(records), nil
}

// Merge applies an outcome onto the stored record. A new record is stamped as auto-processed by actor.
// An existing one keeps its identity and creation stamp, takes the outcome's status, times and overtime,
// and gets the updated marker appended once.
func Merge(existing *attendance.Attendance, o attendance.Outcome, actor string, now time.Time) attendance.Attendance {
	if existing == nil {
		return attendance.Attendance{
			EmployeeID: o.EmployeeID,
			Date:       o.Date,
			Status:     o.Status,
			InTime:     o.InTime,
			OutTime:    o.OutTime,
			OTHours:    o.OTHours.Round(2),
			Remarks:    attendance.RemarksAutoProcessed,
			CreatedAt:  now,
			CreatedBy:  actor,
			UpdatedAt:  now,
			UpdatedBy:  actor,
		}
	}

	rec := *existing
	rec.Status = o.Status
	rec.InTime = o.InTime
	rec.OutTime = o.OutTime
	rec.OTHours = o.OTHours.Round(2)
	rec.UpdatedAt = now
	rec.UpdatedBy = actor
	if !strings.HasSuffix(rec.Remarks, attendance.RemarksUpdatedSuffix) {
		rec.Remarks += attendance.RemarksUpdatedSuffix
	}
	return rec
}
