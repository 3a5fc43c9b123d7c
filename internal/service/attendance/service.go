package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
	"github.com/cmlabs-hris/attendance-engine/internal/service/reconcile"
	"github.com/cmlabs-hris/attendance-engine/internal/service/snapshot"
	"golang.org/x/sync/errgroup"
)

const defaultWorkers = 8

// SnapshotLoader builds the reference data for one date.
type SnapshotLoader interface {
	Load(ctx context.Context, date time.Time, employeeIDs []string) (*snapshot.Snapshot, error)
}

type Options struct {
	// Workers bounds the per-date reconciliation fan-out.
	Workers int
	// Location is the device-local zone dates and punches are interpreted in.
	Location *time.Location
	// Now defaults to time.Now.
	Now func() time.Time
}

type AttendanceServiceImpl struct {
	tx database.Transactor
	attendance.AttendanceRepository
	employee.EmployeeRepository
	punch.PunchRepository
	loader SnapshotLoader
	engine *reconcile.Engine
	writer *Writer

	workers int
	loc     *time.Location
	now     func() time.Time

	// mu serialises batch runs within the process.
	mu sync.Mutex
}

func NewAttendanceService(
	tx database.Transactor,
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
	punchRepo punch.PunchRepository,
	loader SnapshotLoader,
	engine *reconcile.Engine,
	opts Options,
) *AttendanceServiceImpl {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &AttendanceServiceImpl{
		tx:                   tx,
		AttendanceRepository: attendanceRepo,
		EmployeeRepository:   employeeRepo,
		PunchRepository:      punchRepo,
		loader:               loader,
		engine:               engine,
		writer:               NewWriter(attendanceRepo),
		workers:              opts.Workers,
		loc:                  opts.Location,
		now:                  opts.Now,
	}
}

// Process reconciles every date of the request in ascending order. Each date is committed in its own
// transaction, so when a date fails the summary still reflects the dates committed before it.
func (s *AttendanceServiceImpl) Process(ctx context.Context, req attendance.ProcessRequest) (attendance.ProcessSummary, error) {
	if err := req.Validate(); err != nil {
		return attendance.ProcessSummary{}, err
	}

	startStr, endStr := req.Range()
	start, err := time.ParseInLocation("2006-01-02", startStr, s.loc)
	if err != nil {
		return attendance.ProcessSummary{}, fmt.Errorf("parse start date: %w", err)
	}
	end, err := time.ParseInLocation("2006-01-02", endStr, s.loc)
	if err != nil {
		return attendance.ProcessSummary{}, fmt.Errorf("parse end date: %w", err)
	}

	if start.After(end) {
		return attendance.ProcessSummary{}, attendance.ErrInvalidDateRange
	}
	if daysBetween(start, end)+1 > attendance.MaxProcessDays {
		return attendance.ProcessSummary{}, fmt.Errorf("%w (%d)", attendance.ErrDateRangeTooLong, attendance.MaxProcessDays)
	}

	now := s.now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	if end.After(today) {
		return attendance.ProcessSummary{}, attendance.ErrFutureDate
	}

	employeeIDs, err := s.resolveEmployees(ctx, req.EmployeeIDs)
	if err != nil {
		return attendance.ProcessSummary{}, err
	}

	if !s.mu.TryLock() {
		return attendance.ProcessSummary{}, attendance.ErrProcessingInFlight
	}
	defer s.mu.Unlock()

	summary := attendance.ProcessSummary{
		StartDate: startStr,
		EndDate:   endStr,
		Skipped:   []attendance.SkippedEntry{},
	}

	slog.Info("Reconcile: starting range", "start_date", startStr, "end_date", endStr, "actor", req.Actor)

	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			slog.Warn("Reconcile: cancelled", "next_date", date.Format("2006-01-02"), "dates_committed", summary.DatesCommitted)
			return summary, err
		}

		// A started date runs to completion even if ctx is cancelled meanwhile.
		processed, skipped, err := s.processDate(context.WithoutCancel(ctx), date, employeeIDs, req.Actor, now)
		if err != nil {
			slog.Error("Reconcile: date failed, halting range", "date", date.Format("2006-01-02"), "error", err)
			return summary, fmt.Errorf("process %s: %w", date.Format("2006-01-02"), err)
		}

		summary.DatesCommitted++
		summary.LastCommitted = date.Format("2006-01-02")
		summary.ProcessedCount += processed
		summary.SkippedCount += len(skipped)
		for _, sk := range skipped {
			summary.Skipped = append(summary.Skipped, attendance.SkippedEntry{
				EmployeeID: sk.EmployeeID,
				Date:       sk.Date.Format("2006-01-02"),
				Reason:     sk.Reason,
			})
		}

		slog.Info("Reconcile: date committed", "date", summary.LastCommitted, "processed", processed, "skipped", len(skipped))
	}

	slog.Info("Reconcile: range complete",
		"start_date", startStr,
		"end_date", endStr,
		"processed", summary.ProcessedCount,
		"skipped", summary.SkippedCount,
	)

	return summary, nil
}

// resolveEmployees rejects unknown ids up front. A nil result means every employee.
func (s *AttendanceServiceImpl) resolveEmployees(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	existing, err := s.EmployeeRepository.FilterExisting(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("check employees: %w", err)
	}
	if len(existing) == len(unique) {
		return unique, nil
	}

	known := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		known[id] = struct{}{}
	}
	for _, id := range unique {
		if _, ok := known[id]; !ok {
			return nil, fmt.Errorf("%w: %s", employee.ErrEmployeeNotFound, id)
		}
	}
	return unique, nil
}

// processDate loads the snapshot and punches once, reconciles every employee in parallel and writes
// the results in one transaction.
func (s *AttendanceServiceImpl) processDate(ctx context.Context, date time.Time, employeeIDs []string, actor string, now time.Time) (int, []attendance.Skip, error) {
	snap, err := s.loader.Load(ctx, date, employeeIDs)
	if err != nil {
		return 0, nil, err
	}
	if len(snap.Employees) == 0 {
		return 0, nil, nil
	}

	ids := make([]string, 0, len(snap.Employees))
	for _, e := range snap.Employees {
		ids = append(ids, e.ID)
	}

	from, to := s.engine.Windows().Span(date)
	punches, err := s.PunchRepository.ListBetween(ctx, ids, from, to)
	if err != nil {
		return 0, nil, fmt.Errorf("read punches: %w", err)
	}

	outcomes := make([]attendance.Outcome, len(snap.Employees))
	gaps := make([]error, len(snap.Employees))

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, emp := range snap.Employees {
		g.Go(func() error {
			out, err := s.engine.Reconcile(reconcile.Input{
				Employee: emp,
				Date:     date,
				Punches:  punches[emp.ID],
				Shift:    snap.EffectiveShift(emp),
				Roster:   snap.Roster(emp.ID),
				Leave:    snap.Leave(emp.ID),
				Now:      now,
			})
			if err != nil {
				if attendance.IsDataGap(err) {
					gaps[i] = err
					return nil
				}
				return err
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, nil, err
	}

	ready := make([]attendance.Outcome, 0, len(outcomes))
	var skipped []attendance.Skip
	for i, emp := range snap.Employees {
		if gaps[i] != nil {
			var gap *attendance.DataGapError
			reason := gaps[i].Error()
			if errors.As(gaps[i], &gap) {
				reason = gap.Err.Error()
			}
			slog.Warn("Reconcile: skipped employee", "employee_id", emp.ID, "date", date.Format("2006-01-02"), "reason", reason)
			skipped = append(skipped, attendance.Skip{EmployeeID: emp.ID, Date: date, Reason: reason})
			continue
		}
		ready = append(ready, outcomes[i])
	}

	var written int
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		n, err := s.writer.Upsert(txCtx, date, ready, actor, now)
		written = n
		return err
	})
	if err != nil {
		return 0, nil, err
	}

	return written, skipped, nil
}

// ListAttendance returns persisted records for the filter, paginated.
func (s *AttendanceServiceImpl) ListAttendance(ctx context.Context, filter attendance.AttendanceFilter) (attendance.ListAttendanceResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	records, total, err := s.AttendanceRepository.List(ctx, filter)
	if err != nil {
		return attendance.ListAttendanceResponse{}, fmt.Errorf("failed to list attendance: %w", err)
	}

	responses := make([]attendance.AttendanceResponse, 0, len(records))
	for _, rec := range records {
		responses = append(responses, s.toResponse(rec))
	}

	return attendance.ListAttendanceResponse{
		TotalCount:  total,
		Page:        filter.Page,
		Limit:       filter.Limit,
		TotalPages:  int(math.Ceil(float64(total) / float64(filter.Limit))),
		Attendances: responses,
	}, nil
}

// GetAttendance returns the record of one employee on one date.
func (s *AttendanceServiceImpl) GetAttendance(ctx context.Context, employeeID, date string) (attendance.AttendanceResponse, error) {
	var errs validator.ValidationErrors
	if validator.IsEmpty(employeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required"})
	}
	if _, ok := validator.IsValidDate(date); !ok {
		errs = append(errs, validator.ValidationError{Field: "date", Message: "date must be in YYYY-MM-DD format"})
	}
	if len(errs) > 0 {
		return attendance.AttendanceResponse{}, errs
	}

	rec, err := s.AttendanceRepository.GetByEmployeeAndDate(ctx, employeeID, date)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	return s.toResponse(rec), nil
}

func (s *AttendanceServiceImpl) toResponse(rec attendance.Attendance) attendance.AttendanceResponse {
	return attendance.AttendanceResponse{
		ID:         rec.ID,
		EmployeeID: rec.EmployeeID,
		Date:       rec.Date.Format("2006-01-02"),
		Status:     string(rec.Status),
		InTime:     timePtrToString(rec.InTime),
		OutTime:    timePtrToString(rec.OutTime),
		OTHours:    rec.OTHours.StringFixed(2),
		Remarks:    rec.Remarks,
		CreatedAt:  rec.CreatedAt.Format(time.RFC3339),
		CreatedBy:  rec.CreatedBy,
		UpdatedAt:  rec.UpdatedAt.Format(time.RFC3339),
		UpdatedBy:  rec.UpdatedBy,
	}
}

// timePtrToString formats a device-local punch time.
func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	format := t.Format("2006-01-02 15:04:05")
	return &format
}

func daysBetween(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(s).Hours() / 24)
}

var _ attendance.AttendanceService = (*AttendanceServiceImpl)(nil)
