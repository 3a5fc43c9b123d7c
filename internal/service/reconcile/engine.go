package reconcile

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// DefaultLateGrace applies when a shift has no explicit late-in threshold.
const DefaultLateGrace = 15 * time.Minute

// Input is everything known about one employee on one date. Shift is the effective shift
// (roster-assigned or default) and is nil when none resolves.
type Input struct {
	Employee employee.Employee
	Date     time.Time
	Punches  []punch.Punch
	Shift    *schedule.Shift
	Roster   *schedule.Roster
	Leave    *leave.Leave
	Now      time.Time
}

// Engine turns the signals for an employee/date into one attendance outcome.
// It holds no state besides the window policy and is safe for concurrent use.
type Engine struct {
	windows Windows
}

func NewEngine(windows Windows) *Engine {
	return &Engine{windows: windows}
}

func (e *Engine) Windows() Windows {
	return e.windows
}

// Reconcile applies, first match wins: approved leave, off day (roster or weekend),
// unresolved shift (data gap), then punch-based status. Overtime is derived last.
// A *attendance.DataGapError means the pair must be skipped and nothing written.
func (e *Engine) Reconcile(in Input) (attendance.Outcome, error) {
	date := time.Date(in.Date.Year(), in.Date.Month(), in.Date.Day(), 0, 0, 0, 0, in.Date.Location())
	outcome := attendance.Outcome{
		EmployeeID: in.Employee.ID,
		Date:       date,
		OTHours:    decimal.Zero,
	}

	if !in.Now.IsZero() && date.After(in.Now.In(date.Location())) {
		return attendance.Outcome{}, fmt.Errorf("reconcile %s: %w", date.Format("2006-01-02"), attendance.ErrFutureDate)
	}

	if in.Leave != nil && in.Leave.Covers(date) {
		outcome.Status = attendance.StatusOnLeave
		return outcome, nil
	}

	if in.Roster != nil && in.Roster.IsOffDay {
		outcome.Status = attendance.StatusOffDay
		return outcome, nil
	}
	if in.Roster == nil && in.Shift != nil && in.Shift.IsWeekend(date) {
		outcome.Status = attendance.StatusOffDay
		return outcome, nil
	}

	if in.Shift == nil {
		return attendance.Outcome{}, e.gap(in.Employee.ID, date, attendance.ErrShiftUnresolved)
	}
	policy, err := parseShift(*in.Shift, date)
	if err != nil {
		return attendance.Outcome{}, e.gap(in.Employee.ID, date, err)
	}

	inPunch, outPunch := e.pick(in.Punches, date)
	outcome.InTime = inPunch
	outcome.OutTime = outPunch

	switch {
	case inPunch != nil && inPunch.After(policy.lateLimit):
		outcome.Status = attendance.StatusLate
	case inPunch != nil:
		outcome.Status = attendance.StatusPresent
	case outPunch != nil:
		outcome.Status = attendance.StatusPresentOutOnly
	default:
		outcome.Status = attendance.StatusAbsent
	}

	if in.Employee.IsOTEligible && outPunch != nil && outcome.Status.Worked() {
		outcome.OTHours = overtimeHours(*outPunch, policy.shiftOut)
	}

	return outcome, nil
}

// pick returns the earliest punch in the in window and the latest punch in the out window.
func (e *Engine) pick(punches []punch.Punch, date time.Time) (*time.Time, *time.Time) {
	inFrom, inTo := e.windows.In(date)
	outFrom, outTo := e.windows.Out(date)

	var inPunch, outPunch *time.Time
	for i := range punches {
		ts := punches[i].Timestamp.In(date.Location())
		if within(ts, inFrom, inTo) && (inPunch == nil || ts.Before(*inPunch)) {
			t := ts
			inPunch = &t
		}
		if within(ts, outFrom, outTo) && (outPunch == nil || ts.After(*outPunch)) {
			t := ts
			outPunch = &t
		}
	}
	return inPunch, outPunch
}

func (e *Engine) gap(employeeID string, date time.Time, err error) error {
	return &attendance.DataGapError{EmployeeID: employeeID, Date: date, Err: err}
}

func within(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

type shiftPolicy struct {
	lateLimit time.Time
	shiftOut  time.Time
}

// parseShift anchors the shift's time-of-day strings on date. An out time earlier than the
// in time means the shift ends on the following day.
func parseShift(s schedule.Shift, date time.Time) (shiftPolicy, error) {
	inOffset, ok := validator.IsValidTimeOfDay(s.InTime)
	if !ok {
		return shiftPolicy{}, fmt.Errorf("shift %s in_time %q: %w", s.ID, s.InTime, attendance.ErrInvalidShiftTime)
	}
	outOffset, ok := validator.IsValidTimeOfDay(s.OutTime)
	if !ok {
		return shiftPolicy{}, fmt.Errorf("shift %s out_time %q: %w", s.ID, s.OutTime, attendance.ErrInvalidShiftTime)
	}

	lateOffset := inOffset + DefaultLateGrace
	if s.LateGrace != nil && *s.LateGrace != "" {
		lateOffset, ok = validator.IsValidTimeOfDay(*s.LateGrace)
		if !ok {
			return shiftPolicy{}, fmt.Errorf("shift %s late_grace %q: %w", s.ID, *s.LateGrace, attendance.ErrInvalidShiftTime)
		}
	}

	if outOffset < inOffset {
		outOffset += 24 * time.Hour
	}

	return shiftPolicy{
		lateLimit: at(date, lateOffset),
		shiftOut:  at(date, outOffset),
	}, nil
}

// overtimeHours is the time past the scheduled end in hours, two decimal places, never negative.
func overtimeHours(out, shiftOut time.Time) decimal.Decimal {
	if !out.After(shiftOut) {
		return decimal.Zero
	}
	seconds := int64(out.Sub(shiftOut) / time.Second)
	return decimal.NewFromInt(seconds).Div(decimal.NewFromInt(3600)).Round(2)
}
