package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"golang.org/x/sync/errgroup"
)

// Snapshot is the reference data for one date. It is built once per date and shared
// read-only by every reconciliation running for that date.
type Snapshot struct {
	Date      time.Time
	Employees []employee.Employee
	Shifts    map[string]schedule.Shift
	Rosters   map[string]schedule.Roster
	Leaves    map[string]leave.Leave
}

// EffectiveShift resolves the shift that applies to emp on the snapshot date: the roster
// assignment when one exists, otherwise the employee's default. Nil means none resolves.
func (s *Snapshot) EffectiveShift(emp employee.Employee) *schedule.Shift {
	shiftID := emp.ShiftID
	if r, ok := s.Rosters[emp.ID]; ok && r.ShiftID != nil {
		shiftID = r.ShiftID
	}
	if shiftID == nil {
		return nil
	}
	shift, ok := s.Shifts[*shiftID]
	if !ok {
		return nil
	}
	return &shift
}

// Roster returns the roster row for the employee, if any.
func (s *Snapshot) Roster(employeeID string) *schedule.Roster {
	r, ok := s.Rosters[employeeID]
	if !ok {
		return nil
	}
	return &r
}

// Leave returns the approved leave covering the date for the employee, if any.
func (s *Snapshot) Leave(employeeID string) *leave.Leave {
	l, ok := s.Leaves[employeeID]
	if !ok {
		return nil
	}
	return &l
}

type Loader struct {
	employees employee.EmployeeRepository
	shifts    schedule.ShiftRepository
	rosters   schedule.RosterRepository
	leaves    leave.LeaveRepository
}

func NewLoader(
	employees employee.EmployeeRepository,
	shifts schedule.ShiftRepository,
	rosters schedule.RosterRepository,
	leaves leave.LeaveRepository,
) *Loader {
	return &Loader{
		employees: employees,
		shifts:    shifts,
		rosters:   rosters,
		leaves:    leaves,
	}
}

// Load reads the employees active on date (restricted to employeeIDs when non-nil) together
// with their rosters, approved leave and every shift they may resolve to.
func (l *Loader) Load(ctx context.Context, date time.Time, employeeIDs []string) (*Snapshot, error) {
	day := date.Format("2006-01-02")

	employees, err := l.employees.GetActiveOn(ctx, date, employeeIDs)
	if err != nil {
		return nil, fmt.Errorf("load employees for %s: %w", day, err)
	}

	snap := &Snapshot{
		Date:      date,
		Employees: employees,
		Shifts:    map[string]schedule.Shift{},
		Rosters:   map[string]schedule.Roster{},
		Leaves:    map[string]leave.Leave{},
	}
	if len(employees) == 0 {
		return snap, nil
	}

	ids := make([]string, 0, len(employees))
	for _, e := range employees {
		ids = append(ids, e.ID)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rosters, err := l.rosters.GetByDate(gctx, date, ids)
		if err != nil {
			return fmt.Errorf("load rosters for %s: %w", day, err)
		}
		snap.Rosters = rosters
		return nil
	})
	g.Go(func() error {
		leaves, err := l.leaves.GetApprovedCovering(gctx, date, ids)
		if err != nil {
			return fmt.Errorf("load leave for %s: %w", day, err)
		}
		snap.Leaves = leaves
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	shiftIDs := referencedShifts(employees, snap.Rosters)
	if len(shiftIDs) > 0 {
		shifts, err := l.shifts.GetByIDs(ctx, shiftIDs)
		if err != nil {
			return nil, fmt.Errorf("load shifts for %s: %w", day, err)
		}
		snap.Shifts = shifts
	}

	return snap, nil
}

func referencedShifts(employees []employee.Employee, rosters map[string]schedule.Roster) []string {
	seen := make(map[string]struct{})
	var ids []string
	add := func(id *string) {
		if id == nil || *id == "" {
			return
		}
		if _, ok := seen[*id]; ok {
			return
		}
		seen[*id] = struct{}{}
		ids = append(ids, *id)
	}
	for _, e := range employees {
		add(e.ShiftID)
	}
	for _, r := range rosters {
		add(r.ShiftID)
	}
	return ids
}
