package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
)

type leaveRequestRepository struct {
	db *database.DB
}

func NewLeaveRequestRepository(db *database.DB) leave.LeaveRepository {
	return &leaveRequestRepository{db: db}
}

// GetApprovedCovering implements leave.LeaveRepository.
func (r *leaveRequestRepository) GetApprovedCovering(ctx context.Context, date time.Time, employeeIDs []string) (map[string]leave.Leave, error) {
	q := GetQuerier(ctx, r.db)
	result := make(map[string]leave.Leave)
	if employeeIDs != nil && len(employeeIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT DISTINCT ON (employee_id) id, employee_id, start_date, end_date, status
		FROM leave_requests
		WHERE status = 'approved'
		  AND start_date <= $1
		  AND end_date >= $1
	`
	args := []interface{}{date.Format("2006-01-02")}
	if employeeIDs != nil {
		query += " AND employee_id = ANY($2)"
		args = append(args, employeeIDs)
	}
	query += " ORDER BY employee_id, start_date ASC, id ASC"

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query approved leave: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l leave.Leave
		if err := rows.Scan(&l.ID, &l.EmployeeID, &l.StartDate, &l.EndDate, &l.Status); err != nil {
			return nil, fmt.Errorf("failed to scan leave request: %w", err)
		}
		l.StartDate = database.WallClock(l.StartDate, date.Location())
		l.EndDate = database.WallClock(l.EndDate, date.Location())
		result[l.EmployeeID] = l
	}

	return result, rows.Err()
}
