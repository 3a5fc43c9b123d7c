package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
)

type rosterRepository struct {
	db *database.DB
}

func NewRosterRepository(db *database.DB) schedule.RosterRepository {
	return &rosterRepository{db: db}
}

// GetByDate implements schedule.RosterRepository.
func (r *rosterRepository) GetByDate(ctx context.Context, date time.Time, employeeIDs []string) (map[string]schedule.Roster, error) {
	q := GetQuerier(ctx, r.db)
	result := make(map[string]schedule.Roster)
	if employeeIDs != nil && len(employeeIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT employee_id, date, shift_id, is_off_day
		FROM rosters
		WHERE date = $1
	`
	args := []interface{}{date.Format("2006-01-02")}
	if employeeIDs != nil {
		query += " AND employee_id = ANY($2)"
		args = append(args, employeeIDs)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rosters: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ro schedule.Roster
		if err := rows.Scan(&ro.EmployeeID, &ro.Date, &ro.ShiftID, &ro.IsOffDay); err != nil {
			return nil, fmt.Errorf("failed to scan roster: %w", err)
		}
		ro.Date = database.WallClock(ro.Date, date.Location())
		result[ro.EmployeeID] = ro
	}

	return result, rows.Err()
}
