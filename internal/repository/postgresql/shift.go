package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
)

type shiftRepository struct {
	db *database.DB
}

func NewShiftRepository(db *database.DB) schedule.ShiftRepository {
	return &shiftRepository{db: db}
}

// GetByIDs implements schedule.ShiftRepository.
func (r *shiftRepository) GetByIDs(ctx context.Context, ids []string) (map[string]schedule.Shift, error) {
	q := GetQuerier(ctx, r.db)
	result := make(map[string]schedule.Shift, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := q.Query(ctx, `
		SELECT id, name, in_time, out_time, late_grace, weekend_days
		FROM shifts
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query shifts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s schedule.Shift
		if err := rows.Scan(&s.ID, &s.Name, &s.InTime, &s.OutTime, &s.LateGrace, &s.WeekendDays); err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		result[s.ID] = s
	}

	return result, rows.Err()
}
