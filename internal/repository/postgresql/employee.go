package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
)

type employeeRepository struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepository{db: db}
}

// GetActiveOn implements employee.EmployeeRepository.
// Active means hired on or before date and not resigned on or before it.
func (r *employeeRepository) GetActiveOn(ctx context.Context, date time.Time, ids []string) ([]employee.Employee, error) {
	q := GetQuerier(ctx, r.db)
	if ids != nil && len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, employee_code, device_user_id, full_name, work_shift_id, is_ot_eligible,
		       employment_status, hire_date, resignation_date
		FROM employees
		WHERE deleted_at IS NULL
		  AND hire_date <= $1
		  AND (resignation_date IS NULL OR resignation_date > $1)
		  AND (employment_status = 'active' OR resignation_date IS NOT NULL)
	`
	args := []interface{}{date.Format("2006-01-02")}
	if ids != nil {
		query += " AND id = ANY($2)"
		args = append(args, ids)
	}
	query += " ORDER BY id"

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query active employees: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		var e employee.Employee
		if err := rows.Scan(
			&e.ID, &e.EmployeeCode, &e.DeviceUserID, &e.FullName, &e.ShiftID, &e.IsOTEligible,
			&e.EmploymentStatus, &e.HireDate, &e.ResignationDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read employees: %w", err)
	}

	return employees, nil
}

// GetIDsByDeviceUserIDs implements employee.EmployeeRepository.
func (r *employeeRepository) GetIDsByDeviceUserIDs(ctx context.Context, deviceUserIDs []string) (map[string]string, error) {
	q := GetQuerier(ctx, r.db)
	result := make(map[string]string, len(deviceUserIDs))
	if len(deviceUserIDs) == 0 {
		return result, nil
	}

	rows, err := q.Query(ctx, `
		SELECT device_user_id, id
		FROM employees
		WHERE device_user_id = ANY($1) AND deleted_at IS NULL
	`, deviceUserIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to map device users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var badge, id string
		if err := rows.Scan(&badge, &id); err != nil {
			return nil, fmt.Errorf("failed to scan device user: %w", err)
		}
		result[badge] = id
	}

	return result, rows.Err()
}

// FilterExisting implements employee.EmployeeRepository.
func (r *employeeRepository) FilterExisting(ctx context.Context, ids []string) ([]string, error) {
	q := GetQuerier(ctx, r.db)
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := q.Query(ctx, `SELECT id FROM employees WHERE id = ANY($1) AND deleted_at IS NULL ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to check employees: %w", err)
	}
	defer rows.Close()

	var existing []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan employee id: %w", err)
		}
		existing = append(existing, id)
	}

	return existing, rows.Err()
}
