package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const attendanceColumns = `
	id, employee_id, date, status, in_time, out_time, ot_hours,
	remarks, created_at, created_by, updated_at, updated_by
`

type attendanceRepository struct {
	db  *database.DB
	loc *time.Location
}

func NewAttendanceRepository(db *database.DB, loc *time.Location) attendance.AttendanceRepository {
	return &attendanceRepository{db: db, loc: loc}
}

func (a *attendanceRepository) scan(row pgx.Row) (attendance.Attendance, error) {
	var att attendance.Attendance
	err := row.Scan(
		&att.ID, &att.EmployeeID, &att.Date, &att.Status, &att.InTime, &att.OutTime, &att.OTHours,
		&att.Remarks, &att.CreatedAt, &att.CreatedBy, &att.UpdatedAt, &att.UpdatedBy,
	)
	if err != nil {
		return attendance.Attendance{}, err
	}
	att.Date = database.WallClock(att.Date, a.loc)
	att.InTime = database.WallClockPtr(att.InTime, a.loc)
	att.OutTime = database.WallClockPtr(att.OutTime, a.loc)
	return att, nil
}

// GetByEmployeeAndDates implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByEmployeeAndDates(ctx context.Context, employeeIDs []string, date time.Time) (map[string]attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)
	result := make(map[string]attendance.Attendance, len(employeeIDs))
	if len(employeeIDs) == 0 {
		return result, nil
	}

	query := `SELECT ` + attendanceColumns + `
		FROM attendances
		WHERE date = $1 AND employee_id = ANY($2)
	`

	rows, err := q.Query(ctx, query, date, employeeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendances: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		att, err := a.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		result[att.EmployeeID] = att
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read attendances: %w", err)
	}

	return result, nil
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date string) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + `
		FROM attendances
		WHERE employee_id = $1 AND date = $2
	`

	att, err := a.scan(q.QueryRow(ctx, query, employeeID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance: %w", err)
	}

	return att, nil
}

// SaveBatch implements attendance.AttendanceRepository.
// The unique (employee_id, date) key turns a racing insert into an update instead of a duplicate.
func (a *attendanceRepository) SaveBatch(ctx context.Context, records []attendance.Attendance) error {
	if len(records) == 0 {
		return nil
	}
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendances (
			id, employee_id, date, status, in_time, out_time, ot_hours,
			remarks, created_at, created_by, updated_at, updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (employee_id, date) DO UPDATE SET
			status     = EXCLUDED.status,
			in_time    = EXCLUDED.in_time,
			out_time   = EXCLUDED.out_time,
			ot_hours   = EXCLUDED.ot_hours,
			remarks    = EXCLUDED.remarks,
			updated_at = EXCLUDED.updated_at,
			updated_by = EXCLUDED.updated_by
	`

	batch := &pgx.Batch{}
	for _, rec := range records {
		id := rec.ID
		if id == "" {
			id = uuid.NewString()
		}
		batch.Queue(query,
			id,
			rec.EmployeeID,
			rec.Date,
			string(rec.Status),
			rec.InTime,
			rec.OutTime,
			rec.OTHours,
			rec.Remarks,
			rec.CreatedAt,
			rec.CreatedBy,
			rec.UpdatedAt,
			rec.UpdatedBy,
		)
	}

	br := q.SendBatch(ctx, batch)
	defer br.Close()
	for _, rec := range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to save attendance for employee %s: %w", rec.EmployeeID, err)
		}
	}

	return br.Close()
}

// List implements attendance.AttendanceRepository.
func (a *attendanceRepository) List(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.Attendance, int64, error) {
	q := GetQuerier(ctx, a.db)

	// Build WHERE clause
	baseWhere := "date >= $1 AND date <= $2"
	args := []interface{}{filter.StartDate, filter.EndDate}
	argIdx := 3

	// Employee ID filter
	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		baseWhere += fmt.Sprintf(" AND employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}

	// Status filter
	if filter.Status != nil && *filter.Status != "" {
		baseWhere += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM attendances WHERE "+baseWhere, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendances: %w", err)
	}

	// Build ORDER BY
	orderByField := "date"
	switch filter.SortBy {
	case "employee_id":
		orderByField = "employee_id"
	case "status":
		orderByField = "status"
	}
	sortOrder := "ASC"
	if strings.ToLower(filter.SortOrder) == "desc" {
		sortOrder = "DESC"
	}

	selectQuery := fmt.Sprintf(`SELECT %s
		FROM attendances
		WHERE %s
		ORDER BY %s %s, employee_id, date
		LIMIT $%d OFFSET $%d
	`, attendanceColumns, baseWhere, orderByField, sortOrder, argIdx, argIdx+1)

	limit := filter.Limit
	if limit == 0 {
		limit = 50
	}
	page := max(filter.Page, 1)
	args = append(args, limit, (page-1)*limit)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query attendances: %w", err)
	}
	defer rows.Close()

	var attendances []attendance.Attendance
	for rows.Next() {
		att, err := a.scan(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan attendance: %w", err)
		}
		attendances = append(attendances, att)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read attendances: %w", err)
	}

	return attendances, total, nil
}
