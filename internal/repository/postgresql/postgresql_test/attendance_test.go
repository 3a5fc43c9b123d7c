package postgresql_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/postgresql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttendanceRepository_SaveBatchUpserts(t *testing.T) {
	setup := NewTestDatabase(t)
	setup.seedDirectory(t)
	repo := postgresql.NewAttendanceRepository(setup.DB, wib)
	ctx := context.Background()

	date := time.Date(2024, 3, 6, 0, 0, 0, 0, wib)
	in := time.Date(2024, 3, 6, 9, 0, 0, 0, wib)
	out := time.Date(2024, 3, 6, 19, 30, 0, 0, wib)
	created := time.Date(2024, 3, 7, 1, 30, 0, 0, time.UTC)

	err := repo.SaveBatch(ctx, []attendance.Attendance{{
		EmployeeID: "emp-1", Date: date, Status: attendance.StatusPresent,
		InTime: &in, OutTime: &out, OTHours: decimal.RequireFromString("1.50"),
		Remarks: attendance.RemarksAutoProcessed,
		CreatedAt: created, CreatedBy: "system", UpdatedAt: created, UpdatedBy: "system",
	}})
	require.NoError(t, err)

	stored, err := repo.GetByEmployeeAndDate(ctx, "emp-1", "2024-03-06")
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID)
	assert.Equal(t, date, stored.Date)
	assert.Equal(t, attendance.StatusPresent, stored.Status)
	require.NotNil(t, stored.InTime)
	assert.Equal(t, in, *stored.InTime)
	assert.Equal(t, out, *stored.OutTime)
	assert.Equal(t, "1.50", stored.OTHours.StringFixed(2))

	// A second insert for the same key without the stored id still lands on the same row.
	updated := time.Date(2024, 3, 8, 1, 30, 0, 0, time.UTC)
	err = repo.SaveBatch(ctx, []attendance.Attendance{{
		EmployeeID: "emp-1", Date: date, Status: attendance.StatusAbsent, OTHours: decimal.Zero,
		Remarks: "Auto-processed (Updated)",
		CreatedAt: updated, CreatedBy: "manager-1", UpdatedAt: updated, UpdatedBy: "manager-1",
	}})
	require.NoError(t, err)

	again, err := repo.GetByEmployeeAndDate(ctx, "emp-1", "2024-03-06")
	require.NoError(t, err)
	assert.Equal(t, stored.ID, again.ID)
	assert.Equal(t, attendance.StatusAbsent, again.Status)
	assert.Nil(t, again.InTime)
	assert.Equal(t, "system", again.CreatedBy)
	assert.Equal(t, "manager-1", again.UpdatedBy)
	assert.True(t, again.OTHours.IsZero())

	byEmployee, err := repo.GetByEmployeeAndDates(ctx, []string{"emp-1", "emp-2"}, date)
	require.NoError(t, err)
	assert.Len(t, byEmployee, 1)
	assert.Contains(t, byEmployee, "emp-1")
}

func TestAttendanceRepository_NotFound(t *testing.T) {
	setup := NewTestDatabase(t)
	repo := postgresql.NewAttendanceRepository(setup.DB, wib)

	_, err := repo.GetByEmployeeAndDate(context.Background(), "emp-1", "2024-03-06")
	assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)
}

func TestAttendanceRepository_List(t *testing.T) {
	setup := NewTestDatabase(t)
	setup.seedDirectory(t)
	repo := postgresql.NewAttendanceRepository(setup.DB, wib)
	ctx := context.Background()

	now := time.Now()
	var records []attendance.Attendance
	for d := 4; d <= 6; d++ {
		for _, id := range []string{"emp-1", "emp-2"} {
			records = append(records, attendance.Attendance{
				EmployeeID: id, Date: time.Date(2024, 3, d, 0, 0, 0, 0, wib), Status: attendance.StatusAbsent,
				OTHours: decimal.Zero, Remarks: attendance.RemarksAutoProcessed,
				CreatedAt: now, CreatedBy: "system", UpdatedAt: now, UpdatedBy: "system",
			})
		}
	}
	require.NoError(t, repo.SaveBatch(ctx, records))

	emp := "emp-2"
	list, total, err := repo.List(ctx, attendance.AttendanceFilter{
		EmployeeID: &emp, StartDate: "2024-03-05", EndDate: "2024-03-06",
		Page: 1, Limit: 1, SortBy: "date", SortOrder: "desc",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 1)
	assert.Equal(t, "emp-2", list[0].EmployeeID)
	assert.Equal(t, time.Date(2024, 3, 6, 0, 0, 0, 0, wib), list[0].Date)
}

func TestWithTransaction_RollsBack(t *testing.T) {
	setup := NewTestDatabase(t)
	setup.seedDirectory(t)
	repo := postgresql.NewAttendanceRepository(setup.DB, wib)
	ctx := context.Background()
	boom := errors.New("boom")

	err := postgresql.NewTransactor(setup.DB).WithinTransaction(ctx, func(txCtx context.Context) error {
		now := time.Now()
		if err := repo.SaveBatch(txCtx, []attendance.Attendance{{
			EmployeeID: "emp-1", Date: time.Date(2024, 3, 6, 0, 0, 0, 0, wib), Status: attendance.StatusAbsent,
			OTHours: decimal.Zero, CreatedAt: now, CreatedBy: "system", UpdatedAt: now, UpdatedBy: "system",
		}}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = repo.GetByEmployeeAndDate(ctx, "emp-1", "2024-03-06")
	assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)
}
