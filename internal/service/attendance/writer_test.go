package attendance

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMerge_NewRecord(t *testing.T) {
	now := time.Date(2024, 3, 7, 1, 30, 0, 0, time.UTC)
	in := time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC)
	o := attendance.Outcome{
		EmployeeID: "emp-1",
		Date:       time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC),
		Status:     attendance.StatusPresent,
		InTime:     &in,
		OTHours:    decimal.RequireFromString("1.256"),
	}

	rec := Merge(nil, o, "manager-1", now)

	assert.Equal(t, "emp-1", rec.EmployeeID)
	assert.Equal(t, attendance.StatusPresent, rec.Status)
	assert.Equal(t, attendance.RemarksAutoProcessed, rec.Remarks)
	assert.Equal(t, "manager-1", rec.CreatedBy)
	assert.Equal(t, "manager-1", rec.UpdatedBy)
	assert.Equal(t, now, rec.CreatedAt)
	assert.Equal(t, now, rec.UpdatedAt)
	assert.Equal(t, "1.26", rec.OTHours.StringFixed(2))
}

func TestMerge_ExistingRecord(t *testing.T) {
	created := time.Date(2024, 3, 7, 1, 30, 0, 0, time.UTC)
	now := created.Add(24 * time.Hour)
	out := time.Date(2024, 3, 6, 19, 0, 0, 0, time.UTC)

	existing := &attendance.Attendance{
		ID:         "att-1",
		EmployeeID: "emp-1",
		Date:       time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC),
		Status:     attendance.StatusAbsent,
		OTHours:    decimal.Zero,
		Remarks:    attendance.RemarksAutoProcessed,
		CreatedAt:  created,
		CreatedBy:  "system",
		UpdatedAt:  created,
		UpdatedBy:  "system",
	}
	o := attendance.Outcome{
		EmployeeID: "emp-1",
		Date:       existing.Date,
		Status:     attendance.StatusPresentOutOnly,
		OutTime:    &out,
		OTHours:    decimal.NewFromInt(1),
	}

	first := Merge(existing, o, "manager-1", now)
	assert.Equal(t, "att-1", first.ID)
	assert.Equal(t, attendance.StatusPresentOutOnly, first.Status)
	assert.Nil(t, first.InTime)
	assert.Equal(t, &out, first.OutTime)
	assert.Equal(t, "Auto-processed (Updated)", first.Remarks)
	assert.Equal(t, "system", first.CreatedBy)
	assert.Equal(t, created, first.CreatedAt)
	assert.Equal(t, "manager-1", first.UpdatedBy)
	assert.Equal(t, now, first.UpdatedAt)

	second := Merge(&first, o, "manager-2", now.Add(time.Hour))
	assert.Equal(t, "Auto-processed (Updated)", second.Remarks)
	assert.Equal(t, "manager-2", second.UpdatedBy)
}

func TestMerge_KeepsManualRemarks(t *testing.T) {
	existing := &attendance.Attendance{ID: "att-1", EmployeeID: "emp-1", Remarks: "Corrected by HR"}

	rec := Merge(existing, attendance.Outcome{EmployeeID: "emp-1", Status: attendance.StatusAbsent}, "system", time.Now())

	assert.Equal(t, "Corrected by HR (Updated)", rec.Remarks)
}
