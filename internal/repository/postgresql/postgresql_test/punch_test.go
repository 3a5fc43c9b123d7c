package postgresql_test

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/postgresql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPunchRepository_AppendSkipsDuplicates(t *testing.T) {
	setup := NewTestDatabase(t)
	repo := postgresql.NewPunchRepository(setup.DB, wib)
	ctx := context.Background()

	in := punch.ModeIn
	punches := []punch.Punch{
		{EmployeeID: "emp-1", Timestamp: time.Date(2024, 3, 6, 8, 55, 0, 0, wib), DeviceID: "device-1", Mode: &in},
		{EmployeeID: "emp-1", Timestamp: time.Date(2024, 3, 6, 18, 5, 0, 0, wib), DeviceID: "device-1"},
		{EmployeeID: "emp-2", Timestamp: time.Date(2024, 3, 6, 20, 0, 0, 0, wib), DeviceID: "device-2"},
	}

	inserted, err := repo.Append(ctx, punches)
	require.NoError(t, err)
	assert.Equal(t, 3, inserted)

	inserted, err = repo.Append(ctx, append(punches, punch.Punch{
		EmployeeID: "emp-2", Timestamp: time.Date(2024, 3, 7, 5, 10, 0, 0, wib), DeviceID: "device-2",
	}))
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
}

func TestPunchRepository_ListBetweenKeepsWallClock(t *testing.T) {
	setup := NewTestDatabase(t)
	repo := postgresql.NewPunchRepository(setup.DB, wib)
	ctx := context.Background()

	_, err := repo.Append(ctx, []punch.Punch{
		{EmployeeID: "emp-1", Timestamp: time.Date(2024, 3, 6, 18, 5, 0, 0, wib), DeviceID: "device-1"},
		{EmployeeID: "emp-1", Timestamp: time.Date(2024, 3, 6, 8, 55, 0, 0, wib), DeviceID: "device-1"},
		{EmployeeID: "emp-1", Timestamp: time.Date(2024, 3, 7, 7, 15, 0, 0, wib), DeviceID: "device-1"},
		{EmployeeID: "emp-2", Timestamp: time.Date(2024, 3, 6, 7, 14, 0, 0, wib), DeviceID: "device-1"},
	})
	require.NoError(t, err)

	from := time.Date(2024, 3, 6, 7, 15, 0, 0, wib)
	to := time.Date(2024, 3, 7, 7, 15, 0, 0, wib)

	all, err := repo.ListBetween(ctx, nil, from, to)
	require.NoError(t, err)
	require.Len(t, all["emp-1"], 2)
	assert.Empty(t, all["emp-2"])
	assert.Equal(t, time.Date(2024, 3, 6, 8, 55, 0, 0, wib), all["emp-1"][0].Timestamp)
	assert.Equal(t, time.Date(2024, 3, 6, 18, 5, 0, 0, wib), all["emp-1"][1].Timestamp)

	none, err := repo.ListBetween(ctx, []string{"emp-2"}, from, to)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPunchRepository_SyncWatermark(t *testing.T) {
	setup := NewTestDatabase(t)
	repo := postgresql.NewPunchRepository(setup.DB, wib)
	ctx := context.Background()

	last, err := repo.SyncWatermark(ctx, "device-1")
	require.NoError(t, err)
	assert.True(t, last.IsZero())

	// Stored punches do not move the watermark.
	_, err = repo.Append(ctx, []punch.Punch{
		{EmployeeID: "emp-1", Timestamp: time.Date(2024, 3, 6, 18, 5, 0, 0, wib), DeviceID: "device-1"},
	})
	require.NoError(t, err)
	last, err = repo.SyncWatermark(ctx, "device-1")
	require.NoError(t, err)
	assert.True(t, last.IsZero())

	require.NoError(t, repo.AdvanceSyncWatermark(ctx, "device-1", time.Date(2024, 3, 6, 9, 0, 0, 0, wib)))
	require.NoError(t, repo.AdvanceSyncWatermark(ctx, "device-1", time.Date(2024, 3, 5, 9, 0, 0, 0, wib)))
	require.NoError(t, repo.AdvanceSyncWatermark(ctx, "device-2", time.Date(2024, 3, 7, 9, 0, 0, 0, wib)))

	last, err = repo.SyncWatermark(ctx, "device-1")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 6, 9, 0, 0, 0, wib), last)
}
