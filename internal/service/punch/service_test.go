package punch

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/punch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu         sync.Mutex
	punches    map[string]punch.Punch
	watermarks map[string]time.Time
	err        error
}

func newFakeStore() *fakeStore {
	return &fakeStore{punches: map[string]punch.Punch{}, watermarks: map[string]time.Time{}}
}

func (f *fakeStore) Append(_ context.Context, punches []punch.Punch) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	inserted := 0
	for _, p := range punches {
		k := p.EmployeeID + "@" + p.Timestamp.Format(time.RFC3339Nano)
		if _, ok := f.punches[k]; ok {
			continue
		}
		f.punches[k] = p
		inserted++
	}
	return inserted, nil
}

func (f *fakeStore) ListBetween(context.Context, []string, time.Time, time.Time) (map[string][]punch.Punch, error) {
	return nil, nil
}

func (f *fakeStore) SyncWatermark(_ context.Context, deviceID string) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.watermarks[deviceID], nil
}

func (f *fakeStore) AdvanceSyncWatermark(_ context.Context, deviceID string, ts time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ts.After(f.watermarks[deviceID]) {
		f.watermarks[deviceID] = ts
	}
	return nil
}

type fakeDirectory struct {
	badges map[string]string
}

func (f *fakeDirectory) GetActiveOn(context.Context, time.Time, []string) ([]employee.Employee, error) {
	return nil, nil
}

func (f *fakeDirectory) GetIDsByDeviceUserIDs(_ context.Context, deviceUserIDs []string) (map[string]string, error) {
	out := make(map[string]string)
	for _, b := range deviceUserIDs {
		if id, ok := f.badges[b]; ok {
			out[b] = id
		}
	}
	return out, nil
}

func (f *fakeDirectory) FilterExisting(_ context.Context, ids []string) ([]string, error) {
	known := make(map[string]bool)
	for _, id := range f.badges {
		known[id] = true
	}
	var out []string
	for _, id := range ids {
		if known[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

type fakeSource struct {
	records []DeviceRecord
	since   []time.Time
	err     error
}

func (f *fakeSource) Name() string     { return "fake" }
func (f *fakeSource) DeviceID() string { return "device-1" }

func (f *fakeSource) Fetch(_ context.Context, since time.Time) ([]DeviceRecord, error) {
	f.since = append(f.since, since)
	if f.err != nil {
		return nil, f.err
	}
	var out []DeviceRecord
	for _, r := range f.records {
		if !r.Timestamp.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

func record(badge string, ts time.Time) DeviceRecord {
	return DeviceRecord{DeviceUserID: badge, Timestamp: ts, DeviceID: "device-1"}
}

func newSyncService(store *fakeStore, source DeviceSource) *SyncServiceImpl {
	dir := &fakeDirectory{badges: map[string]string{"1001": "emp-1", "1002": "emp-2"}}
	return NewSyncService(store, dir, source, Options{
		Location:        wib,
		DefaultDeviceID: "device-1",
		Now:             func() time.Time { return time.Date(2024, 3, 7, 1, 0, 0, 0, wib) },
	})
}

func TestSync_InsertsMappedPunches(t *testing.T) {
	store := newFakeStore()
	source := &fakeSource{records: []DeviceRecord{
		record("1001", time.Date(2024, 3, 6, 8, 55, 0, 0, wib)),
		record("1002", time.Date(2024, 3, 6, 9, 0, 0, 0, wib)),
		record("1001", time.Date(2024, 3, 6, 18, 5, 0, 0, wib)),
		record("9999", time.Date(2024, 3, 6, 18, 6, 0, 0, wib)),
		record("9999", time.Date(2024, 3, 6, 18, 7, 0, 0, wib)),
	}}
	svc := newSyncService(store, source)

	result, err := svc.Sync(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "fake", result.Source)
	assert.Equal(t, 5, result.Fetched)
	assert.Equal(t, 3, result.Inserted)
	assert.Zero(t, result.Duplicates)
	assert.Equal(t, 2, result.Unmapped)
	require.Len(t, result.Rejected, 1)
	assert.Contains(t, result.Rejected[0], "badge 9999")
	assert.Len(t, store.punches, 3)
}

func TestSync_ResumesFromWatermark(t *testing.T) {
	store := newFakeStore()
	source := &fakeSource{records: []DeviceRecord{
		record("1001", time.Date(2024, 3, 6, 8, 55, 0, 0, wib)),
		record("1001", time.Date(2024, 3, 6, 18, 5, 0, 0, wib)),
	}}
	svc := newSyncService(store, source)

	_, err := svc.Sync(context.Background())
	require.NoError(t, err)

	source.records = append(source.records, record("1002", time.Date(2024, 3, 6, 18, 30, 0, 0, wib)))
	second, err := svc.Sync(context.Background())
	require.NoError(t, err)

	require.Len(t, source.since, 2)
	assert.True(t, source.since[0].IsZero())
	assert.True(t, source.since[1].Equal(time.Date(2024, 3, 6, 18, 5, 0, 0, wib)))

	// The boundary punch is fetched again and counted as a duplicate.
	assert.Equal(t, 2, second.Fetched)
	assert.Equal(t, 1, second.Inserted)
	assert.Equal(t, 1, second.Duplicates)
	assert.Len(t, store.punches, 3)
}

func TestSync_ImportDoesNotMoveWatermark(t *testing.T) {
	store := newFakeStore()
	source := &fakeSource{records: []DeviceRecord{
		record("1001", time.Date(2024, 3, 1, 8, 50, 0, 0, wib)),
		record("1001", time.Date(2024, 3, 5, 8, 52, 0, 0, wib)),
	}}
	svc := newSyncService(store, source)

	// Rows without a device column are tagged with the same device id the sync source uses.
	data := workbook(t, [][]any{
		{"employee_id", "timestamp"},
		{"emp-2", "2024-03-06 09:00:00"},
	})
	imported, err := svc.Import(context.Background(), bytes.NewReader(data), "late.xlsx")
	require.NoError(t, err)
	require.Equal(t, 1, imported.Inserted)

	result, err := svc.Sync(context.Background())
	require.NoError(t, err)

	require.Len(t, source.since, 1)
	assert.True(t, source.since[0].IsZero())
	assert.Equal(t, 2, result.Fetched)
	assert.Equal(t, 2, result.Inserted)
	assert.Len(t, store.punches, 3)
	assert.Equal(t, time.Date(2024, 3, 5, 8, 52, 0, 0, wib), store.watermarks["device-1"])
}

func TestSync_WatermarkNeverPassesNow(t *testing.T) {
	store := newFakeStore()
	source := &fakeSource{records: []DeviceRecord{
		record("1001", time.Date(2024, 3, 6, 8, 55, 0, 0, wib)),
		// Device clock a year ahead.
		record("1002", time.Date(2025, 3, 6, 9, 0, 0, 0, wib)),
	}}
	svc := newSyncService(store, source)

	_, err := svc.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 6, 8, 55, 0, 0, wib), store.watermarks["device-1"])

	source.records = append(source.records, record("1001", time.Date(2024, 3, 6, 18, 5, 0, 0, wib)))
	second, err := svc.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, second.Inserted)
	assert.Len(t, store.punches, 3)
	assert.Equal(t, time.Date(2024, 3, 6, 18, 5, 0, 0, wib), store.watermarks["device-1"])

	t.Run("stored watermark ahead of clock is clamped", func(t *testing.T) {
		store := newFakeStore()
		store.watermarks["device-1"] = time.Date(2030, 1, 1, 0, 0, 0, 0, wib)
		source := &fakeSource{records: []DeviceRecord{record("1001", time.Date(2024, 3, 7, 1, 0, 0, 0, wib))}}
		svc := newSyncService(store, source)

		result, err := svc.Sync(context.Background())
		require.NoError(t, err)
		require.Len(t, source.since, 1)
		assert.True(t, source.since[0].Equal(time.Date(2024, 3, 7, 1, 0, 0, 0, wib)))
		assert.Equal(t, 1, result.Inserted)
	})
}

func TestSync_Errors(t *testing.T) {
	t.Run("no source", func(t *testing.T) {
		svc := newSyncService(newFakeStore(), nil)
		_, err := svc.Sync(context.Background())
		assert.ErrorIs(t, err, punch.ErrDeviceSourceNotConfigured)
	})

	t.Run("source failure", func(t *testing.T) {
		boom := errors.New("database is locked")
		svc := newSyncService(newFakeStore(), &fakeSource{err: boom})
		_, err := svc.Sync(context.Background())
		assert.ErrorIs(t, err, boom)
	})

	t.Run("store failure", func(t *testing.T) {
		store := newFakeStore()
		store.err = errors.New("connection refused")
		svc := newSyncService(store, &fakeSource{records: []DeviceRecord{record("1001", time.Date(2024, 3, 6, 9, 0, 0, 0, wib))}})
		_, err := svc.Sync(context.Background())
		assert.ErrorIs(t, err, store.err)
	})

	t.Run("already running", func(t *testing.T) {
		svc := newSyncService(newFakeStore(), &fakeSource{})
		svc.mu.Lock()
		defer svc.mu.Unlock()
		_, err := svc.Sync(context.Background())
		assert.ErrorIs(t, err, punch.ErrSyncInFlight)
	})
}

func TestImport(t *testing.T) {
	store := newFakeStore()
	svc := newSyncService(store, nil)
	data := workbook(t, [][]any{
		{"employee_id", "timestamp", "mode"},
		{"emp-1", "2024-03-06 08:55:00", "I"},
		{"emp-1", "2024-03-06 08:55:00", "I"},
		{"emp-2", "2024-03-06 18:10:00", "O"},
		{"emp-404", "2024-03-06 09:00:00", ""},
		{"emp-2", "not a time", ""},
	})

	result, err := svc.Import(context.Background(), bytes.NewReader(data), "march.xlsx")
	require.NoError(t, err)

	assert.Equal(t, "import:march.xlsx", result.Source)
	assert.Equal(t, 5, result.Fetched)
	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, 1, result.Duplicates)
	assert.Equal(t, 1, result.Unmapped)
	assert.Len(t, result.Rejected, 2)
	assert.Len(t, store.punches, 2)

	again, err := svc.Import(context.Background(), bytes.NewReader(data), "march.xlsx")
	require.NoError(t, err)
	assert.Zero(t, again.Inserted)
	assert.Equal(t, 3, again.Duplicates)
}

func TestImport_RejectsNonWorkbook(t *testing.T) {
	svc := newSyncService(newFakeStore(), nil)

	_, err := svc.Import(context.Background(), bytes.NewReader([]byte("a,b")), "punches.csv")
	assert.ErrorIs(t, err, punch.ErrInvalidImportFile)
}
