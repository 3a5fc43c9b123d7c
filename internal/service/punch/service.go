package punch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/punch"
	"github.com/google/uuid"
)

// maxImportSize caps uploaded workbooks.
const maxImportSize = 20 << 20

type Options struct {
	// Location is the zone device wall clocks are read in.
	Location *time.Location
	// DefaultDeviceID tags imported rows that carry no device column.
	DefaultDeviceID string
	Now             func() time.Time
}

type SyncServiceImpl struct {
	punch.PunchRepository
	employee.EmployeeRepository
	source DeviceSource

	loc           *time.Location
	defaultDevice string
	now           func() time.Time

	mu sync.Mutex
}

// NewSyncService wires the punch store to an optional device source. With a nil source Sync
// reports ErrDeviceSourceNotConfigured and only Import is usable.
func NewSyncService(punchRepo punch.PunchRepository, employeeRepo employee.EmployeeRepository, source DeviceSource, opts Options) *SyncServiceImpl {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &SyncServiceImpl{
		PunchRepository:    punchRepo,
		EmployeeRepository: employeeRepo,
		source:             source,
		loc:                opts.Location,
		defaultDevice:      opts.DefaultDeviceID,
		now:                opts.Now,
	}
}

// Sync pulls everything at or after the device's sync watermark. The boundary second is read again
// on purpose and absorbed by the store's duplicate handling. The watermark only follows device reads
// and never passes now.
func (s *SyncServiceImpl) Sync(ctx context.Context) (punch.SyncResult, error) {
	if s.source == nil {
		return punch.SyncResult{}, punch.ErrDeviceSourceNotConfigured
	}
	if !s.mu.TryLock() {
		return punch.SyncResult{}, punch.ErrSyncInFlight
	}
	defer s.mu.Unlock()

	result := punch.SyncResult{RunID: uuid.NewString(), Source: s.source.Name()}
	deviceID := s.source.DeviceID()
	now := s.now().In(s.loc)
	// Device wall clock as a value comparable with fetched timestamps.
	nowWall := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), now.Minute(), now.Second(), 0, s.loc)

	since, err := s.PunchRepository.SyncWatermark(ctx, deviceID)
	if err != nil {
		return result, fmt.Errorf("read sync watermark: %w", err)
	}
	if since.After(nowWall) {
		slog.Warn("Sync: watermark ahead of clock, clamping", "device_id", deviceID, "watermark", since, "now", nowWall)
		since = nowWall
	}

	records, err := s.source.Fetch(ctx, since)
	if err != nil {
		return result, fmt.Errorf("fetch from %s: %w", s.source.Name(), err)
	}
	result.Fetched = len(records)
	if len(records) == 0 {
		slog.Info("Sync: no new punches", "run_id", result.RunID, "source", result.Source, "since", since)
		return result, nil
	}

	badges := make([]string, 0, len(records))
	seen := make(map[string]struct{})
	for _, r := range records {
		if _, ok := seen[r.DeviceUserID]; ok {
			continue
		}
		seen[r.DeviceUserID] = struct{}{}
		badges = append(badges, r.DeviceUserID)
	}

	mapping, err := s.EmployeeRepository.GetIDsByDeviceUserIDs(ctx, badges)
	if err != nil {
		return result, fmt.Errorf("map device users: %w", err)
	}

	syncedAt := s.now()
	punches := make([]punch.Punch, 0, len(records))
	unmapped := make(map[string]struct{})
	for _, r := range records {
		employeeID, ok := mapping[r.DeviceUserID]
		if !ok {
			result.Unmapped++
			unmapped[r.DeviceUserID] = struct{}{}
			continue
		}
		punches = append(punches, punch.Punch{
			EmployeeID: employeeID,
			Timestamp:  r.Timestamp,
			DeviceID:   r.DeviceID,
			Mode:       r.Mode,
			SyncedAt:   syncedAt,
		})
	}
	for _, badge := range sortedKeys(unmapped) {
		result.Rejected = append(result.Rejected, fmt.Sprintf("badge %s: %v", badge, punch.ErrUnknownEmployee))
	}

	if err := s.store(ctx, punches, &result); err != nil {
		return result, err
	}

	if next := watermarkAfter(records, since, nowWall); next.After(since) {
		if err := s.PunchRepository.AdvanceSyncWatermark(ctx, deviceID, next); err != nil {
			return result, fmt.Errorf("advance sync watermark: %w", err)
		}
	}

	slog.Info("Sync: completed",
		"run_id", result.RunID,
		"source", result.Source,
		"fetched", result.Fetched,
		"inserted", result.Inserted,
		"duplicates", result.Duplicates,
		"unmapped", result.Unmapped,
	)
	return result, nil
}

// Import loads a device export workbook. Unknown employees and unparseable rows are reported, not fatal.
func (s *SyncServiceImpl) Import(ctx context.Context, r io.Reader, filename string) (punch.SyncResult, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		return punch.SyncResult{}, punch.ErrInvalidImportFile
	}

	data, err := io.ReadAll(io.LimitReader(r, maxImportSize+1))
	if err != nil {
		return punch.SyncResult{}, fmt.Errorf("read import file: %w", err)
	}
	if len(data) > maxImportSize {
		return punch.SyncResult{}, fmt.Errorf("%w: file exceeds %d bytes", punch.ErrInvalidImportFile, maxImportSize)
	}

	rows, rejected, err := ParseWorkbook(data, s.loc, s.defaultDevice)
	if err != nil {
		return punch.SyncResult{}, err
	}

	result := punch.SyncResult{
		RunID:    uuid.NewString(),
		Source:   "import:" + filepath.Base(filename),
		Fetched:  len(rows) + len(rejected),
		Rejected: rejected,
	}

	ids := make([]string, 0, len(rows))
	seen := make(map[string]struct{})
	for _, row := range rows {
		if _, ok := seen[row.EmployeeID]; ok {
			continue
		}
		seen[row.EmployeeID] = struct{}{}
		ids = append(ids, row.EmployeeID)
	}

	known := make(map[string]struct{}, len(ids))
	if len(ids) > 0 {
		existing, err := s.EmployeeRepository.FilterExisting(ctx, ids)
		if err != nil {
			return result, fmt.Errorf("check employees: %w", err)
		}
		for _, id := range existing {
			known[id] = struct{}{}
		}
	}

	syncedAt := s.now()
	punches := make([]punch.Punch, 0, len(rows))
	for _, row := range rows {
		if _, ok := known[row.EmployeeID]; !ok {
			result.Unmapped++
			result.Rejected = append(result.Rejected, fmt.Sprintf("row %d: employee %s: %v", row.Line, row.EmployeeID, punch.ErrUnknownEmployee))
			continue
		}
		punches = append(punches, punch.Punch{
			EmployeeID: row.EmployeeID,
			Timestamp:  row.Timestamp,
			DeviceID:   row.DeviceID,
			Mode:       row.Mode,
			SyncedAt:   syncedAt,
		})
	}

	if err := s.store(ctx, punches, &result); err != nil {
		return result, err
	}

	slog.Info("Import: completed",
		"run_id", result.RunID,
		"source", result.Source,
		"rows", result.Fetched,
		"inserted", result.Inserted,
		"duplicates", result.Duplicates,
		"rejected", len(result.Rejected),
	)
	return result, nil
}

func (s *SyncServiceImpl) store(ctx context.Context, punches []punch.Punch, result *punch.SyncResult) error {
	if len(punches) == 0 {
		return nil
	}
	inserted, err := s.PunchRepository.Append(ctx, punches)
	if err != nil {
		return fmt.Errorf("append punches: %w", err)
	}
	result.Inserted = inserted
	result.Duplicates = len(punches) - inserted
	return nil
}

// watermarkAfter is the newest fetched timestamp that is not in the future.
func watermarkAfter(records []DeviceRecord, since, now time.Time) time.Time {
	next := since
	for _, r := range records {
		if r.Timestamp.After(now) {
			slog.Warn("Sync: punch ahead of clock", "device_user_id", r.DeviceUserID, "timestamp", r.Timestamp)
			continue
		}
		if r.Timestamp.After(next) {
			next = r.Timestamp
		}
	}
	return next
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var _ punch.SyncService = (*SyncServiceImpl)(nil)
