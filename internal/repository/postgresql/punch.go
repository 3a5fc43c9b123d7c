package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

// punchBatchSize bounds the statements queued in one pgx batch.
const punchBatchSize = 1000

type punchRepository struct {
	db  *database.DB
	loc *time.Location
}

func NewPunchRepository(db *database.DB, loc *time.Location) punch.PunchRepository {
	return &punchRepository{db: db, loc: loc}
}

// Append implements punch.PunchRepository.
func (r *punchRepository) Append(ctx context.Context, punches []punch.Punch) (int, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO punches (employee_id, punch_time, device_id, mode, synced_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (employee_id, punch_time) DO NOTHING
	`

	inserted := 0
	for start := 0; start < len(punches); start += punchBatchSize {
		end := min(start+punchBatchSize, len(punches))

		batch := &pgx.Batch{}
		for _, p := range punches[start:end] {
			var mode *string
			if p.Mode != nil {
				m := string(*p.Mode)
				mode = &m
			}
			syncedAt := p.SyncedAt
			if syncedAt.IsZero() {
				syncedAt = time.Now()
			}
			batch.Queue(query, p.EmployeeID, p.Timestamp, p.DeviceID, mode, syncedAt)
		}

		br := q.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			tag, err := br.Exec()
			if err != nil {
				br.Close()
				return inserted, fmt.Errorf("failed to insert punch: %w", err)
			}
			inserted += int(tag.RowsAffected())
		}
		if err := br.Close(); err != nil {
			return inserted, fmt.Errorf("failed to close punch batch: %w", err)
		}
	}

	return inserted, nil
}

// ListBetween implements punch.PunchRepository.
func (r *punchRepository) ListBetween(ctx context.Context, employeeIDs []string, from, to time.Time) (map[string][]punch.Punch, error) {
	q := GetQuerier(ctx, r.db)
	result := make(map[string][]punch.Punch)
	if employeeIDs != nil && len(employeeIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT employee_id, punch_time, device_id, mode, synced_at
		FROM punches
		WHERE punch_time >= $1 AND punch_time < $2
	`
	args := []interface{}{from, to}
	if employeeIDs != nil {
		query += " AND employee_id = ANY($3)"
		args = append(args, employeeIDs)
	}
	query += " ORDER BY employee_id, punch_time"

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query punches: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p    punch.Punch
			mode *string
		)
		if err := rows.Scan(&p.EmployeeID, &p.Timestamp, &p.DeviceID, &mode, &p.SyncedAt); err != nil {
			return nil, fmt.Errorf("failed to scan punch: %w", err)
		}
		p.Timestamp = database.WallClock(p.Timestamp, r.loc)
		if mode != nil {
			m := punch.Mode(*mode)
			p.Mode = &m
		}
		result[p.EmployeeID] = append(result[p.EmployeeID], p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read punches: %w", err)
	}

	return result, nil
}

// SyncWatermark implements punch.PunchRepository.
func (r *punchRepository) SyncWatermark(ctx context.Context, deviceID string) (time.Time, error) {
	q := GetQuerier(ctx, r.db)

	var last time.Time
	err := q.QueryRow(ctx, `SELECT last_synced FROM punch_sync_state WHERE device_id = $1`, deviceID).Scan(&last)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to get sync watermark: %w", err)
	}
	return database.WallClock(last, r.loc), nil
}

// AdvanceSyncWatermark implements punch.PunchRepository.
func (r *punchRepository) AdvanceSyncWatermark(ctx context.Context, deviceID string, ts time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO punch_sync_state (device_id, last_synced, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (device_id) DO UPDATE SET
			last_synced = GREATEST(punch_sync_state.last_synced, EXCLUDED.last_synced),
			updated_at  = NOW()
	`
	if _, err := q.Exec(ctx, query, deviceID, ts); err != nil {
		return fmt.Errorf("failed to advance sync watermark: %w", err)
	}
	return nil
}
