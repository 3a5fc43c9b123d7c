package punch

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	_ "modernc.org/sqlite"
)

const checkTimeLayout = "2006-01-02 15:04:05"

// SQLiteSource reads the attendance database a ZK-style terminal exports: CHECKINOUT holds the
// punches and USERINFO maps the internal user id to the badge number printed on the card.
type SQLiteSource struct {
	path     string
	deviceID string
	loc      *time.Location
}

func NewSQLiteSource(path, deviceID string, loc *time.Location) *SQLiteSource {
	return &SQLiteSource{path: path, deviceID: deviceID, loc: loc}
}

func (s *SQLiteSource) Name() string {
	return "sqlite:" + filepath.Base(s.path)
}

func (s *SQLiteSource) DeviceID() string {
	return s.deviceID
}

// Fetch opens the database read-only for every call; the terminal replaces the file between exports.
func (s *SQLiteSource) Fetch(ctx context.Context, since time.Time) ([]DeviceRecord, error) {
	db, err := sql.Open("sqlite", "file:"+s.path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open device database: %w", err)
	}
	defer db.Close()

	query := `
		SELECT u.BADGENUMBER, c.CHECKTIME, COALESCE(c.CHECKTYPE, '')
		FROM CHECKINOUT c
		JOIN USERINFO u ON u.USERID = c.USERID
		WHERE c.CHECKTIME >= ?
		ORDER BY c.CHECKTIME ASC
	`
	rows, err := db.QueryContext(ctx, query, since.In(s.loc).Format(checkTimeLayout))
	if err != nil {
		return nil, fmt.Errorf("query device punches: %w", err)
	}
	defer rows.Close()

	var records []DeviceRecord
	for rows.Next() {
		var (
			badge     string
			checkTime any
			checkType string
		)
		if err := rows.Scan(&badge, &checkTime, &checkType); err != nil {
			return nil, fmt.Errorf("scan device punch: %w", err)
		}

		ts, err := s.parseCheckTime(checkTime)
		if err != nil {
			return nil, fmt.Errorf("badge %s: %w", badge, err)
		}

		records = append(records, DeviceRecord{
			DeviceUserID: strings.TrimSpace(badge),
			Timestamp:    ts,
			DeviceID:     s.deviceID,
			Mode:         punch.ParseMode(strings.TrimSpace(checkType)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read device punches: %w", err)
	}

	return records, nil
}

// parseCheckTime accepts the column as text or, when the driver converts DATETIME columns, as a time.
// Either way the value is a device-local wall clock.
func (s *SQLiteSource) parseCheckTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return database.WallClock(t, s.loc), nil
	case string:
		return parseWallClock(t, s.loc)
	case []byte:
		return parseWallClock(string(t), s.loc)
	default:
		return time.Time{}, fmt.Errorf("unexpected CHECKTIME type %T", v)
	}
}

var wallClockLayouts = []string{
	checkTimeLayout,
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"01/02/2006 15:04:05",
	"1/2/06 15:04",
}

func parseWallClock(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range wallClockLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", value)
}
