package punch

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/punch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var wib = time.FixedZone("WIB", 7*60*60)

func createDeviceDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "att2000.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	stmts := []string{
		`CREATE TABLE USERINFO (USERID INTEGER PRIMARY KEY, BADGENUMBER TEXT NOT NULL, NAME TEXT)`,
		`CREATE TABLE CHECKINOUT (USERID INTEGER NOT NULL, CHECKTIME TEXT NOT NULL, CHECKTYPE TEXT, SENSORID TEXT)`,
		`INSERT INTO USERINFO (USERID, BADGENUMBER, NAME) VALUES (1, '1001', 'Ayu'), (2, '1002', 'Budi')`,
		`INSERT INTO CHECKINOUT (USERID, CHECKTIME, CHECKTYPE, SENSORID) VALUES
			(1, '2024-03-06 18:02:11', 'O', '1'),
			(1, '2024-03-06 08:55:40', 'I', '1'),
			(2, '2024-03-06 09:20:00', NULL, '1'),
			(3, '2024-03-06 09:30:00', 'I', '1')`,
	}
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return path
}

func TestSQLiteSource_Fetch(t *testing.T) {
	source := NewSQLiteSource(createDeviceDB(t), "device-1", wib)

	records, err := source.Fetch(context.Background(), time.Time{})
	require.NoError(t, err)

	// USERID 3 has no USERINFO row and cannot be attributed.
	require.Len(t, records, 3)

	assert.Equal(t, "1001", records[0].DeviceUserID)
	assert.True(t, records[0].Timestamp.Equal(time.Date(2024, 3, 6, 8, 55, 40, 0, wib)))
	require.NotNil(t, records[0].Mode)
	assert.Equal(t, punch.ModeIn, *records[0].Mode)

	assert.Equal(t, "1002", records[1].DeviceUserID)
	assert.Nil(t, records[1].Mode)

	assert.Equal(t, "1001", records[2].DeviceUserID)
	assert.Equal(t, punch.ModeOut, *records[2].Mode)
	assert.Equal(t, "device-1", records[2].DeviceID)
}

func TestSQLiteSource_FetchSinceWatermark(t *testing.T) {
	source := NewSQLiteSource(createDeviceDB(t), "device-1", wib)

	records, err := source.Fetch(context.Background(), time.Date(2024, 3, 6, 9, 20, 0, 0, wib))
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "1002", records[0].DeviceUserID)
	assert.Equal(t, "1001", records[1].DeviceUserID)
}

func TestSQLiteSource_MissingFile(t *testing.T) {
	source := NewSQLiteSource(filepath.Join(t.TempDir(), "absent.db"), "device-1", wib)

	_, err := source.Fetch(context.Background(), time.Time{})
	assert.Error(t, err)
}

func TestSQLiteSource_Name(t *testing.T) {
	source := NewSQLiteSource("/var/lib/zk/att2000.db", "device-9", wib)
	assert.Equal(t, "sqlite:att2000.db", source.Name())
	assert.Equal(t, "device-9", source.DeviceID())
}
