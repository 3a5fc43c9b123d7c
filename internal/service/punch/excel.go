package punch

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/xuri/excelize/v2"
)

// ImportRow is one parsed line of a punch workbook.
type ImportRow struct {
	Line       int
	EmployeeID string
	Timestamp  time.Time
	DeviceID   string
	Mode       *punch.Mode
}

// ParseWorkbook reads the first sheet of an .xlsx export. The header row must name employee_id and
// timestamp; device_id and mode are optional. Rows that cannot be parsed are returned as rejections
// and do not fail the import.
func ParseWorkbook(data []byte, loc *time.Location, defaultDevice string) ([]ImportRow, []string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", punch.ErrInvalidImportFile, err)
	}
	defer func() { _ = file.Close() }()

	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		return nil, nil, fmt.Errorf("%w: no worksheet found", punch.ErrInvalidImportFile)
	}

	rows, err := file.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, fmt.Errorf("read worksheet %s: %w", sheetName, err)
	}
	if len(rows) < 2 {
		return nil, nil, punch.ErrEmptyImportFile
	}

	cols := map[string]int{"employee_id": -1, "timestamp": -1, "device_id": -1, "mode": -1}
	for i, header := range rows[0] {
		name := normalizeHeader(header)
		if _, ok := cols[name]; ok {
			cols[name] = i
		}
	}
	if cols["employee_id"] < 0 || cols["timestamp"] < 0 {
		return nil, nil, fmt.Errorf("%w: header must contain employee_id and timestamp", punch.ErrInvalidImportFile)
	}

	var (
		parsed   []ImportRow
		rejected []string
	)
	for i, row := range rows[1:] {
		line := i + 2
		employeeID := cellValue(row, cols["employee_id"])
		rawTS := cellValue(row, cols["timestamp"])
		if employeeID == "" && rawTS == "" {
			continue
		}
		if employeeID == "" {
			rejected = append(rejected, fmt.Sprintf("row %d: employee_id is empty", line))
			continue
		}

		ts, err := parseCellTime(rawTS, loc)
		if err != nil {
			rejected = append(rejected, fmt.Sprintf("row %d: %v", line, err))
			continue
		}

		deviceID := cellValue(row, cols["device_id"])
		if deviceID == "" {
			deviceID = defaultDevice
		}

		parsed = append(parsed, ImportRow{
			Line:       line,
			EmployeeID: employeeID,
			Timestamp:  ts,
			DeviceID:   deviceID,
			Mode:       punch.ParseMode(cellValue(row, cols["mode"])),
		})
	}

	if len(parsed) == 0 && len(rejected) == 0 {
		return nil, nil, punch.ErrEmptyImportFile
	}
	return parsed, rejected, nil
}

// parseCellTime handles both date-formatted cells, which arrive as Excel serials, and text cells.
func parseCellTime(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("timestamp is empty")
	}
	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("timestamp %q: %w", value, err)
		}
		return database.WallClock(t.Round(time.Second), loc), nil
	}
	return parseWallClock(value, loc)
}

func normalizeHeader(header string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(header)), " ", "_")
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
