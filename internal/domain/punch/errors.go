package punch

import "errors"

var (
	ErrDeviceSourceNotConfigured = errors.New("device source is not configured")
	ErrInvalidImportFile         = errors.New("import file must be an .xlsx workbook")
	ErrEmptyImportFile           = errors.New("import file has no punch rows")
	ErrSyncInFlight              = errors.New("punch sync is already running")
	ErrUnknownEmployee           = errors.New("punch does not map to a known employee")
)
