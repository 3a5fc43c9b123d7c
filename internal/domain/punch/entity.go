package punch

import "time"

// Punch is a raw device event. Timestamp is the device-local wall clock.
type Punch struct {
	EmployeeID string
	Timestamp  time.Time
	DeviceID   string
	Mode       *Mode
	SyncedAt   time.Time
}

// Mode is the device's in/out hint. Many devices leave it empty or get it wrong,
// so reconciliation never relies on it.
type Mode string

const (
	ModeIn  Mode = "in"
	ModeOut Mode = "out"
)

// ParseMode maps the device codes seen in exports to a Mode. Unknown codes yield nil.
func ParseMode(code string) *Mode {
	var m Mode
	switch code {
	case "I", "i", "0", "in", "IN", "C/In":
		m = ModeIn
	case "O", "o", "1", "out", "OUT", "C/Out":
		m = ModeOut
	default:
		return nil
	}
	return &m
}
