package punch

import (
	"context"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/punch"
)

// DeviceRecord is a punch as the device knows it, keyed by badge number rather than employee.
type DeviceRecord struct {
	DeviceUserID string
	Timestamp    time.Time
	DeviceID     string
	Mode         *punch.Mode
}

// DeviceSource reads punches recorded by a biometric device.
type DeviceSource interface {
	// Name identifies the source in sync results and logs.
	Name() string
	// DeviceID is the device the watermark is tracked for.
	DeviceID() string
	// Fetch returns records at or after since, oldest first.
	Fetch(ctx context.Context, since time.Time) ([]DeviceRecord, error)
}
