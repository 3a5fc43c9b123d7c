package punch

import (
	"context"
	"io"
)

// SyncService feeds the punch store from device sources.
type SyncService interface {
	// Sync pulls punches newer than the stored watermark from the configured device source.
	Sync(ctx context.Context) (SyncResult, error)

	// Import loads punches from an uploaded device export workbook.
	Import(ctx context.Context, r io.Reader, filename string) (SyncResult, error)
}
