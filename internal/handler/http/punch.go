package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
)

// maxUploadMemory is the multipart form size kept in memory before spilling to disk.
const maxUploadMemory = 10 << 20

type PunchHandler interface {
	Sync(w http.ResponseWriter, r *http.Request)
	Import(w http.ResponseWriter, r *http.Request)
}

type punchHandlerImpl struct {
	syncService punch.SyncService
}

func NewPunchHandler(syncService punch.SyncService) PunchHandler {
	return &punchHandlerImpl{
		syncService: syncService,
	}
}

// Sync implements PunchHandler.
func (h *punchHandlerImpl) Sync(w http.ResponseWriter, r *http.Request) {
	result, err := h.syncService.Sync(r.Context())
	if err != nil {
		slog.Error("Punch sync failed", "error", err)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Punches synced", result)
}

// Import implements PunchHandler.
func (h *punchHandlerImpl) Import(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		slog.Error("Failed to parse multipart form", "error", err)
		response.BadRequest(w, "Failed to parse form data", nil)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		if err == http.ErrMissingFile {
			response.BadRequest(w, "Field 'file' is required", nil)
			return
		}
		slog.Error("Failed to get file from form", "error", err)
		response.BadRequest(w, "Invalid file upload", nil)
		return
	}
	defer file.Close()

	result, err := h.syncService.Import(r.Context(), file, fileHeader.Filename)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Punches imported", result)
}
