package response

import (
	"errors"
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, auth.ErrActorMissing):
		Unauthorized(w, "Token does not identify a user")
	case errors.Is(err, auth.ErrManagerAccessRequired):
		Forbidden(w, "Manager or owner access required")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrInvalidDateRange):
		BadRequest(w, "Start date must not be after end date", nil)
	case errors.Is(err, attendance.ErrDateRangeTooLong):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, attendance.ErrFutureDate):
		BadRequest(w, "Cannot process attendance for a future date", nil)
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrProcessingInFlight):
		Conflict(w, "Another attendance batch is already running")

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, err.Error())

	// Punch domain errors
	case errors.Is(err, punch.ErrInvalidImportFile):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, punch.ErrEmptyImportFile):
		BadRequest(w, "Import file has no punch rows", nil)
	case errors.Is(err, punch.ErrDeviceSourceNotConfigured):
		ServiceUnavailable(w, "Device source is not configured")
	case errors.Is(err, punch.ErrSyncInFlight):
		Conflict(w, "Punch sync is already running")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
