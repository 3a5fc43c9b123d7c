package attendance

import (
	"strings"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

// ========================================
// PROCESSING DTOs
// ========================================

// MaxProcessDays bounds a single batch invocation.
const MaxProcessDays = 366

// ProcessRequest triggers reconciliation for a single date or an inclusive date range.
type ProcessRequest struct {
	Date        *string  `json:"date,omitempty"`       // YYYY-MM-DD
	StartDate   *string  `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate     *string  `json:"end_date,omitempty"`   // YYYY-MM-DD
	EmployeeIDs []string `json:"employee_ids,omitempty"`

	// Actor is stamped into created_by/updated_by. Set by the caller, never by the client.
	Actor string `json:"-"`
}

func (r *ProcessRequest) Validate() error {
	var errs validator.ValidationErrors

	hasDate := r.Date != nil && *r.Date != ""
	hasStart := r.StartDate != nil && *r.StartDate != ""
	hasEnd := r.EndDate != nil && *r.EndDate != ""

	switch {
	case hasDate && (hasStart || hasEnd):
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date cannot be combined with start_date/end_date",
		})
	case !hasDate && !hasStart && !hasEnd:
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "either date or start_date and end_date is required",
		})
	case !hasDate && hasStart != hasEnd:
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "start_date and end_date must be provided together",
		})
	}

	if hasDate {
		if _, valid := validator.IsValidDate(*r.Date); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "date",
				Message: "date must be in YYYY-MM-DD format",
			})
		}
	}

	if hasStart {
		if _, valid := validator.IsValidDate(*r.StartDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
	}

	if hasEnd {
		if _, valid := validator.IsValidDate(*r.EndDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
	}

	for _, id := range r.EmployeeIDs {
		if validator.IsEmpty(id) {
			errs = append(errs, validator.ValidationError{
				Field:   "employee_ids",
				Message: "employee_ids must not contain empty values",
			})
			break
		}
	}

	if validator.IsEmpty(r.Actor) {
		errs = append(errs, validator.ValidationError{
			Field:   "actor",
			Message: "actor is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// Range returns the inclusive date strings the request covers. Call after Validate.
func (r *ProcessRequest) Range() (string, string) {
	if r.Date != nil && *r.Date != "" {
		return *r.Date, *r.Date
	}
	return *r.StartDate, *r.EndDate
}

type SkippedEntry struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
	Reason     string `json:"reason"`
}

// ProcessSummary is returned by every batch run, including runs that stopped early.
type ProcessSummary struct {
	StartDate      string         `json:"start_date"`
	EndDate        string         `json:"end_date"`
	DatesCommitted int            `json:"dates_committed"`
	LastCommitted  string         `json:"last_committed,omitempty"`
	ProcessedCount int            `json:"processed_count"`
	SkippedCount   int            `json:"skipped_count"`
	Skipped        []SkippedEntry `json:"skipped,omitempty"`
}

// ========================================
// READ DTOs
// ========================================

type AttendanceResponse struct {
	ID         string  `json:"id"`
	EmployeeID string  `json:"employee_id"`
	Date       string  `json:"date"`
	Status     string  `json:"status"`
	InTime     *string `json:"in_time,omitempty"`
	OutTime    *string `json:"out_time,omitempty"`
	OTHours    string  `json:"ot_hours"`
	Remarks    string  `json:"remarks"`
	CreatedAt  string  `json:"created_at"`
	CreatedBy  string  `json:"created_by"`
	UpdatedAt  string  `json:"updated_at"`
	UpdatedBy  string  `json:"updated_by"`
}

type AttendanceFilter struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	StartDate  string  `json:"start_date"` // YYYY-MM-DD
	EndDate    string  `json:"end_date"`   // YYYY-MM-DD
	Status     *string `json:"status,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`

	// Sorting
	SortBy    string `json:"sort_by"`    // date, employee_id, status
	SortOrder string `json:"sort_order"` // asc, desc
}

func (f *AttendanceFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1
	}

	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 50
	}
	if f.Limit > 500 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 500",
		})
	}

	if f.Status != nil && *f.Status != "" {
		if !validator.IsInSlice(*f.Status, StatusValues) {
			errs = append(errs, validator.ValidationError{
				Field:   "status",
				Message: "status must be one of: " + strings.Join(StatusValues, ", "),
			})
		}
	}

	start, startValid := validator.IsValidDate(f.StartDate)
	if !startValid {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "start_date must be in YYYY-MM-DD format",
		})
	}
	end, endValid := validator.IsValidDate(f.EndDate)
	if !endValid {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must be in YYYY-MM-DD format",
		})
	}
	if startValid && endValid && end.Before(start) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must not be before start_date",
		})
	}

	if f.SortBy != "" {
		validSortFields := []string{"date", "employee_id", "status"}
		if !validator.IsInSlice(f.SortBy, validSortFields) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_by",
				Message: "sort_by must be one of: date, employee_id, status",
			})
		}
	} else {
		f.SortBy = "date"
	}

	if f.SortOrder != "" {
		if !validator.IsInSlice(strings.ToLower(f.SortOrder), []string{"asc", "desc"}) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_order",
				Message: "sort_order must be one of: asc, desc",
			})
		}
	} else {
		f.SortOrder = "asc"
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ListAttendanceResponse struct {
	TotalCount  int64                `json:"total_count"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
	TotalPages  int                  `json:"total_pages"`
	Attendances []AttendanceResponse `json:"attendances"`
}
