package usecase

import (
	"errors"
	"fmt"

	"dental-booking/internal/scheduler"
	"dental-booking/internal/service"
)

var (
	ErrNameRequired             = errors.New("name is required")
	ErrInvalidCompletionHour    = errors.New("completion_hour must be HH:MM (00:00-23:59) or use_now must be true")
	ErrCompletionHourNotAllowed = errors.New("completion_hour can only be set on completed appointments")
	ErrNoChanges                = errors.New("no changes")
	ErrInvalidStatus            = errors.New("status must be pending or completed")
	ErrInvalidDate              = errors.New("invalid date format, use YYYY-MM-DD")
	ErrInvalidCapacity          = errors.New("capacity must be a non-negative integer")
	ErrLookupCriteria           = errors.New("provide either ticket or national_id")
	ErrLookupAmbiguous          = errors.New("provide ticket or national_id, not both")
	ErrSearchCriteria           = errors.New("provide phone or ticket")
	ErrAttachmentPath           = errors.New("attachment paths must point into the patient's upload folder")

	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrBookingBusy         = errors.New("booking is busy, please retry")
)

// validationErrors are the client mistakes handlers report as 400
var validationErrors = []error{
	ErrNameRequired,
	ErrInvalidCompletionHour,
	ErrCompletionHourNotAllowed,
	ErrNoChanges,
	ErrInvalidStatus,
	ErrInvalidDate,
	ErrInvalidCapacity,
	ErrLookupCriteria,
	ErrLookupAmbiguous,
	ErrSearchCriteria,
	ErrAttachmentPath,
	scheduler.ErrInvalidPhone,
	scheduler.ErrInvalidNationalID,
	scheduler.ErrInvalidDayName,
	service.ErrUploadTooLarge,
}

// IsValidationError reports whether err stems from bad client input
func IsValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// DuplicateBookingError is returned when the patient already holds an open appointment
type DuplicateBookingError struct {
	TicketNumber  int64
	ScheduledDate string
	Status        string
}

func (e *DuplicateBookingError) Error() string {
	return fmt.Sprintf("patient already has an open appointment (ticket %d on %s)", e.TicketNumber, e.ScheduledDate)
}
