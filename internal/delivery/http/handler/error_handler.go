package handler

import (
	"errors"
	"net/http"
	"strconv"

	"dental-booking/internal/delivery/dto"
	"dental-booking/internal/scheduler"
	"dental-booking/internal/usecase"
	"dental-booking/pkg/response"
)

// writeError maps usecase and scheduler errors onto the response envelope.
// Unexpected errors surface their message with a 500.
func writeError(w http.ResponseWriter, err error) {
	var full *scheduler.CapacityExceededError
	var dup *usecase.DuplicateBookingError

	switch {
	case usecase.IsValidationError(err):
		response.BadRequest(w, err.Error())
	case errors.As(err, &dup):
		response.Conflict(w, response.CodeDuplicate,
			"You already have a pending appointment. Please complete your current appointment before booking a new one.",
			dto.DuplicateBookingDetails{
				TicketNumber:  strconv.FormatInt(dup.TicketNumber, 10),
				ScheduledDate: dup.ScheduledDate,
				Status:        dup.Status,
				Duplicate:     true,
			})
	case errors.As(err, &full):
		response.Conflict(w, response.CodeCapacity, err.Error(), dto.CapacityExceededDetails{
			DayName:  full.DayName,
			Capacity: full.Capacity,
			Used:     full.Used,
		})
	case errors.Is(err, usecase.ErrAppointmentNotFound):
		response.NotFound(w, "Appointment not found")
	case errors.Is(err, usecase.ErrInvalidCredentials):
		response.Unauthorized(w, "Invalid username or password")
	case errors.Is(err, usecase.ErrBookingBusy):
		response.ServiceUnavailable(w, err.Error())
	default:
		response.InternalServerError(w, err.Error())
	}
}

// parseID reads the {id} path variable
func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// queryInt returns def when the parameter is missing or not a number
func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
