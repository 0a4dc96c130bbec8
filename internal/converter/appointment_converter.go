package converter

import (
	"strconv"

	"dental-booking/internal/delivery/dto"
	"dental-booking/internal/domain/entity"
	"dental-booking/internal/scheduler"
)

// AppointmentToResponse converts an Appointment entity to AppointmentResponse DTO
func AppointmentToResponse(a *entity.Appointment) *dto.AppointmentResponse {
	if a == nil {
		return nil
	}

	return &dto.AppointmentResponse{
		ID:             a.ID,
		TicketNumber:   strconv.FormatInt(a.TicketNumber, 10),
		Name:           a.Name,
		Phone:          a.Phone,
		NationalID:     a.NationalID,
		Symptoms:       a.Symptoms,
		ImagePaths:     imagePaths(a),
		VoiceNotePath:  a.VoiceNotePath,
		Status:         string(a.Status),
		ScheduledDate:  a.ScheduledDate,
		CompletionHour: a.CompletionHour,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

// AppointmentsToResponses converts a slice of Appointment entities
func AppointmentsToResponses(appointments []entity.Appointment) []dto.AppointmentResponse {
	responses := make([]dto.AppointmentResponse, len(appointments))
	for i := range appointments {
		responses[i] = *AppointmentToResponse(&appointments[i])
	}
	return responses
}

// AppointmentsToPatientResponses is the patient-facing view: the national id is masked
func AppointmentsToPatientResponses(appointments []entity.Appointment) []dto.AppointmentResponse {
	responses := AppointmentsToResponses(appointments)
	for i := range responses {
		responses[i].NationalID = scheduler.MaskNationalID(responses[i].NationalID)
	}
	return responses
}

// AppointmentToBookingResponse converts a freshly booked appointment
func AppointmentToBookingResponse(a *entity.Appointment) *dto.BookingResponse {
	if a == nil {
		return nil
	}

	return &dto.BookingResponse{
		ID:            a.ID,
		TicketNumber:  strconv.FormatInt(a.TicketNumber, 10),
		Name:          a.Name,
		ScheduledDate: a.ScheduledDate,
		Status:        string(a.Status),
		Symptoms:      a.Symptoms,
		ImagePaths:    imagePaths(a),
		VoiceNotePath: a.VoiceNotePath,
	}
}

func imagePaths(a *entity.Appointment) []string {
	if len(a.ImagePaths) == 0 {
		return []string{}
	}
	return append([]string(nil), a.ImagePaths...)
}
