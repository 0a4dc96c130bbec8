package handler

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"dental-booking/internal/delivery/dto"
	"dental-booking/internal/usecase"
	"dental-booking/pkg/response"
	"dental-booking/pkg/validator"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

var exportHeader = []string{
	"id", "ticket_number", "name", "phone", "national_id", "symptoms",
	"status", "scheduled_date", "completion_hour", "created_at",
}

type AppointmentHandler struct {
	appointmentUsecase usecase.AppointmentUsecase
	bookingUsecase     usecase.BookingUsecase
	validator          *validator.CustomValidator
	log                *logrus.Logger
}

func NewAppointmentHandler(appointmentUsecase usecase.AppointmentUsecase, bookingUsecase usecase.BookingUsecase, validator *validator.CustomValidator, log *logrus.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		appointmentUsecase: appointmentUsecase,
		bookingUsecase:     bookingUsecase,
		validator:          validator,
		log:                log,
	}
}

func (h *AppointmentHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	req := listRequest(r)

	list, err := h.appointmentUsecase.ListAppointments(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	response.SuccessWithMeta(w, http.StatusOK, "Appointments retrieved successfully", list.Appointments,
		response.NewMeta(list.Page, list.PageSize, list.Total))
}

func (h *AppointmentHandler) SearchAppointments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := dto.AppointmentSearchRequest{
		Phone:  q.Get("phone"),
		Ticket: q.Get("ticket"),
	}

	appointments, err := h.appointmentUsecase.SearchAppointments(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Appointments retrieved successfully", appointments)
}

// ExportAppointments streams the filtered list as CSV
func (h *AppointmentHandler) ExportAppointments(w http.ResponseWriter, r *http.Request) {
	req := listRequest(r)

	appointments, err := h.appointmentUsecase.ExportAppointments(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	filename := fmt.Sprintf("appointments_%s.csv", time.Now().UTC().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	_ = cw.Write(exportHeader)
	for _, a := range appointments {
		_ = cw.Write([]string{
			fmt.Sprint(a.ID),
			a.TicketNumber,
			a.Name,
			a.Phone,
			a.NationalID,
			deref(a.Symptoms),
			a.Status,
			a.ScheduledDate,
			deref(a.CompletionHour),
			a.CreatedAt.Format(time.RFC3339),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.log.Warnf("Failed to write export: %+v", err)
	}
}

// CreateAppointment books on behalf of a patient. JSON only.
func (h *AppointmentHandler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req dto.BookAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	booking, err := h.bookingUsecase.CreateAppointment(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, http.StatusCreated, "Appointment created successfully", booking)
}

func (h *AppointmentHandler) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(mux.Vars(r)["id"])
	if !ok {
		response.BadRequest(w, "Invalid appointment ID")
		return
	}

	var req dto.UpdateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.appointmentUsecase.UpdateAppointment(r.Context(), id, &req)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Appointment updated successfully", appointment)
}

func (h *AppointmentHandler) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(mux.Vars(r)["id"])
	if !ok {
		response.BadRequest(w, "Invalid appointment ID")
		return
	}

	if err := h.appointmentUsecase.DeleteAppointment(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Appointment deleted successfully", nil)
}

// listRequest reads q, status, date, page, pageSize and sort=field:DIR
func listRequest(r *http.Request) dto.AppointmentListRequest {
	q := r.URL.Query()
	req := dto.AppointmentListRequest{
		Query:    q.Get("q"),
		Status:   q.Get("status"),
		Date:     q.Get("date"),
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "pageSize", usecase.DefaultPageSize),
	}

	if sort := q.Get("sort"); sort != "" {
		field, dir, _ := strings.Cut(sort, ":")
		req.SortField = strings.TrimSpace(field)
		req.SortDesc = strings.EqualFold(strings.TrimSpace(dir), "desc")
	}
	return req
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
