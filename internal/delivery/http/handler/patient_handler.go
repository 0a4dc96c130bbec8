package handler

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"dental-booking/internal/delivery/dto"
	"dental-booking/internal/usecase"
	"dental-booking/pkg/response"
	"dental-booking/pkg/validator"

	"github.com/sirupsen/logrus"
)

const (
	maxBookingImages  = 5
	multipartMemory   = 8 << 20
	jsonBodyLimit     = 1 << 20
	multipartOverhead = 1 << 20
)

type PatientHandler struct {
	bookingUsecase usecase.BookingUsecase
	validator      *validator.CustomValidator
	log            *logrus.Logger
	maxUploadBytes int64
}

func NewPatientHandler(bookingUsecase usecase.BookingUsecase, validator *validator.CustomValidator, log *logrus.Logger, maxUploadBytes int64) *PatientHandler {
	return &PatientHandler{
		bookingUsecase: bookingUsecase,
		validator:      validator,
		log:            log,
		maxUploadBytes: maxUploadBytes,
	}
}

// BookAppointment accepts a JSON body or a multipart form carrying optional
// "image" files and one "voice" file.
func (h *PatientHandler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	var req dto.BookAppointmentRequest
	var files *usecase.BookingAttachments

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		limit := h.maxUploadBytes*(maxBookingImages+1) + multipartOverhead
		r.Body = http.MaxBytesReader(w, r.Body, limit)
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				response.BadRequest(w, "Upload too large")
				return
			}
			response.BadRequest(w, "Invalid multipart form")
			return
		}
		defer r.MultipartForm.RemoveAll()

		req = dto.BookAppointmentRequest{
			Name:       r.FormValue("name"),
			Phone:      dto.FlexString(r.FormValue("phone")),
			NationalID: dto.FlexString(r.FormValue("national_id")),
		}
		if s := r.FormValue("symptoms"); s != "" {
			req.Symptoms = &s
		}

		attachments, closeAll, err := openAttachments(r.MultipartForm)
		defer closeAll()
		if err != nil {
			response.BadRequest(w, err.Error())
			return
		}
		files = attachments
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, jsonBodyLimit)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "Invalid request body")
			return
		}
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	booking, err := h.bookingUsecase.BookAppointment(r.Context(), &req, files)
	if err != nil {
		h.log.WithError(err).Debug("Booking rejected")
		writeError(w, err)
		return
	}

	response.Success(w, http.StatusCreated, "Appointment booked successfully", booking)
}

// FindAppointments is the patient self lookup:
// ?ticket= or ?national_id=&phone=&date=
func (h *PatientHandler) FindAppointments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := dto.PatientLookupRequest{
		Ticket:     q.Get("ticket"),
		NationalID: q.Get("national_id"),
		Phone:      q.Get("phone"),
		Date:       q.Get("date"),
	}

	appointments, err := h.bookingUsecase.FindPatientAppointments(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Appointments retrieved successfully", appointments)
}

// openAttachments opens the uploaded parts. The returned func closes whatever was opened.
func openAttachments(form *multipart.Form) (*usecase.BookingAttachments, func(), error) {
	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	images := form.File["image"]
	if len(images) > maxBookingImages {
		return nil, closeAll, errors.New("too many images, at most 5 are accepted")
	}

	files := &usecase.BookingAttachments{}
	for _, fh := range images {
		if fh.Filename == "" {
			continue
		}
		f, err := fh.Open()
		if err != nil {
			return nil, closeAll, errors.New("cannot read uploaded image")
		}
		opened = append(opened, f)
		files.Images = append(files.Images, usecase.Attachment{Filename: fh.Filename, Content: f})
	}

	if voices := form.File["voice"]; len(voices) > 0 && voices[0].Filename != "" {
		f, err := voices[0].Open()
		if err != nil {
			return nil, closeAll, errors.New("cannot read uploaded voice note")
		}
		opened = append(opened, f)
		files.Voice = &usecase.Attachment{Filename: voices[0].Filename, Content: f}
	}
	return files, closeAll, nil
}
