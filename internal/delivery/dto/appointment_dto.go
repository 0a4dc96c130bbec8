package dto

import "time"

// Request DTOs

// BookAppointmentRequest is shared by the patient form and the staff create endpoint
type BookAppointmentRequest struct {
	Name       string     `json:"name" validate:"required,max=255"`
	Phone      FlexString `json:"phone" validate:"required,egphone"`
	NationalID FlexString `json:"national_id" validate:"required,nationalid"`
	Symptoms   *string    `json:"symptoms" validate:"omitempty,max=5000"`
}

// PatientLookupRequest is read from the query string.
// Either Ticket or NationalID, never both.
type PatientLookupRequest struct {
	Ticket     string
	NationalID string
	Phone      string
	Date       string // Format: YYYY-MM-DD
}

// AppointmentListRequest is read from the query string of the staff list and export
type AppointmentListRequest struct {
	Query     string
	Status    string
	Date      string // Format: YYYY-MM-DD
	Page      int
	PageSize  int
	SortField string
	SortDesc  bool
}

type AppointmentSearchRequest struct {
	Phone  string
	Ticket string
}

// UpdateAppointmentRequest is a partial update: nil fields are left alone.
type UpdateAppointmentRequest struct {
	Name           *string     `json:"name" validate:"omitempty,min=1,max=255"`
	Phone          *FlexString `json:"phone" validate:"omitempty,egphone"`
	Symptoms       *string     `json:"symptoms" validate:"omitempty,max=5000"`
	ImagePaths     *[]string   `json:"image_paths"`
	VoiceNotePath  *string     `json:"voice_note_path"`
	ScheduledDate  *string     `json:"scheduled_date" validate:"omitempty,datetime=2006-01-02"`
	Status         *string     `json:"status" validate:"omitempty,apptstatus"`
	CompletionHour *string     `json:"completion_hour"`
	UseNow         bool        `json:"use_now"`
	ProceduresDone *string     `json:"procedures_done" validate:"omitempty,max=2000"`
}

// HasChanges reports whether any updatable field was sent
func (r *UpdateAppointmentRequest) HasChanges() bool {
	return r.Name != nil || r.Phone != nil || r.Symptoms != nil || r.ImagePaths != nil ||
		r.VoiceNotePath != nil || r.ScheduledDate != nil || r.Status != nil ||
		r.CompletionHour != nil || r.UseNow || r.ProceduresDone != nil
}

// Response DTOs

// BookingResponse is returned after a successful booking. The ticket is a
// string so clients never lose precision on it.
type BookingResponse struct {
	ID            int64    `json:"id"`
	TicketNumber  string   `json:"ticket_number"`
	Name          string   `json:"name"`
	ScheduledDate string   `json:"scheduled_date"`
	Status        string   `json:"status"`
	Symptoms      *string  `json:"symptoms"`
	ImagePaths    []string `json:"image_paths"`
	VoiceNotePath *string  `json:"voice_note_path"`
}

type AppointmentResponse struct {
	ID             int64     `json:"id"`
	TicketNumber   string    `json:"ticket_number"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone"`
	NationalID     string    `json:"national_id"`
	Symptoms       *string   `json:"symptoms"`
	ImagePaths     []string  `json:"image_paths"`
	VoiceNotePath  *string   `json:"voice_note_path"`
	Status         string    `json:"status"`
	ScheduledDate  string    `json:"scheduled_date"`
	CompletionHour *string   `json:"completion_hour"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Total        int64                 `json:"total"`
	Page         int                   `json:"page"`
	PageSize     int                   `json:"pageSize"`
}

// DuplicateBookingDetails is sent as error details on a 409
type DuplicateBookingDetails struct {
	TicketNumber  string `json:"ticket_number"`
	ScheduledDate string `json:"scheduled_date"`
	Status        string `json:"status"`
	Duplicate     bool   `json:"duplicate"`
}

type CapacityExceededDetails struct {
	DayName  string `json:"day_name"`
	Capacity int    `json:"capacity"`
	Used     int64  `json:"used"`
}
