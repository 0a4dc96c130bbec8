package entity

import (
	"time"

	"gorm.io/datatypes"
)

// AppointmentStatus represents where an appointment is in its lifecycle
type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusCompleted AppointmentStatus = "completed"
)

// Valid reports whether s is a known status
func (s AppointmentStatus) Valid() bool {
	return s == AppointmentStatusPending || s == AppointmentStatusCompleted
}

// Appointment is a single patient visit. ScheduledDate is kept as a
// YYYY-MM-DD string so equality and ordering behave the same on every driver.
type Appointment struct {
	ID             int64                       `gorm:"primaryKey;autoIncrement" json:"id"`
	TicketNumber   int64                       `gorm:"not null;index" json:"ticket_number"`
	Name           string                      `gorm:"type:varchar(255);not null" json:"name"`
	Phone          string                      `gorm:"type:varchar(11);not null;index" json:"phone"`
	NationalID     string                      `gorm:"type:varchar(14);not null;index" json:"national_id"`
	Symptoms       *string                     `gorm:"type:text" json:"symptoms,omitempty"`
	ImagePaths     datatypes.JSONSlice[string] `json:"image_paths"`
	VoiceNotePath  *string                     `gorm:"type:varchar(512)" json:"voice_note_path,omitempty"`
	Status         AppointmentStatus           `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	ScheduledDate  string                      `gorm:"type:varchar(10);not null;index" json:"scheduled_date"`
	CompletionHour *string                     `gorm:"type:varchar(5)" json:"completion_hour,omitempty"`
	CreatedAt      time.Time                   `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt      time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// IsCompleted checks if the visit has been closed by staff
func (a *Appointment) IsCompleted() bool {
	return a.Status == AppointmentStatusCompleted
}

// IsOpen reports whether the appointment still blocks a new booking
func (a *Appointment) IsOpen() bool {
	return !a.IsCompleted()
}

// Complete closes the appointment at the given HH:MM
func (a *Appointment) Complete(hour string) {
	a.Status = AppointmentStatusCompleted
	a.CompletionHour = &hour
}

// Reopen puts a completed appointment back in the queue
func (a *Appointment) Reopen() {
	a.Status = AppointmentStatusPending
	a.CompletionHour = nil
}
