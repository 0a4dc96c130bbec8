package handler

import (
	"strings"

	"dental-booking/internal/domain/entity"
	"dental-booking/internal/scheduler"
	"dental-booking/pkg/validator"
)

// NewRequestValidator returns the validator with the booking field rules registered
func NewRequestValidator() (*validator.CustomValidator, error) {
	v := validator.NewValidator()

	if err := v.RegisterStringRule("egphone", func(s string) bool {
		_, err := scheduler.NormalizePhone(s)
		return err == nil
	}, "must be 11 digits starting with 0 (e.g., 01XXXXXXXXX)"); err != nil {
		return nil, err
	}

	if err := v.RegisterStringRule("nationalid", func(s string) bool {
		_, err := scheduler.ValidateNationalID(s)
		return err == nil
	}, "must be 14 digits"); err != nil {
		return nil, err
	}

	// case-insensitive, the usecase lowercases the status before applying it
	if err := v.RegisterStringRule("apptstatus", func(s string) bool {
		return entity.AppointmentStatus(strings.ToLower(strings.TrimSpace(s))).Valid()
	}, "must be pending or completed"); err != nil {
		return nil, err
	}

	return v, nil
}
