package scheduler

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrInvalidPhone      = errors.New("phone must be 11 digits starting with 0 (e.g., 01XXXXXXXXX)")
	ErrInvalidNationalID = errors.New("national ID must be 14 digits")
)

var (
	phonePattern      = regexp.MustCompile(`^0\d{10}$`)
	nationalIDPattern = regexp.MustCompile(`^\d{14}$`)
)

// NormalizePhone keeps the digits of raw and restores a leading zero lost
// when the number travelled as a numeric value.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	digits := b.String()
	if len(digits) == 10 && digits[0] != '0' {
		digits = "0" + digits
	}

	if !phonePattern.MatchString(digits) {
		return "", ErrInvalidPhone
	}
	return digits, nil
}

// ValidateNationalID trims s and checks it is exactly 14 digits.
func ValidateNationalID(s string) (string, error) {
	id := strings.TrimSpace(s)
	if !nationalIDPattern.MatchString(id) {
		return "", ErrInvalidNationalID
	}
	return id, nil
}

// MaskNationalID hides all but the last four digits.
func MaskNationalID(id string) string {
	if len(id) <= 4 {
		return id
	}
	return strings.Repeat("*", len(id)-4) + id[len(id)-4:]
}
