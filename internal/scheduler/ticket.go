package scheduler

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// TicketMinter builds ticket numbers of the form
// YYYYMMDD + per-day sequence (3 digits, not capped) + national id suffix (4 digits).
type TicketMinter struct {
	filler func() int
}

func NewTicketMinter() *TicketMinter {
	return &TicketMinter{filler: randomSuffix}
}

// NewTicketMinterWithFiller uses filler for ids without 4 trailing digits.
func NewTicketMinterWithFiller(filler func() int) *TicketMinter {
	return &TicketMinter{filler: filler}
}

// Mint derives the ticket for the (existing+1)-th appointment on scheduledDate.
// The sequence overflows into a fourth digit past 999.
func (m *TicketMinter) Mint(scheduledDate string, existing int64, nationalID string) (int64, error) {
	d, err := ParseDate(scheduledDate)
	if err != nil {
		return 0, fmt.Errorf("parse date %q: %w", scheduledDate, err)
	}

	raw := fmt.Sprintf("%s%03d%04d", d.Format("20060102"), existing+1, m.suffix(nationalID))
	ticket, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("ticket %s out of range: %w", raw, err)
	}
	return ticket, nil
}

func (m *TicketMinter) suffix(nationalID string) int {
	id := strings.TrimSpace(nationalID)
	if len(id) >= 4 {
		tail := id[len(id)-4:]
		if strings.Trim(tail, "0123456789") == "" {
			n, _ := strconv.Atoi(tail)
			return n
		}
	}
	n := m.filler() % 10000
	if n < 0 {
		n = -n
	}
	return n
}

// TicketSuffix returns the last four digits of a ticket.
func TicketSuffix(ticket int64) int64 {
	return ticket % 10000
}

func randomSuffix() int {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return 0
	}
	return int(n.Int64())
}
