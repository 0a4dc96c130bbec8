package scheduler

import (
	"context"
	"fmt"
	"time"
)

// DefaultHorizonDays bounds the forward scan for a free day.
const DefaultHorizonDays = 30

// Assignment is the outcome of a date scan.
type Assignment struct {
	Date string
	// Fallback is set when no day inside the horizon had room and the
	// date was placed at today+horizon without checking its capacity.
	Fallback bool
}

// Assigner finds the next date with open capacity.
type Assigner struct {
	horizon int
}

func NewAssigner(horizonDays int) *Assigner {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	return &Assigner{horizon: horizonDays}
}

// Horizon returns the number of days scanned.
func (a *Assigner) Horizon() int {
	return a.horizon
}

// AssignNextAvailableDate scans today, today+1, ... today+horizon-1 and
// returns the first date whose count is below its weekday capacity. When
// every day is full it returns today+horizon unconditionally.
func (a *Assigner) AssignNextAvailableDate(ctx context.Context, today time.Time, table *CapacityTable, counter Counter) (Assignment, error) {
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	for offset := 0; offset < a.horizon; offset++ {
		if err := ctx.Err(); err != nil {
			return Assignment{}, err
		}

		candidate := start.AddDate(0, 0, offset)
		limit, _ := table.For(candidate.Weekday())
		if limit == 0 {
			continue
		}

		date := FormatDate(candidate)
		used, err := counter.CountOn(ctx, date)
		if err != nil {
			return Assignment{}, fmt.Errorf("count appointments on %s: %w", date, err)
		}
		if used < int64(limit) {
			return Assignment{Date: date}, nil
		}
	}

	return Assignment{Date: FormatDate(start.AddDate(0, 0, a.horizon)), Fallback: true}, nil
}
