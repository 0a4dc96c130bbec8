// Package scheduler holds the booking rules: per-weekday capacity, next
// available date assignment, ticket numbers and contact normalization.
// Nothing in here touches the database directly; callers pass a Counter
// bound to whatever transaction they are running in.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the storage and wire format of a scheduled date.
const DateLayout = "2006-01-02"

// DefaultCapacity applies to weekdays without an explicit rule.
const DefaultCapacity = 10

var ErrInvalidDayName = errors.New("invalid day name")

// WeekDays lists weekday names Monday first, the order staff screens use.
var WeekDays = []time.Weekday{
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
	time.Saturday,
	time.Sunday,
}

// Counter counts appointments already placed on a date (YYYY-MM-DD).
type Counter interface {
	CountOn(ctx context.Context, date string) (int64, error)
}

// CounterFunc adapts a function to Counter.
type CounterFunc func(ctx context.Context, date string) (int64, error)

func (f CounterFunc) CountOn(ctx context.Context, date string) (int64, error) {
	return f(ctx, date)
}

// ParseDayName resolves "monday", "Monday" or "MON" style names.
func ParseDayName(name string) (time.Weekday, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if len(n) < 3 {
		return 0, ErrInvalidDayName
	}
	for _, d := range WeekDays {
		full := strings.ToLower(d.String())
		if n == full || n == full[:3] {
			return d, nil
		}
	}
	return 0, ErrInvalidDayName
}

// CapacityTable maps weekdays to their booking limit.
type CapacityTable struct {
	rules        map[time.Weekday]int
	defaultLimit int
}

// NewCapacityTable returns an empty table where every weekday falls back to
// defaultLimit. A negative default is treated as DefaultCapacity.
func NewCapacityTable(defaultLimit int) *CapacityTable {
	if defaultLimit < 0 {
		defaultLimit = DefaultCapacity
	}
	return &CapacityTable{
		rules:        make(map[time.Weekday]int, len(WeekDays)),
		defaultLimit: defaultLimit,
	}
}

// Set stores an explicit limit. Negative limits are clamped to zero.
func (t *CapacityTable) Set(day time.Weekday, limit int) {
	if limit < 0 {
		limit = 0
	}
	t.rules[day] = limit
}

// For returns the limit for a weekday and whether it came from an explicit rule.
func (t *CapacityTable) For(day time.Weekday) (int, bool) {
	if limit, ok := t.rules[day]; ok {
		return limit, true
	}
	return t.defaultLimit, false
}

// Default returns the limit used for weekdays without a rule.
func (t *CapacityTable) Default() int {
	return t.defaultLimit
}

// CapacityExceededError reports a full day.
type CapacityExceededError struct {
	DayName  string
	Capacity int
	Used     int64
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("capacity reached for %s: %d/%d", e.DayName, e.Used, e.Capacity)
}

// ParseDate parses a YYYY-MM-DD date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

// FormatDate renders the calendar date of t, ignoring its clock and zone.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// CheckCapacity returns *CapacityExceededError when date already holds as
// many appointments as its weekday allows. A limit of zero closes the day.
func CheckCapacity(ctx context.Context, date string, table *CapacityTable, counter Counter) error {
	d, err := ParseDate(date)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", date, err)
	}

	limit, _ := table.For(d.Weekday())
	used, err := counter.CountOn(ctx, FormatDate(d))
	if err != nil {
		return fmt.Errorf("count appointments on %s: %w", date, err)
	}

	if used >= int64(limit) {
		return &CapacityExceededError{
			DayName:  d.Weekday().String(),
			Capacity: limit,
			Used:     used,
		}
	}
	return nil
}
