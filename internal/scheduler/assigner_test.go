package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"
)

func day(s string) time.Time {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestAssigner_TodayHasRoom(t *testing.T) {
	a := NewAssigner(30)
	for _, limit := range []int{1, 3, 10} {
		table := NewCapacityTable(DefaultCapacity)
		table.Set(time.Wednesday, limit)

		for used := 0; used < limit; used++ {
			got, err := a.AssignNextAvailableDate(context.Background(), day("2024-05-01"), table, mapCounter{"2024-05-01": int64(used)})
			if err != nil {
				t.Fatalf("assign: %v", err)
			}
			if got.Date != "2024-05-01" || got.Fallback {
				t.Errorf("limit %d used %d: got %+v, want today", limit, used, got)
			}
		}
	}
}

func TestAssigner_SkipsFullDays(t *testing.T) {
	a := NewAssigner(30)
	table := NewCapacityTable(2)
	counts := mapCounter{
		"2024-05-01": 2,
		"2024-05-02": 5, // over capacity already
		"2024-05-03": 1,
	}

	got, err := a.AssignNextAvailableDate(context.Background(), day("2024-05-01"), table, counts)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if got.Date != "2024-05-03" {
		t.Errorf("got %s, want 2024-05-03", got.Date)
	}
}

func TestAssigner_ZeroCapacityWeekdaySkipped(t *testing.T) {
	a := NewAssigner(30)
	table := NewCapacityTable(DefaultCapacity)
	// 2024-05-03 is a Friday, 2024-05-04 a Saturday.
	table.Set(time.Friday, 0)
	table.Set(time.Saturday, 0)

	got, err := a.AssignNextAvailableDate(context.Background(), day("2024-05-03"), table, mapCounter{})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if got.Date != "2024-05-05" {
		t.Errorf("got %s, want Sunday 2024-05-05", got.Date)
	}
}

func TestAssigner_FallbackIgnoresCapacity(t *testing.T) {
	a := NewAssigner(7)
	table := NewCapacityTable(0)

	got, err := a.AssignNextAvailableDate(context.Background(), day("2024-05-01"), table, mapCounter{})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if got.Date != "2024-05-08" || !got.Fallback {
		t.Errorf("got %+v, want fallback 2024-05-08", got)
	}
}

func TestAssigner_IgnoresClockAndZone(t *testing.T) {
	a := NewAssigner(30)
	cairo := time.FixedZone("EET", 2*60*60)
	late := time.Date(2024, 5, 1, 23, 30, 0, 0, cairo)

	got, err := a.AssignNextAvailableDate(context.Background(), late, NewCapacityTable(10), mapCounter{})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if got.Date != "2024-05-01" {
		t.Errorf("got %s, want local calendar date 2024-05-01", got.Date)
	}
}

func TestAssigner_CounterError(t *testing.T) {
	boom := errors.New("boom")
	counter := CounterFunc(func(context.Context, string) (int64, error) { return 0, boom })

	_, err := NewAssigner(30).AssignNextAvailableDate(context.Background(), day("2024-05-01"), NewCapacityTable(10), counter)
	if !errors.Is(err, boom) {
		t.Fatalf("expected counter error, got %v", err)
	}
}

func TestAssigner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewAssigner(30).AssignNextAvailableDate(ctx, day("2024-05-01"), NewCapacityTable(10), mapCounter{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewAssigner_DefaultHorizon(t *testing.T) {
	if h := NewAssigner(0).Horizon(); h != DefaultHorizonDays {
		t.Errorf("horizon = %d, want %d", h, DefaultHorizonDays)
	}
}
