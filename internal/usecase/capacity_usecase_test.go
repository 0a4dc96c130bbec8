package usecase

import (
	"context"
	"errors"
	"testing"

	"dental-booking/internal/domain/entity"
	"dental-booking/internal/repository"
	"dental-booking/internal/scheduler"
)

func newCapacityUsecase(deps *testDeps) CapacityUsecase {
	return NewCapacityUsecase(deps.db, deps.log, repository.NewCapacityRepository(), deps.capacity, deps.audit)
}

func TestGetCapacity_FlagsDefaults(t *testing.T) {
	deps := newTestDeps(t)
	seedCapacity(t, deps.db, map[string]int{"Friday": 0, "Monday": 4})
	u := newCapacityUsecase(deps)

	resp, err := u.GetCapacity(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if resp.DefaultCapacity != scheduler.DefaultCapacity || len(resp.Days) != 7 {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Days[0].DayName != "Monday" || resp.Days[0].Capacity != 4 || resp.Days[0].IsDefault {
		t.Fatalf("monday = %+v", resp.Days[0])
	}
	if resp.Days[4].DayName != "Friday" || resp.Days[4].Capacity != 0 || resp.Days[4].IsDefault {
		t.Fatalf("friday = %+v", resp.Days[4])
	}
	if !resp.Days[1].IsDefault || resp.Days[1].Capacity != scheduler.DefaultCapacity {
		t.Fatalf("tuesday = %+v", resp.Days[1])
	}
}

func TestSetCapacity(t *testing.T) {
	deps := newTestDeps(t)
	u := newCapacityUsecase(deps)

	resp, err := u.SetCapacity(staffContext(), "sat", 6)
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if resp.DayName != "Saturday" || resp.Capacity != 6 {
		t.Fatalf("resp = %+v", resp)
	}

	if _, err := u.SetCapacity(context.Background(), "SATURDAY", 2); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	rules, _ := repository.NewCapacityRepository().FindAll(deps.db)
	if len(rules) != 1 || rules[0].Capacity != 2 {
		t.Fatalf("rules = %+v", rules)
	}

	var actors []string
	deps.db.Model(&entity.AuditLog{}).Where("action = ?", entity.AuditActionCapacityUpdate).Order("id ASC").Pluck("actor", &actors)
	if len(actors) != 2 || actors[0] != "admin" || actors[1] != "cli" {
		t.Fatalf("actors = %v", actors)
	}

	if _, err := u.SetCapacity(staffContext(), "someday", 3); !errors.Is(err, scheduler.ErrInvalidDayName) {
		t.Fatalf("bad day err = %v", err)
	}
	if _, err := u.SetCapacity(staffContext(), "Monday", -1); !errors.Is(err, ErrInvalidCapacity) {
		t.Fatalf("negative err = %v", err)
	}
}
