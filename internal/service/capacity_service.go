package service

import (
	"dental-booking/internal/domain/repository"
	"dental-booking/internal/scheduler"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CapacityService builds the effective weekday capacity table from stored
// rules and the configured default. Every caller that needs a limit goes
// through here so the default is the same everywhere.
type CapacityService interface {
	Table(db *gorm.DB) (*scheduler.CapacityTable, error)
	DefaultCapacity() int
}

type capacityService struct {
	log             *logrus.Logger
	capacityRepo    repository.CapacityRepository
	defaultCapacity int
}

func NewCapacityService(log *logrus.Logger, capacityRepo repository.CapacityRepository, defaultCapacity int) CapacityService {
	if defaultCapacity < 0 {
		defaultCapacity = scheduler.DefaultCapacity
	}
	return &capacityService{
		log:             log,
		capacityRepo:    capacityRepo,
		defaultCapacity: defaultCapacity,
	}
}

func (s *capacityService) DefaultCapacity() int {
	return s.defaultCapacity
}

// Table loads rules using db, which may be a transaction.
func (s *capacityService) Table(db *gorm.DB) (*scheduler.CapacityTable, error) {
	rules, err := s.capacityRepo.FindAll(db)
	if err != nil {
		s.log.Warnf("Failed to load capacity rules: %+v", err)
		return nil, err
	}

	table := scheduler.NewCapacityTable(s.defaultCapacity)
	for _, rule := range rules {
		day, err := scheduler.ParseDayName(rule.DayName)
		if err != nil {
			s.log.Warnf("Ignoring capacity rule with unknown day %q", rule.DayName)
			continue
		}
		table.Set(day, rule.Capacity)
	}
	return table, nil
}
