package repository

import (
	"dental-booking/internal/domain/entity"

	"gorm.io/gorm"
)

type CapacityRepository interface {
	FindAll(db *gorm.DB) ([]entity.CapacityRule, error)
	Upsert(db *gorm.DB, rule *entity.CapacityRule) error
}
