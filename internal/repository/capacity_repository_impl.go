package repository

import (
	"dental-booking/internal/domain/entity"
	domainRepo "dental-booking/internal/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type capacityRepository struct{}

func NewCapacityRepository() domainRepo.CapacityRepository {
	return &capacityRepository{}
}

func (r *capacityRepository) FindAll(db *gorm.DB) ([]entity.CapacityRule, error) {
	var rules []entity.CapacityRule
	err := db.Order("day_name ASC").Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *capacityRepository) Upsert(db *gorm.DB, rule *entity.CapacityRule) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "day_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"capacity"}),
	}).Create(rule).Error
}
