package repository

import (
	"dental-booking/internal/domain/entity"

	"gorm.io/gorm"
)

type AppointmentRepository interface {
	Create(db *gorm.DB, appointment *entity.Appointment) error
	FindByID(db *gorm.DB, id int64) (*entity.Appointment, error)
	Save(db *gorm.DB, appointment *entity.Appointment) error
	Delete(db *gorm.DB, id int64) (int64, error)

	CountByScheduledDate(db *gorm.DB, date string) (int64, error)
	FindActiveByNationalID(db *gorm.DB, nationalID string, excludeID int64) (*entity.Appointment, error)

	FindByTicket(db *gorm.DB, ticket int64) ([]entity.Appointment, error)
	FindByNationalID(db *gorm.DB, nationalID, phone, date string) ([]entity.Appointment, error)
	FindByPhone(db *gorm.DB, phone string) ([]entity.Appointment, error)
	FindByScheduledDate(db *gorm.DB, date string) ([]entity.Appointment, error)
	FindRecent(db *gorm.DB, limit int) ([]entity.Appointment, error)
	List(db *gorm.DB, filter *entity.AppointmentFilter) ([]entity.Appointment, int64, error)

	Stats(db *gorm.DB, today string) (*entity.AppointmentStats, error)
	CountByStatus(db *gorm.DB) ([]entity.StatusCount, error)
	CountByDateSince(db *gorm.DB, since string) ([]entity.DailyCount, error)
}
