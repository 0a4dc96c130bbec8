package repository

import (
	"errors"
	"strings"

	"dental-booking/internal/domain/entity"
	domainRepo "dental-booking/internal/domain/repository"

	"gorm.io/gorm"
)

// sortColumns whitelists the columns staff may order the list by
var sortColumns = map[string]string{
	"created_at":     "created_at",
	"scheduled_date": "scheduled_date",
	"status":         "status",
	"name":           "name",
}

type appointmentRepository struct{}

func NewAppointmentRepository() domainRepo.AppointmentRepository {
	return &appointmentRepository{}
}

func (r *appointmentRepository) Create(db *gorm.DB, appointment *entity.Appointment) error {
	return db.Create(appointment).Error
}

func (r *appointmentRepository) FindByID(db *gorm.DB, id int64) (*entity.Appointment, error) {
	var appointment entity.Appointment
	err := db.Where("id = ?", id).First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) Save(db *gorm.DB, appointment *entity.Appointment) error {
	return db.Save(appointment).Error
}

// Delete returns affected rows: 0 means nothing matched the id.
func (r *appointmentRepository) Delete(db *gorm.DB, id int64) (int64, error) {
	result := db.Where("id = ?", id).Delete(&entity.Appointment{})
	return result.RowsAffected, result.Error
}

func (r *appointmentRepository) CountByScheduledDate(db *gorm.DB, date string) (int64, error) {
	var count int64
	err := db.Model(&entity.Appointment{}).Where("scheduled_date = ?", date).Count(&count).Error
	return count, err
}

// FindActiveByNationalID returns the newest appointment that is not completed yet.
// excludeID skips one row (0 skips nothing).
func (r *appointmentRepository) FindActiveByNationalID(db *gorm.DB, nationalID string, excludeID int64) (*entity.Appointment, error) {
	var appointment entity.Appointment
	query := db.Where("national_id = ? AND status <> ?", nationalID, entity.AppointmentStatusCompleted)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Order("created_at DESC, id DESC").
		First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) FindByTicket(db *gorm.DB, ticket int64) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := db.Where("ticket_number = ?", ticket).Order("created_at DESC, id DESC").Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

// FindByNationalID matches the national id exactly. phone and date narrow the result when set.
func (r *appointmentRepository) FindByNationalID(db *gorm.DB, nationalID, phone, date string) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	query := db.Where("national_id = ?", nationalID)
	if phone != "" {
		query = query.Where("phone = ?", phone)
	}
	if date != "" {
		query = query.Where("scheduled_date = ?", date)
	}
	err := query.Order("created_at DESC, id DESC").Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) FindByPhone(db *gorm.DB, phone string) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := db.Where("phone = ?", phone).Order("created_at DESC, id DESC").Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) FindByScheduledDate(db *gorm.DB, date string) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := db.Where("scheduled_date = ?", date).Order("ticket_number ASC").Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) FindRecent(db *gorm.DB, limit int) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := db.Order("created_at DESC, id DESC").Limit(limit).Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

// List applies the staff filter and returns the requested page with the unpaged total.
func (r *appointmentRepository) List(db *gorm.DB, filter *entity.AppointmentFilter) ([]entity.Appointment, int64, error) {
	if filter == nil {
		filter = &entity.AppointmentFilter{}
	}

	var total int64
	if err := db.Model(&entity.Appointment{}).Scopes(appointmentFilterScope(filter)).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "created_at DESC"
	if column, ok := sortColumns[filter.SortField]; ok {
		order = column + " ASC"
		if filter.SortDesc {
			order = column + " DESC"
		}
	}

	query := db.Scopes(appointmentFilterScope(filter)).Order(order).Order("id DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	var appointments []entity.Appointment
	if err := query.Find(&appointments).Error; err != nil {
		return nil, 0, err
	}
	return appointments, total, nil
}

func appointmentFilterScope(filter *entity.AppointmentFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if q := strings.TrimSpace(filter.Query); q != "" {
			like := "%" + strings.ToLower(q) + "%"
			db = db.Where(
				"LOWER(name) LIKE ? OR CAST(ticket_number AS "+textType(db)+") LIKE ? OR phone LIKE ?",
				like, like, like,
			)
		}
		if filter.Status != "" && filter.Status != "all" {
			db = db.Where("status = ?", filter.Status)
		}
		if filter.ScheduledDate != "" {
			db = db.Where("scheduled_date = ?", filter.ScheduledDate)
		}
		return db
	}
}

func (r *appointmentRepository) Stats(db *gorm.DB, today string) (*entity.AppointmentStats, error) {
	var stats entity.AppointmentStats
	err := db.Model(&entity.Appointment{}).
		Select(
			"COUNT(*) AS total, "+
				"COALESCE(SUM(CASE WHEN scheduled_date = ? THEN 1 ELSE 0 END), 0) AS today, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS pending, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS completed",
			today, entity.AppointmentStatusPending, entity.AppointmentStatusCompleted,
		).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *appointmentRepository) CountByStatus(db *gorm.DB) ([]entity.StatusCount, error) {
	var rows []entity.StatusCount
	err := db.Model(&entity.Appointment{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("status ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *appointmentRepository) CountByDateSince(db *gorm.DB, since string) ([]entity.DailyCount, error) {
	var rows []entity.DailyCount
	err := db.Model(&entity.Appointment{}).
		Select("scheduled_date, COUNT(*) AS count").
		Where("scheduled_date >= ?", since).
		Group("scheduled_date").
		Order("scheduled_date DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// textType is the CAST target for matching numbers as text
func textType(db *gorm.DB) string {
	if db.Dialector != nil && db.Dialector.Name() == "mysql" {
		return "CHAR"
	}
	return "TEXT"
}
