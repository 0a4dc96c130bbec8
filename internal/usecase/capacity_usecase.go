package usecase

import (
	"context"

	"dental-booking/internal/converter"
	"dental-booking/internal/delivery/dto"
	"dental-booking/internal/delivery/http/middleware"
	"dental-booking/internal/domain/entity"
	"dental-booking/internal/domain/repository"
	"dental-booking/internal/scheduler"
	"dental-booking/internal/service"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type CapacityUsecase interface {
	GetCapacity(ctx context.Context) (*dto.CapacityListResponse, error)
	SetCapacity(ctx context.Context, dayName string, capacity int) (*dto.CapacityDayResponse, error)
}

type capacityUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	capacityRepo    repository.CapacityRepository
	capacityService service.CapacityService
	auditService    service.AuditService
}

func NewCapacityUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	capacityRepo repository.CapacityRepository,
	capacityService service.CapacityService,
	auditService service.AuditService,
) CapacityUsecase {
	return &capacityUsecase{
		db:              db,
		log:             log,
		capacityRepo:    capacityRepo,
		capacityService: capacityService,
		auditService:    auditService,
	}
}

// GetCapacity lists all seven weekdays, flagging those running on the default
func (u *capacityUsecase) GetCapacity(ctx context.Context) (*dto.CapacityListResponse, error) {
	table, err := u.capacityService.Table(u.db.WithContext(ctx))
	if err != nil {
		return nil, err
	}

	return &dto.CapacityListResponse{
		Days:            converter.CapacityTableToResponses(table),
		DefaultCapacity: table.Default(),
	}, nil
}

// SetCapacity upserts the rule for one weekday. dayName accepts any case and
// three-letter abbreviations; it is stored as the full English name.
func (u *capacityUsecase) SetCapacity(ctx context.Context, dayName string, capacity int) (*dto.CapacityDayResponse, error) {
	day, err := scheduler.ParseDayName(dayName)
	if err != nil {
		return nil, err
	}
	if capacity < 0 {
		return nil, ErrInvalidCapacity
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	rule := &entity.CapacityRule{DayName: day.String(), Capacity: capacity}
	if err := u.capacityRepo.Upsert(tx, rule); err != nil {
		u.log.Warnf("Failed to upsert capacity for %s: %+v", rule.DayName, err)
		return nil, err
	}

	actor, ok := middleware.GetUsernameFromContext(ctx)
	if !ok {
		actor = "cli"
	}
	if err := u.auditService.LogAction(ctx, tx, actor, entity.AuditActionCapacityUpdate, map[string]any{
		"day_name": rule.DayName,
		"capacity": rule.Capacity,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	u.log.Infof("Capacity for %s set to %d by %s", rule.DayName, rule.Capacity, actor)
	return &dto.CapacityDayResponse{
		DayName:   rule.DayName,
		Capacity:  rule.Capacity,
		IsDefault: false,
	}, nil
}
