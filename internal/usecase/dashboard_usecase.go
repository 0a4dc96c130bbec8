package usecase

import (
	"context"
	"time"

	"dental-booking/internal/converter"
	"dental-booking/internal/delivery/dto"
	"dental-booking/internal/domain/repository"
	"dental-booking/internal/scheduler"
	"dental-booking/internal/service"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	dashboardRecentLimit = 10
	dashboardDailyWindow = 7
)

type DashboardUsecase interface {
	GetDashboard(ctx context.Context) (*dto.DashboardResponse, error)
	GetStats(ctx context.Context) (*dto.StatsResponse, error)
}

type dashboardUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	appointmentRepo repository.AppointmentRepository
	capacityService service.CapacityService
	location        *time.Location
	now             func() time.Time
}

func NewDashboardUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	capacityService service.CapacityService,
	location *time.Location,
) DashboardUsecase {
	if location == nil {
		location = time.UTC
	}
	return &dashboardUsecase{
		db:              db,
		log:             log,
		appointmentRepo: appointmentRepo,
		capacityService: capacityService,
		location:        location,
		now:             time.Now,
	}
}

func (u *dashboardUsecase) GetStats(ctx context.Context) (*dto.StatsResponse, error) {
	today := scheduler.FormatDate(u.now().In(u.location))

	stats, err := u.appointmentRepo.Stats(u.db.WithContext(ctx), today)
	if err != nil {
		u.log.Warnf("Failed to load appointment stats: %+v", err)
		return nil, err
	}

	resp := converter.StatsToResponse(stats)
	return &resp, nil
}

// GetDashboard reads everything from one snapshot transaction
func (u *dashboardUsecase) GetDashboard(ctx context.Context) (*dto.DashboardResponse, error) {
	now := u.now().In(u.location)
	today := scheduler.FormatDate(now)
	since := scheduler.FormatDate(now.AddDate(0, 0, -(dashboardDailyWindow - 1)))

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	stats, err := u.appointmentRepo.Stats(tx, today)
	if err != nil {
		u.log.Warnf("Failed to load appointment stats: %+v", err)
		return nil, err
	}

	recent, err := u.appointmentRepo.FindRecent(tx, dashboardRecentLimit)
	if err != nil {
		u.log.Warnf("Failed to load recent appointments: %+v", err)
		return nil, err
	}

	todays, err := u.appointmentRepo.FindByScheduledDate(tx, today)
	if err != nil {
		u.log.Warnf("Failed to load today's appointments: %+v", err)
		return nil, err
	}

	byStatus, err := u.appointmentRepo.CountByStatus(tx)
	if err != nil {
		u.log.Warnf("Failed to count by status: %+v", err)
		return nil, err
	}

	daily, err := u.appointmentRepo.CountByDateSince(tx, since)
	if err != nil {
		u.log.Warnf("Failed to count by date: %+v", err)
		return nil, err
	}

	table, err := u.capacityService.Table(tx)
	if err != nil {
		return nil, err
	}
	limit, _ := table.For(now.Weekday())

	return &dto.DashboardResponse{
		Summary: dto.DashboardSummary{
			StatsResponse:           converter.StatsToResponse(stats),
			TodayCapacityUsed:       stats.Today,
			TodayCapacityTotal:      limit,
			TodayCapacityPercentage: capacityPercentage(stats.Today, limit),
		},
		RecentAppointments: converter.AppointmentsToResponses(recent),
		TodayAppointments:  converter.AppointmentsToResponses(todays),
		StatusCounts:       converter.StatusCountsToResponses(byStatus),
		DailyCounts:        converter.DailyCountsToResponses(daily),
		CapacityRules:      converter.CapacityTableToResponses(table),
		LastUpdated:        now,
	}, nil
}

// capacityPercentage is used/limit as a percentage rounded to one decimal
func capacityPercentage(used int64, limit int) float64 {
	if limit <= 0 {
		return 0
	}
	pct, _ := decimal.NewFromInt(used).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(int64(limit)), 1).
		Float64()
	return pct
}
