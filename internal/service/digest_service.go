package service

import (
	"context"
	"fmt"
	"time"

	"dental-booking/internal/domain/entity"
	"dental-booking/internal/domain/repository"
	"dental-booking/internal/scheduler"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const digestTimeout = 30 * time.Second

// Digest is the morning summary of the day's queue
type Digest struct {
	Date      string
	DayName   string
	Booked    int64
	Pending   int64
	Completed int64
	Capacity  int
	Remaining int
}

// DigestService logs a summary of today's queue on a cron schedule.
type DigestService struct {
	db              *gorm.DB
	log             *logrus.Logger
	appointmentRepo repository.AppointmentRepository
	capacityService CapacityService
	location        *time.Location
	now             func() time.Time

	cron *cron.Cron
}

func NewDigestService(
	db *gorm.DB,
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	capacityService CapacityService,
	location *time.Location,
) *DigestService {
	if location == nil {
		location = time.UTC
	}
	return &DigestService{
		db:              db,
		log:             log,
		appointmentRepo: appointmentRepo,
		capacityService: capacityService,
		location:        location,
		now:             time.Now,
	}
}

// Start registers the digest job with spec (standard 5-field cron syntax,
// evaluated in the clinic time zone) and starts the scheduler.
func (s *DigestService) Start(spec string) error {
	c := cron.New(cron.WithLocation(s.location))
	if _, err := c.AddFunc(spec, s.run); err != nil {
		return fmt.Errorf("schedule digest %q: %w", spec, err)
	}
	c.Start()
	s.cron = c
	s.log.Infof("Daily digest scheduled: %s (%s)", spec, s.location)
	return nil
}

// Stop waits for a running job to finish.
func (s *DigestService) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.log.Info("DigestService stopped")
}

func (s *DigestService) run() {
	ctx, cancel := context.WithTimeout(context.Background(), digestTimeout)
	defer cancel()

	if _, err := s.RunOnce(ctx); err != nil {
		s.log.Errorf("Daily digest failed: %+v", err)
	}
}

// RunOnce builds and logs the digest for the current clinic date.
func (s *DigestService) RunOnce(ctx context.Context) (*Digest, error) {
	db := s.db.WithContext(ctx)
	today := s.now().In(s.location)
	date := scheduler.FormatDate(today)

	appointments, err := s.appointmentRepo.FindByScheduledDate(db, date)
	if err != nil {
		return nil, fmt.Errorf("load appointments for %s: %w", date, err)
	}

	table, err := s.capacityService.Table(db)
	if err != nil {
		return nil, fmt.Errorf("load capacity: %w", err)
	}
	limit, _ := table.For(today.Weekday())

	digest := &Digest{
		Date:     date,
		DayName:  today.Weekday().String(),
		Booked:   int64(len(appointments)),
		Capacity: limit,
	}
	for _, a := range appointments {
		if a.Status == entity.AppointmentStatusCompleted {
			digest.Completed++
		} else {
			digest.Pending++
		}
	}
	digest.Remaining = limit - len(appointments)
	if digest.Remaining < 0 {
		digest.Remaining = 0
	}

	s.log.WithFields(logrus.Fields{
		"date":      digest.Date,
		"day":       digest.DayName,
		"booked":    digest.Booked,
		"pending":   digest.Pending,
		"completed": digest.Completed,
		"capacity":  digest.Capacity,
		"remaining": digest.Remaining,
	}).Info("Daily appointment digest")

	return digest, nil
}
