package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"dental-booking/internal/delivery/http/middleware"
	"dental-booking/internal/domain/entity"
	domainRepo "dental-booking/internal/domain/repository"
	"dental-booking/internal/repository"
	"dental-booking/internal/scheduler"
	"dental-booking/internal/service"
	"dental-booking/internal/testutil"
	"dental-booking/pkg/jwt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"gorm.io/gorm"
)

// clinicZone stands in for Africa/Cairo without needing tzdata
var clinicZone = time.FixedZone("EEST", 3*3600)

// fixedNow is Wednesday 2024-05-01 10:00 clinic time
var fixedNow = time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC)

type lockerFunc func(ctx context.Context, key string) (func(), error)

func (f lockerFunc) Acquire(ctx context.Context, key string) (func(), error) { return f(ctx, key) }
func (f lockerFunc) Stop() {}

// slowAppointmentRepo keeps appointments in memory and pauses after every
// count, widening the gap between reading a day's load and inserting into it.
// Only the methods of the patient booking flow are implemented.
type slowAppointmentRepo struct {
	domainRepo.AppointmentRepository

	pause time.Duration
	mu    sync.Mutex
	rows  []entity.Appointment
}

func (r *slowAppointmentRepo) CountByScheduledDate(db *gorm.DB, date string) (int64, error) {
	r.mu.Lock()
	var n int64
	for _, a := range r.rows {
		if a.ScheduledDate == date {
			n++
		}
	}
	r.mu.Unlock()

	time.Sleep(r.pause)
	return n, nil
}

func (r *slowAppointmentRepo) FindActiveByNationalID(db *gorm.DB, nationalID string, excludeID int64) (*entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		a := r.rows[i]
		if a.NationalID == nationalID && a.ID != excludeID && a.IsOpen() {
			return &a, nil
		}
	}
	return nil, nil
}

func (r *slowAppointmentRepo) Create(db *gorm.DB, appointment *entity.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	appointment.ID = int64(len(r.rows) + 1)
	r.rows = append(r.rows, *appointment)
	return nil
}

func (r *slowAppointmentRepo) perDay() map[string]int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[string]int64{}
	for _, a := range r.rows {
		counts[a.ScheduledDate]++
	}
	return counts
}

func staffContext() context.Context {
	return middleware.WithStaff(context.Background(), "admin", jwt.RoleStaff, "tok-1")
}

func seedCapacity(t *testing.T, db *gorm.DB, rules map[string]int) {
	t.Helper()
	repo := repository.NewCapacityRepository()
	for day, capacity := range rules {
		if err := repo.Upsert(db, &entity.CapacityRule{DayName: day, Capacity: capacity}); err != nil {
			t.Fatalf("seed capacity: %v", err)
		}
	}
}

func closeAllDays(t *testing.T, db *gorm.DB) {
	t.Helper()
	rules := map[string]int{}
	for _, d := range scheduler.WeekDays {
		rules[d.String()] = 0
	}
	seedCapacity(t, db, rules)
}

func seedAppointment(t *testing.T, db *gorm.DB, a entity.Appointment) *entity.Appointment {
	t.Helper()
	if a.Status == "" {
		a.Status = entity.AppointmentStatusPending
	}
	if a.Name == "" {
		a.Name = "Patient"
	}
	if a.Phone == "" {
		a.Phone = "01000000000"
	}
	if err := repository.NewAppointmentRepository().Create(db, &a); err != nil {
		t.Fatalf("seed appointment: %v", err)
	}
	return &a
}

func countAudit(t *testing.T, db *gorm.DB, action string) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&entity.AuditLog{}).Where("action = ?", action).Count(&n).Error; err != nil {
		t.Fatalf("count audit: %v", err)
	}
	return n
}

type testDeps struct {
	db       *gorm.DB
	log      *logrus.Logger
	fs       afero.Fs
	capacity service.CapacityService
	uploads  service.UploadService
	audit    service.AuditService
	locker   service.BookingLocker
}

func newTestDeps(t *testing.T) *testDeps {
	t.Helper()
	db := testutil.OpenTestDB(t)
	log := testutil.NewLogger()
	fs := afero.NewMemMapFs()

	locker := service.NewLocalBookingLocker(log, 5*time.Second)
	t.Cleanup(locker.Stop)

	return &testDeps{
		db:       db,
		log:      log,
		fs:       fs,
		capacity: service.NewCapacityService(log, repository.NewCapacityRepository(), scheduler.DefaultCapacity),
		uploads:  service.NewUploadService(fs, log, 1<<20),
		audit:    service.NewAuditService(log, repository.NewAuditLogRepository()),
		locker:   locker,
	}
}

func (d *testDeps) bookingUsecase() *bookingUsecase {
	u := NewBookingUsecase(
		d.db, d.log,
		repository.NewAppointmentRepository(),
		d.capacity, d.uploads, d.audit, d.locker,
		scheduler.NewAssigner(scheduler.DefaultHorizonDays),
		clinicZone,
	).(*bookingUsecase)
	u.now = func() time.Time { return fixedNow }
	u.minter = scheduler.NewTicketMinterWithFiller(func() int { return 4242 })
	return u
}

func (d *testDeps) appointmentUsecase() *appointmentUsecase {
	u := NewAppointmentUsecase(
		d.db, d.log,
		repository.NewAppointmentRepository(),
		d.capacity, d.uploads, d.audit, d.locker,
		clinicZone,
	).(*appointmentUsecase)
	u.now = func() time.Time { return fixedNow }
	return u
}
