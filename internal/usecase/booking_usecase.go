package usecase

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

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

// Attachment is an uploaded file waiting to be stored
type Attachment struct {
	Filename string
	Content  io.Reader
}

// BookingAttachments are the optional files sent with a patient booking
type BookingAttachments struct {
	Images []Attachment
	Voice  *Attachment
}

type BookingUsecase interface {
	BookAppointment(ctx context.Context, req *dto.BookAppointmentRequest, files *BookingAttachments) (*dto.BookingResponse, error)
	CreateAppointment(ctx context.Context, req *dto.BookAppointmentRequest) (*dto.BookingResponse, error)
	FindPatientAppointments(ctx context.Context, req *dto.PatientLookupRequest) ([]dto.AppointmentResponse, error)
}

type bookingUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	appointmentRepo repository.AppointmentRepository
	capacityService service.CapacityService
	uploadService   service.UploadService
	auditService    service.AuditService
	locker          service.BookingLocker
	assigner        *scheduler.Assigner
	minter          *scheduler.TicketMinter
	location        *time.Location
	now             func() time.Time
}

func NewBookingUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	capacityService service.CapacityService,
	uploadService service.UploadService,
	auditService service.AuditService,
	locker service.BookingLocker,
	assigner *scheduler.Assigner,
	location *time.Location,
) BookingUsecase {
	if location == nil {
		location = time.UTC
	}
	return &bookingUsecase{
		db:              db,
		log:             log,
		appointmentRepo: appointmentRepo,
		capacityService: capacityService,
		uploadService:   uploadService,
		auditService:    auditService,
		locker:          locker,
		assigner:        assigner,
		minter:          scheduler.NewTicketMinter(),
		location:        location,
		now:             time.Now,
	}
}

// bookingInput is a validated booking request
type bookingInput struct {
	name          string
	phone         string
	nationalID    string
	symptoms      *string
	imagePaths    []string
	voiceNotePath *string
}

// BookAppointment is the patient booking flow.
//
// Flow:
// 1. Normalize and validate name, phone and national id
// 2. Store attachments (outside the lock, files only)
// 3. Book under the lock (duplicate guard, date, ticket, insert)
// 4. If booking fails -> remove the stored attachments
func (u *bookingUsecase) BookAppointment(ctx context.Context, req *dto.BookAppointmentRequest, files *BookingAttachments) (*dto.BookingResponse, error) {
	input, err := newBookingInput(req)
	if err != nil {
		return nil, err
	}

	stored, err := u.storeAttachments(ctx, input, files)
	if err != nil {
		u.removeFiles(stored)
		return nil, err
	}

	appointment, err := u.book(ctx, input, "")
	if err != nil {
		u.removeFiles(stored)
		return nil, err
	}

	u.log.Infof("Appointment booked: id=%d, ticket=%d, date=%s", appointment.ID, appointment.TicketNumber, appointment.ScheduledDate)
	return converter.AppointmentToBookingResponse(appointment), nil
}

// CreateAppointment books on behalf of a patient from the staff screen
func (u *bookingUsecase) CreateAppointment(ctx context.Context, req *dto.BookAppointmentRequest) (*dto.BookingResponse, error) {
	input, err := newBookingInput(req)
	if err != nil {
		return nil, err
	}

	actor, _ := middleware.GetUsernameFromContext(ctx)
	appointment, err := u.book(ctx, input, actor)
	if err != nil {
		return nil, err
	}

	u.log.Infof("Appointment created by %s: id=%d, ticket=%d, date=%s", actor, appointment.ID, appointment.TicketNumber, appointment.ScheduledDate)
	return converter.AppointmentToBookingResponse(appointment), nil
}

// book runs the duplicate guard, date assignment, ticket mint and insert as
// one unit: booking lock first, then the DB transaction.
func (u *bookingUsecase) book(ctx context.Context, input *bookingInput, actor string) (*entity.Appointment, error) {
	release, err := u.locker.Acquire(ctx, service.BookingLockKey)
	if err != nil {
		if errors.Is(err, service.ErrLockTimeout) {
			u.log.Warnf("Booking lock busy for national id %s", scheduler.MaskNationalID(input.nationalID))
			return nil, ErrBookingBusy
		}
		return nil, err
	}
	defer release()

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	existing, err := u.appointmentRepo.FindActiveByNationalID(tx, input.nationalID, 0)
	if err != nil {
		u.log.Warnf("Failed to check open appointments: %+v", err)
		return nil, err
	}
	if existing != nil {
		return nil, &DuplicateBookingError{
			TicketNumber:  existing.TicketNumber,
			ScheduledDate: existing.ScheduledDate,
			Status:        string(existing.Status),
		}
	}

	table, err := u.capacityService.Table(tx)
	if err != nil {
		return nil, err
	}
	counter := u.counter(tx)

	assignment, err := u.assigner.AssignNextAvailableDate(ctx, u.now().In(u.location), table, counter)
	if err != nil {
		u.log.Warnf("Failed to assign a date: %+v", err)
		return nil, err
	}
	if !assignment.Fallback {
		if err := scheduler.CheckCapacity(ctx, assignment.Date, table, counter); err != nil {
			return nil, err
		}
	} else {
		u.log.Warnf("No capacity within %d days, falling back to %s", u.assigner.Horizon(), assignment.Date)
	}

	placed, err := counter.CountOn(ctx, assignment.Date)
	if err != nil {
		return nil, err
	}
	ticket, err := u.minter.Mint(assignment.Date, placed, input.nationalID)
	if err != nil {
		return nil, err
	}

	appointment := &entity.Appointment{
		TicketNumber:  ticket,
		Name:          input.name,
		Phone:         input.phone,
		NationalID:    input.nationalID,
		Symptoms:      input.symptoms,
		ImagePaths:    input.imagePaths,
		VoiceNotePath: input.voiceNotePath,
		Status:        entity.AppointmentStatusPending,
		ScheduledDate: assignment.Date,
	}
	if err := u.appointmentRepo.Create(tx, appointment); err != nil {
		u.log.Warnf("Failed to insert appointment: %+v", err)
		return nil, err
	}

	if actor != "" {
		if err := u.auditService.LogCreate(ctx, tx, actor, entity.AuditActionAppointmentCreate, "appointment", appointment.ID, converter.AppointmentToResponse(appointment)); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}
	return appointment, nil
}

// FindPatientAppointments looks a patient up by ticket, or by national id
// optionally narrowed by phone and scheduled date.
func (u *bookingUsecase) FindPatientAppointments(ctx context.Context, req *dto.PatientLookupRequest) ([]dto.AppointmentResponse, error) {
	ticket := strings.TrimSpace(req.Ticket)
	nationalID := strings.TrimSpace(req.NationalID)

	switch {
	case ticket != "" && nationalID != "":
		return nil, ErrLookupAmbiguous
	case ticket == "" && len(nationalID) < 4:
		return nil, ErrLookupCriteria
	}

	db := u.db.WithContext(ctx)

	if ticket != "" {
		number, err := strconv.ParseInt(ticket, 10, 64)
		if err != nil || number <= 0 {
			return []dto.AppointmentResponse{}, nil
		}
		appointments, err := u.appointmentRepo.FindByTicket(db, number)
		if err != nil {
			u.log.Warnf("Failed to find appointments by ticket: %+v", err)
			return nil, err
		}
		return converter.AppointmentsToPatientResponses(appointments), nil
	}

	nationalID, err := scheduler.ValidateNationalID(nationalID)
	if err != nil {
		return nil, err
	}

	var phone, date string
	if strings.TrimSpace(req.Phone) != "" {
		normalized, err := scheduler.NormalizePhone(req.Phone)
		if err != nil {
			return nil, err
		}
		phone = normalized
	}
	if strings.TrimSpace(req.Date) != "" {
		d, err := scheduler.ParseDate(req.Date)
		if err != nil {
			return nil, ErrInvalidDate
		}
		date = scheduler.FormatDate(d)
	}

	appointments, err := u.appointmentRepo.FindByNationalID(db, nationalID, phone, date)
	if err != nil {
		u.log.Warnf("Failed to find appointments by national id: %+v", err)
		return nil, err
	}
	return converter.AppointmentsToPatientResponses(appointments), nil
}

func (u *bookingUsecase) counter(tx *gorm.DB) scheduler.Counter {
	return scheduler.CounterFunc(func(ctx context.Context, date string) (int64, error) {
		return u.appointmentRepo.CountByScheduledDate(tx, date)
	})
}

func (u *bookingUsecase) storeAttachments(ctx context.Context, input *bookingInput, files *BookingAttachments) ([]string, error) {
	if files == nil {
		return nil, nil
	}

	var stored []string
	for _, img := range files.Images {
		path, err := u.uploadService.Save(ctx, input.nationalID, service.UploadKindImage, img.Filename, img.Content)
		if err != nil {
			u.log.Warnf("Failed to store image: %+v", err)
			return stored, err
		}
		stored = append(stored, path)
		input.imagePaths = append(input.imagePaths, path)
	}

	if files.Voice != nil {
		path, err := u.uploadService.Save(ctx, input.nationalID, service.UploadKindVoice, files.Voice.Filename, files.Voice.Content)
		if err != nil {
			u.log.Warnf("Failed to store voice note: %+v", err)
			return stored, err
		}
		stored = append(stored, path)
		input.voiceNotePath = &path
	}
	return stored, nil
}

func (u *bookingUsecase) removeFiles(paths []string) {
	for _, p := range paths {
		if err := u.uploadService.Remove(p); err != nil {
			u.log.Warnf("Failed to remove orphaned upload %s: %+v", p, err)
		}
	}
}

func newBookingInput(req *dto.BookAppointmentRequest) (*bookingInput, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	phone, err := scheduler.NormalizePhone(req.Phone.String())
	if err != nil {
		return nil, err
	}

	nationalID, err := scheduler.ValidateNationalID(req.NationalID.String())
	if err != nil {
		return nil, err
	}

	var symptoms *string
	if req.Symptoms != nil {
		if s := strings.TrimSpace(*req.Symptoms); s != "" {
			symptoms = &s
		}
	}

	return &bookingInput{
		name:       name,
		phone:      phone,
		nationalID: nationalID,
		symptoms:   symptoms,
		imagePaths: []string{},
	}, nil
}
