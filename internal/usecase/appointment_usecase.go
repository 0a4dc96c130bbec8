package usecase

import (
	"context"
	"errors"
	"regexp"
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

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

var completionHourPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

type AppointmentUsecase interface {
	ListAppointments(ctx context.Context, req *dto.AppointmentListRequest) (*dto.AppointmentListResponse, error)
	SearchAppointments(ctx context.Context, req *dto.AppointmentSearchRequest) ([]dto.AppointmentResponse, error)
	ExportAppointments(ctx context.Context, req *dto.AppointmentListRequest) ([]dto.AppointmentResponse, error)
	UpdateAppointment(ctx context.Context, id int64, req *dto.UpdateAppointmentRequest) (*dto.AppointmentResponse, error)
	DeleteAppointment(ctx context.Context, id int64) error
}

type appointmentUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	appointmentRepo repository.AppointmentRepository
	capacityService service.CapacityService
	uploadService   service.UploadService
	auditService    service.AuditService
	locker          service.BookingLocker
	location        *time.Location
	now             func() time.Time
}

func NewAppointmentUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	capacityService service.CapacityService,
	uploadService service.UploadService,
	auditService service.AuditService,
	locker service.BookingLocker,
	location *time.Location,
) AppointmentUsecase {
	if location == nil {
		location = time.UTC
	}
	return &appointmentUsecase{
		db:              db,
		log:             log,
		appointmentRepo: appointmentRepo,
		capacityService: capacityService,
		uploadService:   uploadService,
		auditService:    auditService,
		locker:          locker,
		location:        location,
		now:             time.Now,
	}
}

func (u *appointmentUsecase) ListAppointments(ctx context.Context, req *dto.AppointmentListRequest) (*dto.AppointmentListResponse, error) {
	page, pageSize := req.Page, req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	filter, err := listFilter(req)
	if err != nil {
		return nil, err
	}
	filter.Limit = pageSize
	filter.Offset = (page - 1) * pageSize

	appointments, total, err := u.appointmentRepo.List(u.db.WithContext(ctx), filter)
	if err != nil {
		u.log.Warnf("Failed to list appointments: %+v", err)
		return nil, err
	}

	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        total,
		Page:         page,
		PageSize:     pageSize,
	}, nil
}

// SearchAppointments is the quick staff lookup by phone or ticket
func (u *appointmentUsecase) SearchAppointments(ctx context.Context, req *dto.AppointmentSearchRequest) ([]dto.AppointmentResponse, error) {
	phone := strings.TrimSpace(req.Phone)
	ticket := strings.TrimSpace(req.Ticket)
	if phone == "" && ticket == "" {
		return nil, ErrSearchCriteria
	}

	db := u.db.WithContext(ctx)

	if ticket != "" {
		number, err := strconv.ParseInt(ticket, 10, 64)
		if err != nil {
			return []dto.AppointmentResponse{}, nil
		}
		appointments, err := u.appointmentRepo.FindByTicket(db, number)
		if err != nil {
			u.log.Warnf("Failed to search by ticket: %+v", err)
			return nil, err
		}
		return converter.AppointmentsToResponses(appointments), nil
	}

	normalized, err := scheduler.NormalizePhone(phone)
	if err != nil {
		return []dto.AppointmentResponse{}, nil
	}
	appointments, err := u.appointmentRepo.FindByPhone(db, normalized)
	if err != nil {
		u.log.Warnf("Failed to search by phone: %+v", err)
		return nil, err
	}
	return converter.AppointmentsToResponses(appointments), nil
}

// ExportAppointments returns every appointment matching the list filter with masked national ids
func (u *appointmentUsecase) ExportAppointments(ctx context.Context, req *dto.AppointmentListRequest) ([]dto.AppointmentResponse, error) {
	filter, err := listFilter(req)
	if err != nil {
		return nil, err
	}

	appointments, _, err := u.appointmentRepo.List(u.db.WithContext(ctx), filter)
	if err != nil {
		u.log.Warnf("Failed to export appointments: %+v", err)
		return nil, err
	}
	return converter.AppointmentsToPatientResponses(appointments), nil
}

// UpdateAppointment applies a partial staff update.
//
// Rescheduling to another date and reopening a completed visit take the
// booking lock: the first re-checks the target day's capacity, the second
// the one-open-appointment rule, both inside the transaction. Attachments
// dropped by the update are removed once it commits.
func (u *appointmentUsecase) UpdateAppointment(ctx context.Context, id int64, req *dto.UpdateAppointmentRequest) (*dto.AppointmentResponse, error) {
	if !req.HasChanges() {
		return nil, ErrNoChanges
	}

	var newDate string
	if req.ScheduledDate != nil {
		d, err := scheduler.ParseDate(*req.ScheduledDate)
		if err != nil {
			return nil, ErrInvalidDate
		}
		newDate = scheduler.FormatDate(d)
	}

	reopening := req.Status != nil &&
		entity.AppointmentStatus(strings.ToLower(strings.TrimSpace(*req.Status))) == entity.AppointmentStatusPending

	if newDate != "" || reopening {
		release, err := u.locker.Acquire(ctx, service.BookingLockKey)
		if err != nil {
			if errors.Is(err, service.ErrLockTimeout) {
				return nil, ErrBookingBusy
			}
			return nil, err
		}
		defer release()
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	appointment, err := u.appointmentRepo.FindByID(tx, id)
	if err != nil {
		u.log.Warnf("Failed to find appointment %d: %+v", id, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}
	before := converter.AppointmentToResponse(appointment)
	wasCompleted := appointment.IsCompleted()
	previousFiles := attachmentPaths(appointment)

	if err := u.applyUpdate(appointment, req); err != nil {
		return nil, err
	}

	if wasCompleted && appointment.IsOpen() {
		existing, err := u.appointmentRepo.FindActiveByNationalID(tx, appointment.NationalID, appointment.ID)
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
	}

	if newDate != "" && newDate != appointment.ScheduledDate {
		table, err := u.capacityService.Table(tx)
		if err != nil {
			return nil, err
		}
		counter := scheduler.CounterFunc(func(ctx context.Context, date string) (int64, error) {
			return u.appointmentRepo.CountByScheduledDate(tx, date)
		})
		if err := scheduler.CheckCapacity(ctx, newDate, table, counter); err != nil {
			return nil, err
		}
		appointment.ScheduledDate = newDate
	}

	if err := u.appointmentRepo.Save(tx, appointment); err != nil {
		u.log.Warnf("Failed to update appointment %d: %+v", id, err)
		return nil, err
	}

	after := converter.AppointmentToResponse(appointment)
	actor, _ := middleware.GetUsernameFromContext(ctx)
	if err := u.auditService.LogUpdate(ctx, tx, actor, entity.AuditActionAppointmentUpdate, "appointment", id, before, after); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	u.removeDropped(id, previousFiles, attachmentPaths(appointment))

	u.log.Infof("Appointment updated by %s: id=%d, status=%s, date=%s", actor, id, appointment.Status, appointment.ScheduledDate)
	return after, nil
}

// applyUpdate copies the request onto the entity, everything but the date
func (u *appointmentUsecase) applyUpdate(a *entity.Appointment, req *dto.UpdateAppointmentRequest) error {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return ErrNameRequired
		}
		a.Name = name
	}

	if req.Phone != nil {
		phone, err := scheduler.NormalizePhone(req.Phone.String())
		if err != nil {
			return err
		}
		a.Phone = phone
	}

	if req.Symptoms != nil {
		symptoms := *req.Symptoms
		a.Symptoms = &symptoms
	}

	if req.ProceduresDone != nil {
		if procedures := strings.TrimSpace(*req.ProceduresDone); procedures != "" {
			var base string
			if a.Symptoms != nil {
				base = *a.Symptoms
			}
			symptoms := base + "\nProcedures: " + procedures
			a.Symptoms = &symptoms
		}
	}

	if req.ImagePaths != nil {
		for _, p := range *req.ImagePaths {
			if !service.BelongsToPatient(p, a.NationalID) {
				return ErrAttachmentPath
			}
		}
		a.ImagePaths = append([]string{}, (*req.ImagePaths)...)
	}

	if req.VoiceNotePath != nil {
		if p := strings.TrimSpace(*req.VoiceNotePath); p != "" {
			if !service.BelongsToPatient(p, a.NationalID) {
				return ErrAttachmentPath
			}
			a.VoiceNotePath = &p
		} else {
			a.VoiceNotePath = nil
		}
	}

	wantsHour := req.UseNow || req.CompletionHour != nil

	if req.Status != nil {
		status := entity.AppointmentStatus(strings.ToLower(strings.TrimSpace(*req.Status)))
		if !status.Valid() {
			return ErrInvalidStatus
		}
		if status == entity.AppointmentStatusPending {
			a.Reopen()
			return nil
		}
		hour, err := u.completionHour(req)
		if err != nil {
			return err
		}
		a.Complete(hour)
		return nil
	}

	if wantsHour {
		if !a.IsCompleted() {
			return ErrCompletionHourNotAllowed
		}
		hour, err := u.completionHour(req)
		if err != nil {
			return err
		}
		a.Complete(hour)
	}
	return nil
}

// completionHour resolves use_now to the clinic's current HH:MM or validates the given hour
func (u *appointmentUsecase) completionHour(req *dto.UpdateAppointmentRequest) (string, error) {
	if req.UseNow {
		return u.now().In(u.location).Format("15:04"), nil
	}
	if req.CompletionHour != nil {
		hour := strings.TrimSpace(*req.CompletionHour)
		if completionHourPattern.MatchString(hour) {
			return hour, nil
		}
	}
	return "", ErrInvalidCompletionHour
}

func (u *appointmentUsecase) DeleteAppointment(ctx context.Context, id int64) error {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	appointment, err := u.appointmentRepo.FindByID(tx, id)
	if err != nil {
		u.log.Warnf("Failed to find appointment %d: %+v", id, err)
		return err
	}
	if appointment == nil {
		return ErrAppointmentNotFound
	}

	rows, err := u.appointmentRepo.Delete(tx, id)
	if err != nil {
		u.log.Warnf("Failed to delete appointment %d: %+v", id, err)
		return err
	}
	if rows == 0 {
		return ErrAppointmentNotFound
	}

	actor, _ := middleware.GetUsernameFromContext(ctx)
	if err := u.auditService.LogDelete(ctx, tx, actor, entity.AuditActionAppointmentDelete, "appointment", id, converter.AppointmentToResponse(appointment)); err != nil {
		return err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return err
	}

	// attachments go after the row is gone; a leftover file is harmless
	for _, p := range attachmentPaths(appointment) {
		if err := u.uploadService.Remove(p); err != nil {
			u.log.Warnf("Failed to remove attachment %s of appointment %d: %+v", p, id, err)
		}
	}

	u.log.Infof("Appointment deleted by %s: id=%d", actor, id)
	return nil
}

// removeDropped deletes files the appointment referenced before an update but no longer does
func (u *appointmentUsecase) removeDropped(id int64, before, after []string) {
	kept := make(map[string]struct{}, len(after))
	for _, p := range after {
		kept[p] = struct{}{}
	}
	for _, p := range before {
		if _, ok := kept[p]; ok {
			continue
		}
		if err := u.uploadService.Remove(p); err != nil {
			u.log.Warnf("Failed to remove replaced attachment %s of appointment %d: %+v", p, id, err)
		}
	}
}

// attachmentPaths lists the stored files of a, skipping anything outside the patient's folder
func attachmentPaths(a *entity.Appointment) []string {
	candidates := append([]string{}, a.ImagePaths...)
	if a.VoiceNotePath != nil && *a.VoiceNotePath != "" {
		candidates = append(candidates, *a.VoiceNotePath)
	}

	paths := make([]string, 0, len(candidates))
	for _, p := range candidates {
		if service.BelongsToPatient(p, a.NationalID) {
			paths = append(paths, p)
		}
	}
	return paths
}

func listFilter(req *dto.AppointmentListRequest) (*entity.AppointmentFilter, error) {
	filter := &entity.AppointmentFilter{
		Query:     strings.TrimSpace(req.Query),
		SortField: req.SortField,
		SortDesc:  req.SortDesc,
	}

	if status := strings.ToLower(strings.TrimSpace(req.Status)); status != "" && status != "all" {
		if !entity.AppointmentStatus(status).Valid() {
			return nil, ErrInvalidStatus
		}
		filter.Status = status
	}

	if strings.TrimSpace(req.Date) != "" {
		d, err := scheduler.ParseDate(req.Date)
		if err != nil {
			return nil, ErrInvalidDate
		}
		filter.ScheduledDate = scheduler.FormatDate(d)
	}
	return filter, nil
}
