package usecase

import (
	"errors"
	"strings"
	"testing"

	"dental-booking/internal/delivery/dto"
	"dental-booking/internal/domain/entity"
	"dental-booking/internal/repository"
	"dental-booking/internal/scheduler"

	"github.com/spf13/afero"
)

func strPtr(s string) *string { return &s }

func TestUpdateAppointment_Rules(t *testing.T) {
	deps := newTestDeps(t)
	u := deps.appointmentUsecase()
	ctx := staffContext()

	a := seedAppointment(t, deps.db, entity.Appointment{TicketNumber: 1, NationalID: "29912345678901", ScheduledDate: "2024-05-01", Symptoms: strPtr("pain")})

	tests := []struct {
		name    string
		req     dto.UpdateAppointmentRequest
		wantErr error
		check   func(t *testing.T, resp *dto.AppointmentResponse)
	}{
		{
			name:    "no fields",
			req:     dto.UpdateAppointmentRequest{},
			wantErr: ErrNoChanges,
		},
		{
			name:    "complete without hour",
			req:     dto.UpdateAppointmentRequest{Status: strPtr("completed")},
			wantErr: ErrInvalidCompletionHour,
		},
		{
			name:    "complete with malformed hour",
			req:     dto.UpdateAppointmentRequest{Status: strPtr("completed"), CompletionHour: strPtr("24:00")},
			wantErr: ErrInvalidCompletionHour,
		},
		{
			name:    "unknown status",
			req:     dto.UpdateAppointmentRequest{Status: strPtr("cancelled")},
			wantErr: ErrInvalidStatus,
		},
		{
			name:    "hour on pending appointment",
			req:     dto.UpdateAppointmentRequest{CompletionHour: strPtr("09:00")},
			wantErr: ErrCompletionHourNotAllowed,
		},
		{
			name:    "invalid phone",
			req:     dto.UpdateAppointmentRequest{Phone: (*dto.FlexString)(strPtr("12"))},
			wantErr: scheduler.ErrInvalidPhone,
		},
		{
			name:    "bad date",
			req:     dto.UpdateAppointmentRequest{ScheduledDate: strPtr("2024-13-40")},
			wantErr: ErrInvalidDate,
		},
		{
			name: "complete with use_now uses clinic time",
			req:  dto.UpdateAppointmentRequest{Status: strPtr("completed"), UseNow: true},
			check: func(t *testing.T, resp *dto.AppointmentResponse) {
				if resp.Status != "completed" || resp.CompletionHour == nil || *resp.CompletionHour != "10:00" {
					t.Fatalf("resp = %+v", resp)
				}
			},
		},
		{
			name: "adjust hour and record procedures",
			req:  dto.UpdateAppointmentRequest{CompletionHour: strPtr("09:15"), ProceduresDone: strPtr("filling")},
			check: func(t *testing.T, resp *dto.AppointmentResponse) {
				if *resp.CompletionHour != "09:15" {
					t.Fatalf("hour = %s", *resp.CompletionHour)
				}
				if resp.Symptoms == nil || *resp.Symptoms != "pain\nProcedures: filling" {
					t.Fatalf("symptoms = %v", resp.Symptoms)
				}
			},
		},
		{
			name: "back to pending clears hour",
			req:  dto.UpdateAppointmentRequest{Status: strPtr("pending"), Name: strPtr(" Mona "), Phone: (*dto.FlexString)(strPtr("1098765432"))},
			check: func(t *testing.T, resp *dto.AppointmentResponse) {
				if resp.Status != "pending" || resp.CompletionHour != nil {
					t.Fatalf("resp = %+v", resp)
				}
				if resp.Name != "Mona" || resp.Phone != "01098765432" {
					t.Fatalf("name/phone = %q/%q", resp.Name, resp.Phone)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			resp, err := u.UpdateAppointment(ctx, a.ID, &req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("update: %v", err)
			}
			tt.check(t, resp)
		})
	}

	if n := countAudit(t, deps.db, entity.AuditActionAppointmentUpdate); n != 3 {
		t.Fatalf("audit entries = %d, want 3", n)
	}
}

func TestUpdateAppointment_NotFound(t *testing.T) {
	deps := newTestDeps(t)
	u := deps.appointmentUsecase()

	_, err := u.UpdateAppointment(staffContext(), 404, &dto.UpdateAppointmentRequest{Name: strPtr("x")})
	if !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestUpdateAppointment_RescheduleChecksCapacity(t *testing.T) {
	deps := newTestDeps(t)
	seedCapacity(t, deps.db, map[string]int{"Friday": 1})
	seedAppointment(t, deps.db, entity.Appointment{TicketNumber: 1, NationalID: "11111111111111", ScheduledDate: "2024-05-03"})
	a := seedAppointment(t, deps.db, entity.Appointment{TicketNumber: 2, NationalID: "22222222222222", ScheduledDate: "2024-05-01"})
	u := deps.appointmentUsecase()
	ctx := staffContext()

	_, err := u.UpdateAppointment(ctx, a.ID, &dto.UpdateAppointmentRequest{ScheduledDate: strPtr("2024-05-03")})
	var full *scheduler.CapacityExceededError
	if !errors.As(err, &full) {
		t.Fatalf("err = %v, want CapacityExceededError", err)
	}
	if full.DayName != "Friday" || full.Capacity != 1 || full.Used != 1 {
		t.Fatalf("full = %+v", full)
	}

	resp, err := u.UpdateAppointment(ctx, a.ID, &dto.UpdateAppointmentRequest{ScheduledDate: strPtr("2024-05-04")})
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if resp.ScheduledDate != "2024-05-04" {
		t.Fatalf("date = %s", resp.ScheduledDate)
	}

	// keeping the same date does not count the appointment against itself
	if _, err := u.UpdateAppointment(ctx, a.ID, &dto.UpdateAppointmentRequest{ScheduledDate: strPtr("2024-05-04")}); err != nil {
		t.Fatalf("same date: %v", err)
	}
}

func TestDeleteAppointment(t *testing.T) {
	deps := newTestDeps(t)
	u := deps.appointmentUsecase()
	ctx := staffContext()

	path := "uploads/patients/patient_29912345678901/images/image_1.jpg"
	_ = afero.WriteFile(deps.fs, path, []byte("img"), 0o644)
	a := seedAppointment(t, deps.db, entity.Appointment{TicketNumber: 1, NationalID: "29912345678901", ScheduledDate: "2024-05-01", ImagePaths: []string{path}})

	if err := u.DeleteAppointment(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := repository.NewAppointmentRepository().FindByID(deps.db, a.ID); got != nil {
		t.Fatal("row still present")
	}
	if ok, _ := afero.Exists(deps.fs, path); ok {
		t.Fatal("attachment not removed")
	}
	if n := countAudit(t, deps.db, entity.AuditActionAppointmentDelete); n != 1 {
		t.Fatalf("audit entries = %d", n)
	}

	if err := u.DeleteAppointment(ctx, a.ID); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("second delete err = %v, want ErrAppointmentNotFound", err)
	}
}

func TestListSearchExport(t *testing.T) {
	deps := newTestDeps(t)
	for i, name := range []string{"Alaa", "Basma", "Chady"} {
		seedAppointment(t, deps.db, entity.Appointment{
			TicketNumber:  int64(202405010010001 + i),
			Name:          name,
			Phone:         "0101111111" + string(rune('0'+i)),
			NationalID:    "2991234567890" + string(rune('0'+i)),
			ScheduledDate: "2024-05-01",
		})
	}
	u := deps.appointmentUsecase()
	ctx := staffContext()

	page, err := u.ListAppointments(ctx, &dto.AppointmentListRequest{Page: 2, PageSize: 2, SortField: "name"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 3 || len(page.Appointments) != 1 || page.Appointments[0].Name != "Chady" {
		t.Fatalf("page = %+v", page)
	}

	if _, err := u.ListAppointments(ctx, &dto.AppointmentListRequest{Status: "archived"}); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("bad status err = %v", err)
	}

	defaults, _ := u.ListAppointments(ctx, &dto.AppointmentListRequest{PageSize: 1000})
	if defaults.Page != 1 || defaults.PageSize != MaxPageSize {
		t.Fatalf("paging defaults = %d/%d", defaults.Page, defaults.PageSize)
	}

	if _, err := u.SearchAppointments(ctx, &dto.AppointmentSearchRequest{}); !errors.Is(err, ErrSearchCriteria) {
		t.Fatalf("empty search err = %v", err)
	}
	byPhone, err := u.SearchAppointments(ctx, &dto.AppointmentSearchRequest{Phone: "1011111111"})
	if err != nil || len(byPhone) != 1 || byPhone[0].Name != "Basma" {
		t.Fatalf("by phone = %+v, err %v", byPhone, err)
	}
	byTicket, err := u.SearchAppointments(ctx, &dto.AppointmentSearchRequest{Ticket: "202405010010001"})
	if err != nil || len(byTicket) != 1 || byTicket[0].Name != "Alaa" {
		t.Fatalf("by ticket = %+v, err %v", byTicket, err)
	}

	exported, err := u.ExportAppointments(ctx, &dto.AppointmentListRequest{Query: "a"})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(exported) != 3 {
		t.Fatalf("exported = %d rows", len(exported))
	}
	for _, row := range exported {
		if !strings.HasPrefix(row.NationalID, "**********") {
			t.Errorf("export leaks national id %s", row.NationalID)
		}
	}
}

func TestUpdateAppointment_ReopenKeepsOneOpenAppointment(t *testing.T) {
	deps := newTestDeps(t)
	u := deps.appointmentUsecase()
	ctx := staffContext()

	first := seedAppointment(t, deps.db, entity.Appointment{TicketNumber: 1, NationalID: "29912345678901", ScheduledDate: "2024-04-20", Status: entity.AppointmentStatusCompleted, CompletionHour: strPtr("11:00")})
	second := seedAppointment(t, deps.db, entity.Appointment{TicketNumber: 2, NationalID: "29912345678901", ScheduledDate: "2024-05-01"})

	_, err := u.UpdateAppointment(ctx, first.ID, &dto.UpdateAppointmentRequest{Status: strPtr("Pending")})
	var dup *DuplicateBookingError
	if !errors.As(err, &dup) {
		t.Fatalf("err = %v, want DuplicateBookingError", err)
	}
	if dup.TicketNumber != 2 || dup.ScheduledDate != "2024-05-01" {
		t.Fatalf("dup = %+v", dup)
	}

	repo := repository.NewAppointmentRepository()
	if got, _ := repo.FindByID(deps.db, first.ID); got == nil || !got.IsCompleted() {
		t.Fatalf("first appointment changed: %+v", got)
	}

	if _, err := u.UpdateAppointment(ctx, second.ID, &dto.UpdateAppointmentRequest{Status: strPtr("completed"), UseNow: true}); err != nil {
		t.Fatalf("complete second: %v", err)
	}
	resp, err := u.UpdateAppointment(ctx, first.ID, &dto.UpdateAppointmentRequest{Status: strPtr("pending")})
	if err != nil {
		t.Fatalf("reopen first: %v", err)
	}
	if resp.Status != "pending" {
		t.Fatalf("status = %s", resp.Status)
	}
}

func TestUpdateAppointment_Attachments(t *testing.T) {
	deps := newTestDeps(t)
	u := deps.appointmentUsecase()
	ctx := staffContext()

	dir := "uploads/patients/patient_29912345678901"
	keep, drop, voice := dir+"/images/image_1.jpg", dir+"/images/image_2.jpg", dir+"/voices/voice_1.webm"
	for _, p := range []string{keep, drop, voice} {
		_ = afero.WriteFile(deps.fs, p, []byte("x"), 0o644)
	}
	other := "uploads/patients/patient_11111111111111/images/image_9.jpg"
	_ = afero.WriteFile(deps.fs, other, []byte("x"), 0o644)

	a := seedAppointment(t, deps.db, entity.Appointment{TicketNumber: 1, NationalID: "29912345678901", ScheduledDate: "2024-05-01", ImagePaths: []string{keep, drop}, VoiceNotePath: strPtr(voice)})

	rejected := []dto.UpdateAppointmentRequest{
		{ImagePaths: &[]string{other}},
		{ImagePaths: &[]string{dir + "/../patient_11111111111111/images/image_9.jpg"}},
		{VoiceNotePath: strPtr("uploads/elsewhere.webm")},
	}
	for i := range rejected {
		if _, err := u.UpdateAppointment(ctx, a.ID, &rejected[i]); !errors.Is(err, ErrAttachmentPath) {
			t.Fatalf("case %d: err = %v, want ErrAttachmentPath", i, err)
		}
	}

	resp, err := u.UpdateAppointment(ctx, a.ID, &dto.UpdateAppointmentRequest{ImagePaths: &[]string{keep}, VoiceNotePath: strPtr("")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(resp.ImagePaths) != 1 || resp.VoiceNotePath != nil {
		t.Fatalf("resp = %+v", resp)
	}

	for p, want := range map[string]bool{keep: true, drop: false, voice: false, other: true} {
		if ok, _ := afero.Exists(deps.fs, p); ok != want {
			t.Errorf("%s exists = %v, want %v", p, ok, want)
		}
	}
}
