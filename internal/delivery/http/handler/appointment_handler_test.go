package handler

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"dental-booking/internal/delivery/dto"
	"dental-booking/internal/scheduler"
	"dental-booking/internal/usecase"
	"dental-booking/pkg/response"

	"github.com/gorilla/mux"
)

func newAppointmentRouter(t *testing.T, uc *mockAppointmentUsecase, booking *mockBookingUsecase) *mux.Router {
	t.Helper()
	h := NewAppointmentHandler(uc, booking, newTestValidator(t), newTestLogger())
	r := mux.NewRouter()
	r.HandleFunc("/appointments", h.ListAppointments).Methods(http.MethodGet)
	r.HandleFunc("/appointments", h.CreateAppointment).Methods(http.MethodPost)
	r.HandleFunc("/appointments/search", h.SearchAppointments).Methods(http.MethodGet)
	r.HandleFunc("/appointments/export", h.ExportAppointments).Methods(http.MethodGet)
	r.HandleFunc("/appointments/{id}", h.UpdateAppointment).Methods(http.MethodPut)
	r.HandleFunc("/appointments/{id}", h.DeleteAppointment).Methods(http.MethodDelete)
	return r
}

func TestAppointmentHandler_List(t *testing.T) {
	var got dto.AppointmentListRequest
	uc := &mockAppointmentUsecase{
		listFn: func(ctx context.Context, req *dto.AppointmentListRequest) (*dto.AppointmentListResponse, error) {
			got = *req
			return &dto.AppointmentListResponse{
				Appointments: []dto.AppointmentResponse{{ID: 1}, {ID: 2}},
				Total:        45,
				Page:         req.Page,
				PageSize:     req.PageSize,
			}, nil
		},
	}
	r := newAppointmentRouter(t, uc, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/appointments?q=ahm&status=pending&date=2024-05-01&page=2&pageSize=20&sort=name:desc", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	want := dto.AppointmentListRequest{Query: "ahm", Status: "pending", Date: "2024-05-01", Page: 2, PageSize: 20, SortField: "name", SortDesc: true}
	if got != want {
		t.Fatalf("request = %+v, want %+v", got, want)
	}

	var env struct {
		Data []dto.AppointmentResponse `json:"data"`
		Meta response.Meta             `json:"meta"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(env.Data) != 2 || env.Meta.Total != 45 || env.Meta.TotalPages != 3 || env.Meta.PageSize != 20 {
		t.Fatalf("env = %+v", env)
	}
}

func TestAppointmentHandler_Export(t *testing.T) {
	symptoms := "pain, swelling"
	uc := &mockAppointmentUsecase{
		exportFn: func(ctx context.Context, req *dto.AppointmentListRequest) ([]dto.AppointmentResponse, error) {
			if req.Status != "completed" {
				t.Errorf("status = %q", req.Status)
			}
			return []dto.AppointmentResponse{{
				ID: 7, TicketNumber: "202405010018901", Name: "Ahmed", Phone: "01012345678",
				NationalID: "**********8901", Symptoms: &symptoms, Status: "completed", ScheduledDate: "2024-05-01",
			}}, nil
		},
	}
	r := newAppointmentRouter(t, uc, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/appointments/export?status=completed", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type = %q", ct)
	}

	rows, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatalf("csv: %v", err)
	}
	if len(rows) != 2 || rows[0][0] != "id" {
		t.Fatalf("rows = %v", rows)
	}
	if rows[1][4] != "**********8901" || rows[1][5] != symptoms || rows[1][8] != "" {
		t.Fatalf("row = %v", rows[1])
	}
}

func TestAppointmentHandler_Update(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       string
		updateErr  error
		wantStatus int
		wantCode   string
	}{
		{"updated", "/appointments/3", `{"status":"completed","use_now":true}`, nil, http.StatusOK, ""},
		{"status any case", "/appointments/3", `{"status":"Completed","use_now":true}`, nil, http.StatusOK, ""},
		{"bad id", "/appointments/abc", `{"name":"x"}`, nil, http.StatusBadRequest, response.CodeBadRequest},
		{"status not allowed", "/appointments/3", `{"status":"cancelled"}`, nil, http.StatusBadRequest, response.CodeValidation},
		{"no changes", "/appointments/3", `{}`, usecase.ErrNoChanges, http.StatusBadRequest, response.CodeBadRequest},
		{"not found", "/appointments/3", `{"name":"x"}`, usecase.ErrAppointmentNotFound, http.StatusNotFound, response.CodeNotFound},
		{"day full", "/appointments/3", `{"scheduled_date":"2024-05-03"}`, &scheduler.CapacityExceededError{DayName: "Friday", Capacity: 1, Used: 1}, http.StatusConflict, response.CodeCapacity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockAppointmentUsecase{
				updateFn: func(ctx context.Context, id int64, req *dto.UpdateAppointmentRequest) (*dto.AppointmentResponse, error) {
					if id != 3 {
						t.Errorf("id = %d", id)
					}
					if tt.updateErr != nil {
						return nil, tt.updateErr
					}
					return &dto.AppointmentResponse{ID: id, Status: "completed"}, nil
				},
			}
			r := newAppointmentRouter(t, uc, nil)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, tt.path, strings.NewReader(tt.body)))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			env, _, details := decodeEnvelope(t, rec)
			if tt.wantCode != "" && (env.Error == nil || env.Error.Code != tt.wantCode) {
				t.Fatalf("error = %+v, want %s", env.Error, tt.wantCode)
			}
			if tt.wantCode == response.CodeCapacity {
				var d dto.CapacityExceededDetails
				_ = json.Unmarshal(details, &d)
				if d.DayName != "Friday" || d.Capacity != 1 || d.Used != 1 {
					t.Fatalf("details = %+v", d)
				}
			}
		})
	}
}

func TestAppointmentHandler_DeleteAndCreate(t *testing.T) {
	uc := &mockAppointmentUsecase{
		deleteFn: func(ctx context.Context, id int64) error {
			if id == 404 {
				return usecase.ErrAppointmentNotFound
			}
			return nil
		},
	}
	booking := &mockBookingUsecase{
		createFn: func(ctx context.Context, req *dto.BookAppointmentRequest) (*dto.BookingResponse, error) {
			return &dto.BookingResponse{TicketNumber: "202405010018901", Name: req.Name}, nil
		},
	}
	r := newAppointmentRouter(t, uc, booking)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/appointments/5", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/appointments/404", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing delete status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	body := `{"name":"Mona","phone":"01098765432","national_id":"29912345678901"}`
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAppointmentHandler_Search(t *testing.T) {
	uc := &mockAppointmentUsecase{
		searchFn: func(ctx context.Context, req *dto.AppointmentSearchRequest) ([]dto.AppointmentResponse, error) {
			if req.Phone == "" && req.Ticket == "" {
				return nil, usecase.ErrSearchCriteria
			}
			return []dto.AppointmentResponse{}, nil
		},
	}
	r := newAppointmentRouter(t, uc, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/appointments/search", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty search status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/appointments/search?phone=01012345678", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("search status = %d", rec.Code)
	}
}
