package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"dental-booking/internal/delivery/dto"
	"dental-booking/internal/usecase"
	"dental-booking/pkg/response"
	"dental-booking/pkg/validator"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

type mockBookingUsecase struct {
	bookFn   func(ctx context.Context, req *dto.BookAppointmentRequest, files *usecase.BookingAttachments) (*dto.BookingResponse, error)
	createFn func(ctx context.Context, req *dto.BookAppointmentRequest) (*dto.BookingResponse, error)
	findFn   func(ctx context.Context, req *dto.PatientLookupRequest) ([]dto.AppointmentResponse, error)
}

func (m *mockBookingUsecase) BookAppointment(ctx context.Context, req *dto.BookAppointmentRequest, files *usecase.BookingAttachments) (*dto.BookingResponse, error) {
	return m.bookFn(ctx, req, files)
}

func (m *mockBookingUsecase) CreateAppointment(ctx context.Context, req *dto.BookAppointmentRequest) (*dto.BookingResponse, error) {
	return m.createFn(ctx, req)
}

func (m *mockBookingUsecase) FindPatientAppointments(ctx context.Context, req *dto.PatientLookupRequest) ([]dto.AppointmentResponse, error) {
	return m.findFn(ctx, req)
}

type mockAppointmentUsecase struct {
	listFn   func(ctx context.Context, req *dto.AppointmentListRequest) (*dto.AppointmentListResponse, error)
	searchFn func(ctx context.Context, req *dto.AppointmentSearchRequest) ([]dto.AppointmentResponse, error)
	exportFn func(ctx context.Context, req *dto.AppointmentListRequest) ([]dto.AppointmentResponse, error)
	updateFn func(ctx context.Context, id int64, req *dto.UpdateAppointmentRequest) (*dto.AppointmentResponse, error)
	deleteFn func(ctx context.Context, id int64) error
}

func (m *mockAppointmentUsecase) ListAppointments(ctx context.Context, req *dto.AppointmentListRequest) (*dto.AppointmentListResponse, error) {
	return m.listFn(ctx, req)
}

func (m *mockAppointmentUsecase) SearchAppointments(ctx context.Context, req *dto.AppointmentSearchRequest) ([]dto.AppointmentResponse, error) {
	return m.searchFn(ctx, req)
}

func (m *mockAppointmentUsecase) ExportAppointments(ctx context.Context, req *dto.AppointmentListRequest) ([]dto.AppointmentResponse, error) {
	return m.exportFn(ctx, req)
}

func (m *mockAppointmentUsecase) UpdateAppointment(ctx context.Context, id int64, req *dto.UpdateAppointmentRequest) (*dto.AppointmentResponse, error) {
	return m.updateFn(ctx, id, req)
}

func (m *mockAppointmentUsecase) DeleteAppointment(ctx context.Context, id int64) error {
	return m.deleteFn(ctx, id)
}

type mockCapacityUsecase struct {
	getFn func(ctx context.Context) (*dto.CapacityListResponse, error)
	setFn func(ctx context.Context, dayName string, capacity int) (*dto.CapacityDayResponse, error)
}

func (m *mockCapacityUsecase) GetCapacity(ctx context.Context) (*dto.CapacityListResponse, error) {
	return m.getFn(ctx)
}

func (m *mockCapacityUsecase) SetCapacity(ctx context.Context, dayName string, capacity int) (*dto.CapacityDayResponse, error) {
	return m.setFn(ctx, dayName, capacity)
}

type mockAuthUsecase struct {
	loginFn  func(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	logoutFn func(ctx context.Context) error
	verifyFn func(ctx context.Context) (*dto.VerifyResponse, error)
}

func (m *mockAuthUsecase) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	return m.loginFn(ctx, req)
}

func (m *mockAuthUsecase) Logout(ctx context.Context) error {
	return m.logoutFn(ctx)
}

func (m *mockAuthUsecase) Verify(ctx context.Context) (*dto.VerifyResponse, error) {
	return m.verifyFn(ctx)
}

func newTestValidator(t *testing.T) *validator.CustomValidator {
	t.Helper()
	v, err := NewRequestValidator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}
	return v
}

func newTestLogger() *logrus.Logger {
	log, _ := test.NewNullLogger()
	return log
}

// decodeEnvelope decodes the response envelope, leaving data and details raw
func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) (response.Response, json.RawMessage, json.RawMessage) {
	t.Helper()
	var env struct {
		response.Response
		Data  json.RawMessage `json:"data"`
		Error *struct {
			Code    string          `json:"code"`
			Message string          `json:"message"`
			Details json.RawMessage `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	out := env.Response
	var details json.RawMessage
	if env.Error != nil {
		out.Error = &response.ErrorBody{Code: env.Error.Code, Message: env.Error.Message}
		details = env.Error.Details
	}
	return out, env.Data, details
}
