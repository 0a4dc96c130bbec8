package http

import (
	"net/http"

	"dental-booking/internal/delivery/http/handler"
	"dental-booking/internal/delivery/http/middleware"
	"dental-booking/internal/service"

	"github.com/gorilla/mux"
	"github.com/spf13/afero"
)

type Router struct {
	router             *mux.Router
	healthHandler      *handler.HealthHandler
	patientHandler     *handler.PatientHandler
	authHandler        *handler.AuthHandler
	appointmentHandler *handler.AppointmentHandler
	capacityHandler    *handler.CapacityHandler
	dashboardHandler   *handler.DashboardHandler
	auditLogHandler    *handler.AuditLogHandler
	authMiddleware     *middleware.AuthMiddleware
	corsMiddleware     *middleware.CORSMiddleware
	loggingMiddleware  *middleware.LoggingMiddleware
	uploadFs           afero.Fs
}

func NewRouter(
	healthHandler *handler.HealthHandler,
	patientHandler *handler.PatientHandler,
	authHandler *handler.AuthHandler,
	appointmentHandler *handler.AppointmentHandler,
	capacityHandler *handler.CapacityHandler,
	dashboardHandler *handler.DashboardHandler,
	auditLogHandler *handler.AuditLogHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
	loggingMiddleware *middleware.LoggingMiddleware,
	uploadFs afero.Fs,
) *Router {
	return &Router{
		router:             mux.NewRouter(),
		healthHandler:      healthHandler,
		patientHandler:     patientHandler,
		authHandler:        authHandler,
		appointmentHandler: appointmentHandler,
		capacityHandler:    capacityHandler,
		dashboardHandler:   dashboardHandler,
		auditLogHandler:    auditLogHandler,
		authMiddleware:     authMiddleware,
		corsMiddleware:     corsMiddleware,
		loggingMiddleware:  loggingMiddleware,
		uploadFs:           uploadFs,
	}
}

// Setup registers every route. CORS and request logging wrap the whole
// router so preflight requests are answered before route matching.
func (r *Router) Setup() http.Handler {
	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthHandler.Check).Methods(http.MethodGet)

	// Patient routes (public)
	patient := api.PathPrefix("/patient").Subrouter()
	patient.HandleFunc("/book", r.patientHandler.BookAppointment).Methods(http.MethodPost)
	patient.HandleFunc("/appointments", r.patientHandler.FindAppointments).Methods(http.MethodGet)

	// Staff auth (public)
	api.HandleFunc("/staff/auth/login", r.authHandler.Login).Methods(http.MethodPost)

	// Staff routes (protected)
	staff := api.PathPrefix("/staff").Subrouter()
	staff.Use(r.authMiddleware.Authenticate)
	staff.Use(middleware.RequireStaff)

	staff.HandleFunc("/auth/logout", r.authHandler.Logout).Methods(http.MethodPost)
	staff.HandleFunc("/auth/verify", r.authHandler.Verify).Methods(http.MethodGet)

	// Appointment management
	staff.HandleFunc("/appointments", r.appointmentHandler.ListAppointments).Methods(http.MethodGet)
	staff.HandleFunc("/appointments", r.appointmentHandler.CreateAppointment).Methods(http.MethodPost)
	staff.HandleFunc("/appointments/search", r.appointmentHandler.SearchAppointments).Methods(http.MethodGet)
	staff.HandleFunc("/appointments/export", r.appointmentHandler.ExportAppointments).Methods(http.MethodGet)
	staff.HandleFunc("/appointments/{id:[0-9]+}", r.appointmentHandler.UpdateAppointment).Methods(http.MethodPut)
	staff.HandleFunc("/appointments/{id:[0-9]+}", r.appointmentHandler.DeleteAppointment).Methods(http.MethodDelete)

	// Capacity rules
	staff.HandleFunc("/capacity", r.capacityHandler.GetCapacity).Methods(http.MethodGet)
	staff.HandleFunc("/capacity/{day}", r.capacityHandler.SetCapacity).Methods(http.MethodPut)

	// Dashboard
	staff.HandleFunc("/dashboard", r.dashboardHandler.GetDashboard).Methods(http.MethodGet)
	staff.HandleFunc("/dashboard/stats", r.dashboardHandler.GetStats).Methods(http.MethodGet)

	// Audit trail
	staff.HandleFunc("/audit-logs", r.auditLogHandler.GetAllAuditLogs).Methods(http.MethodGet)

	// Stored attachments
	if r.uploadFs != nil {
		files := afero.NewHttpFs(afero.NewBasePathFs(r.uploadFs, service.UploadRoot))
		r.router.PathPrefix("/uploads/").Handler(
			http.StripPrefix("/uploads", http.FileServer(files.Dir("/"))),
		).Methods(http.MethodGet)
	}

	return r.corsMiddleware.Handle(r.loggingMiddleware.Handle(r.router))
}
