package http

import (
	"net/http"

	"clinic-backend/internal/delivery/http/handler"
	"clinic-backend/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
)

type Router struct {
	router                *mux.Router
	appointmentHandler    *handler.AppointmentHandler
	availabilityHandler   *handler.AvailabilityHandler
	doctorHandler         *handler.DoctorHandler
	doctorScheduleHandler *handler.DoctorScheduleHandler
	auditLogHandler       *handler.AuditLogHandler
	healthHandler         *handler.HealthHandler
	authMiddleware        *middleware.AuthMiddleware
	corsMiddleware        *middleware.CORSMiddleware
	loggingMiddleware     *middleware.LoggingMiddleware
}

func NewRouter(
	appointmentHandler *handler.AppointmentHandler,
	availabilityHandler *handler.AvailabilityHandler,
	doctorHandler *handler.DoctorHandler,
	doctorScheduleHandler *handler.DoctorScheduleHandler,
	auditLogHandler *handler.AuditLogHandler,
	healthHandler *handler.HealthHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
	loggingMiddleware *middleware.LoggingMiddleware,
) *Router {
	return &Router{
		router:                mux.NewRouter(),
		appointmentHandler:    appointmentHandler,
		availabilityHandler:   availabilityHandler,
		doctorHandler:         doctorHandler,
		doctorScheduleHandler: doctorScheduleHandler,
		auditLogHandler:       auditLogHandler,
		healthHandler:         healthHandler,
		authMiddleware:        authMiddleware,
		corsMiddleware:        corsMiddleware,
		loggingMiddleware:     loggingMiddleware,
	}
}

func (r *Router) Setup() *mux.Router {
	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check (public)
	api.HandleFunc("/health/live", r.healthHandler.Live).Methods(http.MethodGet)
	api.HandleFunc("/health/ready", r.healthHandler.Ready).Methods(http.MethodGet)

	// Everything else requires a bearer token
	protected := api.PathPrefix("").Subrouter()
	protected.Use(r.authMiddleware.Authenticate)

	// Appointments
	// "/available" is registered before "/{id}" so it is not parsed as an id.
	protected.HandleFunc("/appointments/available", r.availabilityHandler.FindAvailableDoctors).Methods(http.MethodGet)
	protected.Handle("/appointments", middleware.RequireAdminOrPatient(http.HandlerFunc(r.appointmentHandler.CreateAppointment))).Methods(http.MethodPost)
	protected.HandleFunc("/appointments/{id}", r.appointmentHandler.GetAppointment).Methods(http.MethodGet)
	protected.HandleFunc("/appointments/{id}/cancel", r.appointmentHandler.CancelAppointment).Methods(http.MethodPut)
	protected.HandleFunc("/appointments/{id}/reschedule", r.appointmentHandler.RescheduleAppointment).Methods(http.MethodPut)
	protected.HandleFunc("/appointments/{id}/history", r.auditLogHandler.GetAppointmentHistory).Methods(http.MethodGet)

	// Status changes made by clinic staff
	staff := protected.PathPrefix("/appointments/{id}").Subrouter()
	staff.Use(middleware.RequireAdminOrDoctor)
	staff.HandleFunc("/confirm", r.appointmentHandler.ConfirmAppointment).Methods(http.MethodPut)
	staff.HandleFunc("/complete", r.appointmentHandler.CompleteAppointment).Methods(http.MethodPut)
	staff.HandleFunc("/no-show", r.appointmentHandler.MarkNoShow).Methods(http.MethodPut)

	// Doctor directory and availability
	protected.HandleFunc("/doctors", r.doctorHandler.GetAllDoctors).Methods(http.MethodGet)
	protected.HandleFunc("/doctors/{doctorId}", r.doctorHandler.GetDoctor).Methods(http.MethodGet)
	protected.HandleFunc("/doctors/{doctorId}/slots", r.availabilityHandler.GetSlots).Methods(http.MethodGet)
	protected.HandleFunc("/doctors/{doctorId}/availability", r.availabilityHandler.CheckAvailability).Methods(http.MethodGet)
	protected.HandleFunc("/doctors/{doctorId}/alternatives", r.availabilityHandler.SuggestAlternatives).Methods(http.MethodGet)
	protected.HandleFunc("/doctors/{doctorId}/availability-profile", r.doctorScheduleHandler.GetAvailabilityProfile).Methods(http.MethodGet)

	// Doctor day view and profile management (admin or the doctor)
	doctor := protected.PathPrefix("/doctors/{doctorId}").Subrouter()
	doctor.Use(middleware.RequireAdminOrDoctor)
	doctor.HandleFunc("/appointments", r.appointmentHandler.GetDoctorDay).Methods(http.MethodGet)
	doctor.HandleFunc("/history", r.auditLogHandler.GetDoctorHistory).Methods(http.MethodGet)
	doctor.HandleFunc("/working-hours", r.doctorScheduleHandler.ReplaceWorkingHours).Methods(http.MethodPut)
	doctor.HandleFunc("/break-times", r.doctorScheduleHandler.CreateBreakTime).Methods(http.MethodPost)
	doctor.HandleFunc("/break-times/{id}", r.doctorScheduleHandler.DeleteBreakTime).Methods(http.MethodDelete)
	doctor.HandleFunc("/days-off", r.doctorScheduleHandler.CreateDayOff).Methods(http.MethodPost)
	doctor.HandleFunc("/days-off/{id}", r.doctorScheduleHandler.DeleteDayOff).Methods(http.MethodDelete)

	// Add logging and CORS middleware
	r.router.Use(r.loggingMiddleware.Handle)
	r.router.Use(r.corsMiddleware.Handle)

	return r.router
}
