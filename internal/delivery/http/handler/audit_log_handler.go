package handler

import (
	"net/http"

	"clinic-backend/internal/usecase"
	"clinic-backend/pkg/response"
)

type AuditLogHandler struct {
	auditLogUsecase usecase.AuditLogUsecase
}

func NewAuditLogHandler(auditLogUsecase usecase.AuditLogUsecase) *AuditLogHandler {
	return &AuditLogHandler{
		auditLogUsecase: auditLogUsecase,
	}
}

func (h *AuditLogHandler) GetAppointmentHistory(w http.ResponseWriter, r *http.Request) {
	appointmentID, ok := uuidVar(w, r, "id", "appointment ID")
	if !ok {
		return
	}

	logs, err := h.auditLogUsecase.GetAppointmentHistory(r.Context(), appointmentID)
	if err != nil {
		response.FromError(w, err, "Failed to get appointment history")
		return
	}

	response.Success(w, http.StatusOK, "Appointment history retrieved successfully", logs)
}

func (h *AuditLogHandler) GetDoctorHistory(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := uuidVar(w, r, "doctorId", "doctor ID")
	if !ok {
		return
	}

	logs, err := h.auditLogUsecase.GetDoctorHistory(r.Context(), doctorID)
	if err != nil {
		response.FromError(w, err, "Failed to get doctor history")
		return
	}

	response.Success(w, http.StatusOK, "Doctor history retrieved successfully", logs)
}
