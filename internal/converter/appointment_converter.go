package converter

import (
	"clinic-backend/internal/delivery/dto"
	"clinic-backend/internal/domain/entity"
)

// AppointmentToResponse converts an Appointment entity to AppointmentResponse DTO.
// Doctor, patient and creator are included when preloaded.
func AppointmentToResponse(appointment *entity.Appointment) *dto.AppointmentResponse {
	if appointment == nil {
		return nil
	}

	return &dto.AppointmentResponse{
		ID:           appointment.ID,
		DoctorID:     appointment.DoctorID,
		PatientID:    appointment.PatientID,
		Date:         appointment.DateString(),
		StartTime:    appointment.StartTime,
		EndTime:      appointment.EndTime,
		Duration:     appointment.Duration,
		Status:       string(appointment.Status),
		Type:         appointment.Type,
		Notes:        appointment.Notes,
		CancelReason: appointment.CancelReason,
		CancelledAt:  appointment.CancelledAt,
		CompletedAt:  appointment.CompletedAt,
		CreatedBy:    appointment.CreatedBy,
		Doctor:       UserToSummary(appointment.Doctor),
		Patient:      UserToSummary(appointment.Patient),
		Creator:      UserToSummary(appointment.Creator),
		CreatedAt:    appointment.CreatedAt,
		UpdatedAt:    appointment.UpdatedAt,
	}
}

// AppointmentsToResponses converts a slice of Appointment entities to slice of AppointmentResponse DTOs
func AppointmentsToResponses(appointments []entity.Appointment) []dto.AppointmentResponse {
	responses := make([]dto.AppointmentResponse, len(appointments))
	for i := range appointments {
		responses[i] = *AppointmentToResponse(&appointments[i])
	}
	return responses
}
