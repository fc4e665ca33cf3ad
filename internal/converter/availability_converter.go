package converter

import (
	"clinic-backend/internal/delivery/dto"
	"clinic-backend/internal/service"
	"clinic-backend/pkg/timeslot"
)

func SlotsToResponses(slots []timeslot.Slot) []dto.SlotResponse {
	responses := make([]dto.SlotResponse, len(slots))
	for i, s := range slots {
		responses[i] = dto.SlotResponse{StartTime: s.StartTime, EndTime: s.EndTime, Duration: s.Duration}
	}
	return responses
}

func AvailabilityResultToResponse(result *service.AvailabilityResult) *dto.AvailabilityCheckResponse {
	if result == nil {
		return nil
	}

	response := &dto.AvailabilityCheckResponse{
		Available: result.Available,
		Reason:    result.Reason,
	}
	if len(result.Conflicts) > 0 {
		response.Conflicts = AppointmentsToResponses(result.Conflicts)
	}
	return response
}

func AvailableDoctorsToResponses(results []service.DoctorAvailability) []dto.AvailableDoctorResponse {
	responses := make([]dto.AvailableDoctorResponse, len(results))
	for i := range results {
		responses[i] = dto.AvailableDoctorResponse{
			Doctor: *DoctorProfileToResponse(&results[i].Doctor),
			Slots:  SlotsToResponses(results[i].Slots),
		}
	}
	return responses
}

func AlternativesToResponses(alternatives []service.AlternativeSlot) []dto.AlternativeSlotResponse {
	responses := make([]dto.AlternativeSlotResponse, len(alternatives))
	for i, a := range alternatives {
		responses[i] = dto.AlternativeSlotResponse{
			Date:      a.Date,
			StartTime: a.StartTime,
			EndTime:   a.EndTime,
			Duration:  a.Duration,
		}
	}
	return responses
}
