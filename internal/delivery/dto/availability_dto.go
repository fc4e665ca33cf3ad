package dto

import "github.com/google/uuid"

// Request DTOs (bound from query parameters)

type AvailableDoctorsQuery struct {
	Date           string `validate:"required,date"`
	StartTime      string `validate:"omitempty,hhmm"`
	EndTime        string `validate:"omitempty,hhmm"`
	Specialization string `validate:"omitempty,max=100"`
}

type SlotsQuery struct {
	Date     string `validate:"required,date"`
	Duration int    `validate:"omitempty,min=5,max=480"`
}

type AvailabilityCheckQuery struct {
	Date      string `validate:"required,date"`
	StartTime string `validate:"required,hhmm"`
	EndTime   string `validate:"required,hhmm"`
}

type AlternativesQuery struct {
	Date      string `validate:"required,date"`
	StartTime string `validate:"required,hhmm"`
	Limit     int    `validate:"omitempty,min=1,max=50"`
}

// Response DTOs

type SlotResponse struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Duration  int    `json:"duration"`
}

type DoctorSlotsResponse struct {
	DoctorID uuid.UUID      `json:"doctor_id"`
	Date     string         `json:"date"`
	Slots    []SlotResponse `json:"slots"`
	Total    int            `json:"total"`
}

type AvailabilityCheckResponse struct {
	Available bool                  `json:"available"`
	Reason    string                `json:"reason,omitempty"`
	Conflicts []AppointmentResponse `json:"conflicts,omitempty"`
}

type AvailableDoctorResponse struct {
	Doctor DoctorResponse `json:"doctor"`
	Slots  []SlotResponse `json:"available_slots"`
}

type AvailableDoctorListResponse struct {
	Date    string                    `json:"date"`
	Doctors []AvailableDoctorResponse `json:"doctors"`
	Total   int                       `json:"total"`
}

type AlternativeSlotResponse struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Duration  int    `json:"duration"`
}

type AlternativesResponse struct {
	DoctorID     uuid.UUID                 `json:"doctor_id"`
	Alternatives []AlternativeSlotResponse `json:"alternatives"`
	Total        int                       `json:"total"`
}
