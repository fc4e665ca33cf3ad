package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

// CreateAppointmentRequest books a slot. PatientID may be omitted when a patient books for themselves.
type CreateAppointmentRequest struct {
	DoctorID  uuid.UUID `json:"doctor_id" validate:"required"`
	PatientID uuid.UUID `json:"patient_id"`
	Date      string    `json:"date" validate:"required,date"`       // Format: YYYY-MM-DD
	StartTime string    `json:"start_time" validate:"required,hhmm"` // Format: HH:MM
	Type      string    `json:"type" validate:"omitempty,max=50"`    // Free-form, defaults to consultation
	Notes     string    `json:"notes" validate:"omitempty,max=1000"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

type RescheduleAppointmentRequest struct {
	Date      string `json:"date" validate:"required,date"`
	StartTime string `json:"start_time" validate:"required,hhmm"`
}

// Response DTOs

type PersonSummary struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email,omitempty"`
}

type AppointmentResponse struct {
	ID           uuid.UUID      `json:"id"`
	DoctorID     uuid.UUID      `json:"doctor_id"`
	PatientID    uuid.UUID      `json:"patient_id"`
	Date         string         `json:"date"`
	StartTime    string         `json:"start_time"`
	EndTime      string         `json:"end_time"`
	Duration     int            `json:"duration"`
	Status       string         `json:"status"`
	Type         string         `json:"type"`
	Notes        string         `json:"notes,omitempty"`
	CancelReason string         `json:"cancel_reason,omitempty"`
	CancelledAt  *time.Time     `json:"cancelled_at,omitempty"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	CreatedBy    *uuid.UUID     `json:"created_by,omitempty"`
	Doctor       *PersonSummary `json:"doctor,omitempty"`
	Patient      *PersonSummary `json:"patient,omitempty"`
	Creator      *PersonSummary `json:"creator,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Total        int                   `json:"total"`
}

// SlotConflictDetails is attached to a Conflict error when a booking is rejected.
type SlotConflictDetails struct {
	Reason    string                `json:"reason"`
	Conflicts []AppointmentResponse `json:"conflicts,omitempty"`
}
