package dto

import (
	"github.com/google/uuid"
)

// Request DTOs

// WorkingHourRequest times may be empty only when IsClosed.
type WorkingHourRequest struct {
	Day       string `json:"day" validate:"required,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	OpenTime  string `json:"open_time" validate:"omitempty,hhmm"`
	CloseTime string `json:"close_time" validate:"omitempty,hhmm"`
	IsClosed  bool   `json:"is_closed"`
}

type ReplaceWorkingHoursRequest struct {
	WorkingHours []WorkingHourRequest `json:"working_hours" validate:"max=7,dive"`
}

type CreateBreakTimeRequest struct {
	Day       string `json:"day" validate:"required,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	StartTime string `json:"start_time" validate:"required,hhmm"`
	EndTime   string `json:"end_time" validate:"required,hhmm"`
}

type CreateDayOffRequest struct {
	Date   string `json:"date" validate:"required,date"`
	Reason string `json:"reason" validate:"omitempty,max=255"`
}

// Response DTOs

type DoctorResponse struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	LicenseNumber  string    `json:"license_number"`
	Specialization string    `json:"specialization"`
	Biography      string    `json:"biography,omitempty"`
	IsActive       *bool     `json:"is_active"`
}

type WorkingHourResponse struct {
	ID        int    `json:"id"`
	Day       string `json:"day"`
	OpenTime  string `json:"open_time,omitempty"`
	CloseTime string `json:"close_time,omitempty"`
	IsClosed  bool   `json:"is_closed"`
}

type BreakTimeResponse struct {
	ID        int    `json:"id"`
	Day       string `json:"day"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type DayOffResponse struct {
	ID     int    `json:"id"`
	Date   string `json:"date"`
	Reason string `json:"reason,omitempty"`
}

type AvailabilityProfileResponse struct {
	Doctor       DoctorResponse        `json:"doctor"`
	WorkingHours []WorkingHourResponse `json:"working_hours"`
	BreakTimes   []BreakTimeResponse   `json:"break_times"`
	DaysOff      []DayOffResponse      `json:"days_off"`
}

type DoctorListResponse struct {
	Doctors []DoctorResponse `json:"doctors"`
	Total   int              `json:"total"`
}
