package converter

import (
	"clinic-backend/internal/delivery/dto"
	"clinic-backend/internal/domain/entity"
)

// DoctorProfileToResponse converts a DoctorProfile entity to DoctorResponse DTO
func DoctorProfileToResponse(profile *entity.DoctorProfile) *dto.DoctorResponse {
	if profile == nil {
		return nil
	}

	return &dto.DoctorResponse{
		ID:             profile.UserID,
		Email:          profile.User.Email,
		FullName:       profile.User.FullName(),
		LicenseNumber:  profile.LicenseNumber,
		Specialization: profile.Specialization,
		Biography:      profile.Biography,
		IsActive:       profile.User.IsActive,
	}
}

// AvailabilityProfileToResponse converts the directory availability profile of a doctor
func AvailabilityProfileToResponse(profile *entity.DoctorProfile) *dto.AvailabilityProfileResponse {
	if profile == nil {
		return nil
	}

	response := &dto.AvailabilityProfileResponse{
		Doctor:       *DoctorProfileToResponse(profile),
		WorkingHours: make([]dto.WorkingHourResponse, len(profile.WorkingHours)),
		BreakTimes:   make([]dto.BreakTimeResponse, len(profile.BreakTimes)),
		DaysOff:      make([]dto.DayOffResponse, len(profile.DaysOff)),
	}
	for i, wh := range profile.WorkingHours {
		response.WorkingHours[i] = WorkingHourToResponse(wh)
	}
	for i, b := range profile.BreakTimes {
		response.BreakTimes[i] = BreakTimeToResponse(b)
	}
	for i, d := range profile.DaysOff {
		response.DaysOff[i] = DayOffToResponse(d)
	}
	return response
}

func WorkingHourToResponse(wh entity.WorkingHour) dto.WorkingHourResponse {
	return dto.WorkingHourResponse{
		ID:        wh.ID,
		Day:       wh.Day,
		OpenTime:  wh.OpenTime,
		CloseTime: wh.CloseTime,
		IsClosed:  wh.IsClosed,
	}
}

func BreakTimeToResponse(b entity.BreakTime) dto.BreakTimeResponse {
	return dto.BreakTimeResponse{
		ID:        b.ID,
		Day:       b.Day,
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
	}
}

func DayOffToResponse(d entity.DayOff) dto.DayOffResponse {
	return dto.DayOffResponse{
		ID:     d.ID,
		Date:   d.Date.Format(entity.DateLayout),
		Reason: d.Reason,
	}
}
