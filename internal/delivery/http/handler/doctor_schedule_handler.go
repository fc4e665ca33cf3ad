package handler

import (
	"encoding/json"
	"net/http"

	"clinic-backend/internal/delivery/dto"
	"clinic-backend/internal/usecase"
	"clinic-backend/pkg/response"
	"clinic-backend/pkg/validator"
)

type DoctorScheduleHandler struct {
	scheduleUsecase usecase.DoctorScheduleUsecase
	validator       *validator.CustomValidator
}

func NewDoctorScheduleHandler(scheduleUsecase usecase.DoctorScheduleUsecase, validator *validator.CustomValidator) *DoctorScheduleHandler {
	return &DoctorScheduleHandler{
		scheduleUsecase: scheduleUsecase,
		validator:       validator,
	}
}

func (h *DoctorScheduleHandler) GetAvailabilityProfile(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := uuidVar(w, r, "doctorId", "doctor ID")
	if !ok {
		return
	}

	profile, err := h.scheduleUsecase.GetAvailabilityProfile(r.Context(), doctorID)
	if err != nil {
		response.FromError(w, err, "Failed to get availability profile")
		return
	}

	response.Success(w, http.StatusOK, "Availability profile retrieved successfully", profile)
}

func (h *DoctorScheduleHandler) ReplaceWorkingHours(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := uuidVar(w, r, "doctorId", "doctor ID")
	if !ok {
		return
	}

	var req dto.ReplaceWorkingHoursRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	profile, err := h.scheduleUsecase.ReplaceWorkingHours(r.Context(), doctorID, &req)
	if err != nil {
		response.FromError(w, err, "Failed to replace working hours")
		return
	}

	response.Success(w, http.StatusOK, "Working hours updated successfully", profile)
}

func (h *DoctorScheduleHandler) CreateBreakTime(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := uuidVar(w, r, "doctorId", "doctor ID")
	if !ok {
		return
	}

	var req dto.CreateBreakTimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	breakTime, err := h.scheduleUsecase.CreateBreakTime(r.Context(), doctorID, &req)
	if err != nil {
		response.FromError(w, err, "Failed to create break time")
		return
	}

	response.Success(w, http.StatusCreated, "Break time created successfully", breakTime)
}

func (h *DoctorScheduleHandler) DeleteBreakTime(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := uuidVar(w, r, "doctorId", "doctor ID")
	if !ok {
		return
	}
	breakTimeID, ok := intVar(w, r, "id", "break time ID")
	if !ok {
		return
	}

	if err := h.scheduleUsecase.DeleteBreakTime(r.Context(), doctorID, breakTimeID); err != nil {
		response.FromError(w, err, "Failed to delete break time")
		return
	}

	response.Success(w, http.StatusOK, "Break time deleted successfully", nil)
}

func (h *DoctorScheduleHandler) CreateDayOff(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := uuidVar(w, r, "doctorId", "doctor ID")
	if !ok {
		return
	}

	var req dto.CreateDayOffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	dayOff, err := h.scheduleUsecase.CreateDayOff(r.Context(), doctorID, &req)
	if err != nil {
		response.FromError(w, err, "Failed to create day off")
		return
	}

	response.Success(w, http.StatusCreated, "Day off created successfully", dayOff)
}

func (h *DoctorScheduleHandler) DeleteDayOff(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := uuidVar(w, r, "doctorId", "doctor ID")
	if !ok {
		return
	}
	dayOffID, ok := intVar(w, r, "id", "day off ID")
	if !ok {
		return
	}

	if err := h.scheduleUsecase.DeleteDayOff(r.Context(), doctorID, dayOffID); err != nil {
		response.FromError(w, err, "Failed to delete day off")
		return
	}

	response.Success(w, http.StatusOK, "Day off deleted successfully", nil)
}
