package handler

import (
	"net/http"

	"clinic-backend/internal/delivery/dto"
	"clinic-backend/internal/usecase"
	"clinic-backend/pkg/response"
	"clinic-backend/pkg/validator"
)

type AvailabilityHandler struct {
	availabilityUsecase usecase.AvailabilityUsecase
	validator           *validator.CustomValidator
}

func NewAvailabilityHandler(availabilityUsecase usecase.AvailabilityUsecase, validator *validator.CustomValidator) *AvailabilityHandler {
	return &AvailabilityHandler{
		availabilityUsecase: availabilityUsecase,
		validator:           validator,
	}
}

// FindAvailableDoctors handles GET /appointments/available?date=&startTime=&endTime=&specialization=
func (h *AvailabilityHandler) FindAvailableDoctors(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := dto.AvailableDoctorsQuery{
		Date:           q.Get("date"),
		StartTime:      q.Get("startTime"),
		EndTime:        q.Get("endTime"),
		Specialization: q.Get("specialization"),
	}
	if err := h.validator.Validate(&query); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	doctors, err := h.availabilityUsecase.FindAvailableDoctors(r.Context(), &query)
	if err != nil {
		response.FromError(w, err, "Failed to search available doctors")
		return
	}

	response.Success(w, http.StatusOK, "Available doctors retrieved successfully", doctors)
}

func (h *AvailabilityHandler) GetSlots(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := uuidVar(w, r, "doctorId", "doctor ID")
	if !ok {
		return
	}
	duration, ok := queryInt(w, r, "duration")
	if !ok {
		return
	}

	query := dto.SlotsQuery{Date: r.URL.Query().Get("date"), Duration: duration}
	if err := h.validator.Validate(&query); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	slots, err := h.availabilityUsecase.GetSlots(r.Context(), doctorID, &query)
	if err != nil {
		response.FromError(w, err, "Failed to get available slots")
		return
	}

	response.Success(w, http.StatusOK, "Available slots retrieved successfully", slots)
}

func (h *AvailabilityHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := uuidVar(w, r, "doctorId", "doctor ID")
	if !ok {
		return
	}

	q := r.URL.Query()
	query := dto.AvailabilityCheckQuery{Date: q.Get("date"), StartTime: q.Get("startTime"), EndTime: q.Get("endTime")}
	if err := h.validator.Validate(&query); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	result, err := h.availabilityUsecase.CheckAvailability(r.Context(), doctorID, &query)
	if err != nil {
		response.FromError(w, err, "Failed to check availability")
		return
	}

	response.Success(w, http.StatusOK, "Availability checked successfully", result)
}

func (h *AvailabilityHandler) SuggestAlternatives(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := uuidVar(w, r, "doctorId", "doctor ID")
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}

	q := r.URL.Query()
	query := dto.AlternativesQuery{Date: q.Get("date"), StartTime: q.Get("startTime"), Limit: limit}
	if err := h.validator.Validate(&query); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	alternatives, err := h.availabilityUsecase.SuggestAlternatives(r.Context(), doctorID, &query)
	if err != nil {
		response.FromError(w, err, "Failed to suggest alternative slots")
		return
	}

	response.Success(w, http.StatusOK, "Alternative slots retrieved successfully", alternatives)
}
