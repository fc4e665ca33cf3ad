package usecase

import (
	"context"
	"time"

	"clinic-backend/internal/converter"
	"clinic-backend/internal/delivery/dto"
	"clinic-backend/internal/domain/entity"
	"clinic-backend/internal/domain/repository"
	"clinic-backend/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type AvailabilityUsecase interface {
	FindAvailableDoctors(ctx context.Context, query *dto.AvailableDoctorsQuery) (*dto.AvailableDoctorListResponse, error)
	GetSlots(ctx context.Context, doctorID uuid.UUID, query *dto.SlotsQuery) (*dto.DoctorSlotsResponse, error)
	CheckAvailability(ctx context.Context, doctorID uuid.UUID, query *dto.AvailabilityCheckQuery) (*dto.AvailabilityCheckResponse, error)
	SuggestAlternatives(ctx context.Context, doctorID uuid.UUID, query *dto.AlternativesQuery) (*dto.AlternativesResponse, error)
}

type availabilityUsecase struct {
	db                  *gorm.DB
	log                 *logrus.Logger
	userRepo            repository.UserRepository
	availabilityService service.AvailabilityService
}

func NewAvailabilityUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	userRepo repository.UserRepository,
	availabilityService service.AvailabilityService,
) AvailabilityUsecase {
	return &availabilityUsecase{
		db:                  db,
		log:                 log,
		userRepo:            userRepo,
		availabilityService: availabilityService,
	}
}

func (u *availabilityUsecase) FindAvailableDoctors(ctx context.Context, query *dto.AvailableDoctorsQuery) (*dto.AvailableDoctorListResponse, error) {
	date, err := parseDate(query.Date)
	if err != nil {
		return nil, err
	}

	results, err := u.availabilityService.FindAvailableDoctors(ctx, service.FleetQuery{
		Date:           date,
		StartTime:      query.StartTime,
		EndTime:        query.EndTime,
		Specialization: query.Specialization,
	})
	if err != nil {
		return nil, err
	}

	return &dto.AvailableDoctorListResponse{
		Date:    query.Date,
		Doctors: converter.AvailableDoctorsToResponses(results),
		Total:   len(results),
	}, nil
}

func (u *availabilityUsecase) GetSlots(ctx context.Context, doctorID uuid.UUID, query *dto.SlotsQuery) (*dto.DoctorSlotsResponse, error) {
	date, err := u.doctorDay(ctx, doctorID, query.Date)
	if err != nil {
		return nil, err
	}

	slots, err := u.availabilityService.GetAvailableSlots(ctx, doctorID, date, query.Duration)
	if err != nil {
		return nil, err
	}

	return &dto.DoctorSlotsResponse{
		DoctorID: doctorID,
		Date:     query.Date,
		Slots:    converter.SlotsToResponses(slots),
		Total:    len(slots),
	}, nil
}

func (u *availabilityUsecase) CheckAvailability(ctx context.Context, doctorID uuid.UUID, query *dto.AvailabilityCheckQuery) (*dto.AvailabilityCheckResponse, error) {
	date, err := u.doctorDay(ctx, doctorID, query.Date)
	if err != nil {
		return nil, err
	}

	result, err := u.availabilityService.CheckAvailability(ctx, doctorID, date, query.StartTime, query.EndTime, nil)
	if err != nil {
		return nil, err
	}
	return converter.AvailabilityResultToResponse(result), nil
}

func (u *availabilityUsecase) SuggestAlternatives(ctx context.Context, doctorID uuid.UUID, query *dto.AlternativesQuery) (*dto.AlternativesResponse, error) {
	date, err := u.doctorDay(ctx, doctorID, query.Date)
	if err != nil {
		return nil, err
	}

	alternatives, err := u.availabilityService.SuggestAlternativeSlots(ctx, doctorID, date, query.StartTime, query.Limit)
	if err != nil {
		return nil, err
	}

	return &dto.AlternativesResponse{
		DoctorID:     doctorID,
		Alternatives: converter.AlternativesToResponses(alternatives),
		Total:        len(alternatives),
	}, nil
}

// doctorDay parses date and requires doctorID to be an active doctor.
func (u *availabilityUsecase) doctorDay(ctx context.Context, doctorID uuid.UUID, value string) (date time.Time, err error) {
	if date, err = parseDate(value); err != nil {
		return date, err
	}
	_, err = requireUser(ctx, u.db, u.log, u.userRepo, doctorID, entity.RoleIDDoctor)
	return date, err
}
