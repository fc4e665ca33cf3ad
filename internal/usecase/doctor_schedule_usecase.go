package usecase

import (
	"context"
	"errors"

	"clinic-backend/internal/converter"
	"clinic-backend/internal/delivery/dto"
	"clinic-backend/internal/domain/entity"
	"clinic-backend/internal/domain/repository"
	"clinic-backend/internal/service"
	"clinic-backend/pkg/apperror"
	"clinic-backend/pkg/timeslot"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrBreakTimeNotFound    = apperror.NotFound("break time not found")
	ErrDayOffNotFound       = apperror.NotFound("day off not found")
	ErrDayOffExists         = apperror.Conflict("day off already exists for this date")
	ErrDuplicateWeekday     = apperror.BadRequest("each weekday may appear only once")
	ErrWorkingHoursRequired = apperror.BadRequest("open_time and close_time are required unless the day is closed")
	ErrInvalidTimeRange     = apperror.BadRequest("start time must be before end time")
	ErrNotOwnProfile        = apperror.Forbidden("doctors can only manage their own availability")
)

// ProfileCacheInvalidator drops cached availability profiles after an edit.
type ProfileCacheInvalidator interface {
	Invalidate(doctorID uuid.UUID)
}

// DoctorScheduleUsecase manages the working hours, break times and days off
// that the availability evaluator reads.
type DoctorScheduleUsecase interface {
	GetAvailabilityProfile(ctx context.Context, doctorID uuid.UUID) (*dto.AvailabilityProfileResponse, error)
	ReplaceWorkingHours(ctx context.Context, doctorID uuid.UUID, req *dto.ReplaceWorkingHoursRequest) (*dto.AvailabilityProfileResponse, error)
	CreateBreakTime(ctx context.Context, doctorID uuid.UUID, req *dto.CreateBreakTimeRequest) (*dto.BreakTimeResponse, error)
	DeleteBreakTime(ctx context.Context, doctorID uuid.UUID, breakTimeID int) error
	CreateDayOff(ctx context.Context, doctorID uuid.UUID, req *dto.CreateDayOffRequest) (*dto.DayOffResponse, error)
	DeleteDayOff(ctx context.Context, doctorID uuid.UUID, dayOffID int) error
}

type doctorScheduleUsecase struct {
	db                *gorm.DB
	log               *logrus.Logger
	doctorProfileRepo repository.DoctorProfileRepository
	availabilityRepo  repository.DoctorAvailabilityRepository
	profileCache      ProfileCacheInvalidator
	auditService      service.AuditService
}

func NewDoctorScheduleUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	doctorProfileRepo repository.DoctorProfileRepository,
	availabilityRepo repository.DoctorAvailabilityRepository,
	profileCache ProfileCacheInvalidator,
	auditService service.AuditService,
) DoctorScheduleUsecase {
	return &doctorScheduleUsecase{
		db:                db,
		log:               log,
		doctorProfileRepo: doctorProfileRepo,
		availabilityRepo:  availabilityRepo,
		profileCache:      profileCache,
		auditService:      auditService,
	}
}

func (u *doctorScheduleUsecase) GetAvailabilityProfile(ctx context.Context, doctorID uuid.UUID) (*dto.AvailabilityProfileResponse, error) {
	profile, err := u.findDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	return converter.AvailabilityProfileToResponse(profile), nil
}

// ReplaceWorkingHours swaps the whole weekly table. Days not listed have no entry.
func (u *doctorScheduleUsecase) ReplaceWorkingHours(ctx context.Context, doctorID uuid.UUID, req *dto.ReplaceWorkingHoursRequest) (*dto.AvailabilityProfileResponse, error) {
	caller, err := u.authorize(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	before, err := u.findDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	hours := make([]entity.WorkingHour, 0, len(req.WorkingHours))
	seen := make(map[string]bool, len(req.WorkingHours))
	for _, wh := range req.WorkingHours {
		if seen[wh.Day] {
			return nil, ErrDuplicateWeekday.WithDetails(map[string]string{"day": wh.Day})
		}
		seen[wh.Day] = true

		hour := entity.WorkingHour{DoctorID: doctorID, Day: wh.Day, IsClosed: wh.IsClosed}
		if !wh.IsClosed {
			if wh.OpenTime == "" || wh.CloseTime == "" {
				return nil, ErrWorkingHoursRequired.WithDetails(map[string]string{"day": wh.Day})
			}
			if err := checkRange(wh.OpenTime, wh.CloseTime); err != nil {
				return nil, err
			}
			hour.OpenTime, hour.CloseTime = wh.OpenTime, wh.CloseTime
		}
		hours = append(hours, hour)
	}

	if err := u.availabilityRepo.ReplaceWorkingHours(ctx, u.db, doctorID, hours); err != nil {
		u.log.Warnf("Failed to replace working hours of doctor %s: %+v", doctorID, err)
		return nil, err
	}
	u.profileCache.Invalidate(doctorID)

	after, err := u.findDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	u.audit(ctx, caller, entity.AuditActionWorkingHoursReplace, doctorID,
		converter.AvailabilityProfileToResponse(before).WorkingHours,
		converter.AvailabilityProfileToResponse(after).WorkingHours)

	u.log.Infof("Working hours replaced: doctor=%s, days=%d", doctorID, len(hours))
	return converter.AvailabilityProfileToResponse(after), nil
}

func (u *doctorScheduleUsecase) CreateBreakTime(ctx context.Context, doctorID uuid.UUID, req *dto.CreateBreakTimeRequest) (*dto.BreakTimeResponse, error) {
	caller, err := u.authorize(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if err := checkRange(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}
	if _, err := u.findDoctor(ctx, doctorID); err != nil {
		return nil, err
	}

	breakTime := &entity.BreakTime{
		DoctorID:  doctorID,
		Day:       req.Day,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}
	if err := u.availabilityRepo.CreateBreakTime(ctx, u.db, breakTime); err != nil {
		u.log.Warnf("Failed to create break time for doctor %s: %+v", doctorID, err)
		return nil, err
	}
	u.profileCache.Invalidate(doctorID)

	response := converter.BreakTimeToResponse(*breakTime)
	u.audit(ctx, caller, entity.AuditActionBreakTimeCreate, doctorID, nil, response)

	u.log.Infof("Break time created: doctor=%s, day=%s, %s-%s", doctorID, req.Day, req.StartTime, req.EndTime)
	return &response, nil
}

func (u *doctorScheduleUsecase) DeleteBreakTime(ctx context.Context, doctorID uuid.UUID, breakTimeID int) error {
	caller, err := u.authorize(ctx, doctorID)
	if err != nil {
		return err
	}

	deleted, err := u.availabilityRepo.DeleteBreakTime(ctx, u.db, doctorID, breakTimeID)
	if err != nil {
		u.log.Warnf("Failed to delete break time %d of doctor %s: %+v", breakTimeID, doctorID, err)
		return err
	}
	if deleted == 0 {
		return ErrBreakTimeNotFound
	}
	u.profileCache.Invalidate(doctorID)

	u.audit(ctx, caller, entity.AuditActionBreakTimeDelete, doctorID, map[string]int{"break_time_id": breakTimeID}, nil)
	return nil
}

func (u *doctorScheduleUsecase) CreateDayOff(ctx context.Context, doctorID uuid.UUID, req *dto.CreateDayOffRequest) (*dto.DayOffResponse, error) {
	caller, err := u.authorize(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if _, err := u.findDoctor(ctx, doctorID); err != nil {
		return nil, err
	}

	dayOff := &entity.DayOff{DoctorID: doctorID, Date: date, Reason: req.Reason}
	if err := u.availabilityRepo.CreateDayOff(ctx, u.db, dayOff); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDayOffExists.WithDetails(map[string]string{"date": req.Date})
		}
		u.log.Warnf("Failed to create day off for doctor %s: %+v", doctorID, err)
		return nil, err
	}
	u.profileCache.Invalidate(doctorID)

	response := converter.DayOffToResponse(*dayOff)
	u.audit(ctx, caller, entity.AuditActionDayOffCreate, doctorID, nil, response)

	u.log.Infof("Day off created: doctor=%s, date=%s", doctorID, req.Date)
	return &response, nil
}

func (u *doctorScheduleUsecase) DeleteDayOff(ctx context.Context, doctorID uuid.UUID, dayOffID int) error {
	caller, err := u.authorize(ctx, doctorID)
	if err != nil {
		return err
	}

	deleted, err := u.availabilityRepo.DeleteDayOff(ctx, u.db, doctorID, dayOffID)
	if err != nil {
		u.log.Warnf("Failed to delete day off %d of doctor %s: %+v", dayOffID, doctorID, err)
		return err
	}
	if deleted == 0 {
		return ErrDayOffNotFound
	}
	u.profileCache.Invalidate(doctorID)

	u.audit(ctx, caller, entity.AuditActionDayOffDelete, doctorID, map[string]int{"day_off_id": dayOffID}, nil)
	return nil
}

// authorize lets admins manage any doctor and doctors only themselves.
func (u *doctorScheduleUsecase) authorize(ctx context.Context, doctorID uuid.UUID) (actor, error) {
	caller, err := actorFromContext(ctx)
	if err != nil {
		return actor{}, err
	}
	if caller.isDoctor() && caller.ID != doctorID {
		return actor{}, ErrNotOwnProfile
	}
	return caller, nil
}

func (u *doctorScheduleUsecase) findDoctor(ctx context.Context, doctorID uuid.UUID) (*entity.DoctorProfile, error) {
	profile, err := u.doctorProfileRepo.FindByUserID(ctx, u.db, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor profile %s: %+v", doctorID, err)
		return nil, err
	}
	if profile == nil {
		return nil, ErrDoctorNotFound
	}
	return profile, nil
}

func (u *doctorScheduleUsecase) audit(ctx context.Context, caller actor, action string, doctorID uuid.UUID, oldValue, newValue interface{}) {
	_ = u.auditService.Record(ctx, service.AuditEntry{
		ActorID:    &caller.ID,
		Action:     action,
		EntityName: entity.AuditEntityDoctor,
		EntityID:   doctorID.String(),
		OldValue:   oldValue,
		NewValue:   newValue,
	})
}

func checkRange(startTime, endTime string) error {
	start, err := timeslot.TimeToMinutes(startTime)
	if err != nil {
		return service.ErrInvalidTime.WithDetails(map[string]string{"time": startTime})
	}
	end, err := timeslot.TimeToMinutes(endTime)
	if err != nil {
		return service.ErrInvalidTime.WithDetails(map[string]string{"time": endTime})
	}
	if start >= end {
		return ErrInvalidTimeRange.WithDetails(map[string]string{"start_time": startTime, "end_time": endTime})
	}
	return nil
}
