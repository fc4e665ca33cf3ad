package usecase

import (
	"context"
	"errors"
	"time"

	"clinic-backend/config"
	"clinic-backend/internal/converter"
	"clinic-backend/internal/delivery/dto"
	"clinic-backend/internal/domain/entity"
	"clinic-backend/internal/domain/repository"
	"clinic-backend/internal/infrastructure/lock"
	"clinic-backend/internal/infrastructure/messaging"
	"clinic-backend/internal/service"
	"clinic-backend/pkg/apperror"
	"clinic-backend/pkg/timeslot"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrAppointmentNotFound  = apperror.NotFound("appointment not found")
	ErrSlotNotAvailable     = apperror.Conflict("slot not available")
	ErrInvalidTransition    = apperror.Conflict("appointment status does not allow this change")
	ErrAppointmentNotOwned  = apperror.Forbidden("appointment does not belong to you")
	ErrBookForOtherPatient  = apperror.Forbidden("patients can only book appointments for themselves")
	ErrPatientRequired      = apperror.BadRequest("patient_id is required")
	ErrSlotOutsideDay       = apperror.BadRequest("appointment must end before midnight")
	ErrReferencedNotPresent = apperror.BadRequest("doctor or patient no longer exists")
	ErrNotOwnDay            = apperror.Forbidden("doctors can only view their own appointments")
)

type AppointmentUsecase interface {
	CreateAppointment(ctx context.Context, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error)
	GetAppointment(ctx context.Context, appointmentID uuid.UUID) (*dto.AppointmentResponse, error)
	ListDoctorDay(ctx context.Context, doctorID uuid.UUID, date string) (*dto.AppointmentListResponse, error)
	Confirm(ctx context.Context, appointmentID uuid.UUID) (*dto.AppointmentResponse, error)
	Cancel(ctx context.Context, appointmentID uuid.UUID, req *dto.CancelAppointmentRequest) (*dto.AppointmentResponse, error)
	Complete(ctx context.Context, appointmentID uuid.UUID) (*dto.AppointmentResponse, error)
	MarkNoShow(ctx context.Context, appointmentID uuid.UUID) (*dto.AppointmentResponse, error)
	Reschedule(ctx context.Context, appointmentID uuid.UUID, req *dto.RescheduleAppointmentRequest) (*dto.AppointmentResponse, error)
}

type appointmentUsecase struct {
	db                  *gorm.DB
	log                 *logrus.Logger
	cfg                 config.SchedulingConfig
	appointmentRepo     repository.AppointmentRepository
	userRepo            repository.UserRepository
	availabilityService service.AvailabilityService
	auditService        service.AuditService
	locker              lock.Locker
	publisher           messaging.EventPublisher
}

func NewAppointmentUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	cfg config.SchedulingConfig,
	appointmentRepo repository.AppointmentRepository,
	userRepo repository.UserRepository,
	availabilityService service.AvailabilityService,
	auditService service.AuditService,
	locker lock.Locker,
	publisher messaging.EventPublisher,
) AppointmentUsecase {
	return &appointmentUsecase{
		db:                  db,
		log:                 log,
		cfg:                 cfg,
		appointmentRepo:     appointmentRepo,
		userRepo:            userRepo,
		availabilityService: availabilityService,
		auditService:        auditService,
		locker:              locker,
		publisher:           publisher,
	}
}

// CreateAppointment books a fixed-duration slot.
//
// Flow:
// 1. Validate doctor and patient (role and active flag)
// 2. Recompute the doctor's free slots and require the requested start among them
// 3. Derive end time from the configured slot duration
// 4. Insert under the doctor-day lock; storage rejects an overlap that slipped past step 2
// 5. Reload with display fields, audit and publish
func (u *appointmentUsecase) CreateAppointment(ctx context.Context, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error) {
	caller, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	patientID := req.PatientID
	if caller.isPatient() {
		if patientID == uuid.Nil {
			patientID = caller.ID
		}
		if patientID != caller.ID {
			return nil, ErrBookForOtherPatient
		}
	}
	if patientID == uuid.Nil {
		return nil, ErrPatientRequired
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if !timeslot.Valid(req.StartTime) {
		return nil, service.ErrInvalidTime.WithDetails(map[string]string{"time": req.StartTime})
	}

	// Step 1: directory checks
	if _, err := requireUser(ctx, u.db, u.log, u.userRepo, req.DoctorID, entity.RoleIDDoctor); err != nil {
		return nil, err
	}
	if _, err := requireUser(ctx, u.db, u.log, u.userRepo, patientID, entity.RoleIDPatient); err != nil {
		return nil, err
	}

	// Step 2: end time
	endTime, err := timeslot.AddMinutes(req.StartTime, u.cfg.SlotDuration)
	if err != nil {
		return nil, ErrSlotOutsideDay
	}

	appointmentType := req.Type
	if appointmentType == "" {
		appointmentType = entity.AppointmentTypeConsultation
	}
	appointment := &entity.Appointment{
		DoctorID:  req.DoctorID,
		PatientID: patientID,
		Date:      date,
		StartTime: req.StartTime,
		EndTime:   endTime,
		Duration:  u.cfg.SlotDuration,
		Status:    entity.AppointmentStatusScheduled,
		Type:      appointmentType,
		Notes:     req.Notes,
		CreatedBy: &caller.ID,
	}

	// Steps 3-4: re-validate against current state and insert under the doctor-day lock
	err = u.locker.WithDoctorDayLock(ctx, req.DoctorID, req.Date, func(ctx context.Context) error {
		slots, err := u.availabilityService.GetAvailableSlots(ctx, req.DoctorID, date, u.cfg.SlotDuration)
		if err != nil {
			return err
		}
		if !containsStart(slots, req.StartTime) {
			return u.slotRejection(ctx, req.DoctorID, date, req.StartTime, endTime, nil)
		}
		return u.appointmentRepo.CreateIfSlotFree(ctx, u.db, appointment)
	})
	if err != nil {
		return nil, u.writeError(ctx, err, appointment, nil)
	}

	// Step 5: reload for display fields
	created := u.reload(ctx, appointment)
	u.recordChange(ctx, entity.AuditActionAppointmentCreate, "created", caller, nil, created)

	u.log.Infof("Appointment created: id=%s, doctor=%s, date=%s, start=%s", created.ID, created.DoctorID, req.Date, created.StartTime)
	return converter.AppointmentToResponse(created), nil
}

func (u *appointmentUsecase) GetAppointment(ctx context.Context, appointmentID uuid.UUID) (*dto.AppointmentResponse, error) {
	caller, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	appointment, err := u.findOwned(ctx, caller, appointmentID)
	if err != nil {
		return nil, err
	}
	return converter.AppointmentToResponse(appointment), nil
}

// ListDoctorDay returns every appointment of the doctor on date, any status, in time order.
func (u *appointmentUsecase) ListDoctorDay(ctx context.Context, doctorID uuid.UUID, date string) (*dto.AppointmentListResponse, error) {
	caller, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if caller.isDoctor() && caller.ID != doctorID {
		return nil, ErrNotOwnDay
	}

	day, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	if _, err := requireUser(ctx, u.db, u.log, u.userRepo, doctorID, entity.RoleIDDoctor); err != nil {
		return nil, err
	}

	appointments, err := u.appointmentRepo.FindByDoctorAndDateRange(ctx, u.db, doctorID, day, day)
	if err != nil {
		u.log.Warnf("Failed to find appointments of doctor %s on %s: %+v", doctorID, date, err)
		return nil, err
	}

	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        len(appointments),
	}, nil
}

func (u *appointmentUsecase) Confirm(ctx context.Context, appointmentID uuid.UUID) (*dto.AppointmentResponse, error) {
	return u.transition(ctx, appointmentID, entity.AppointmentStatusUpdate{Status: entity.AppointmentStatusConfirmed},
		entity.AuditActionAppointmentConfirm, "confirmed")
}

// Cancel moves a scheduled or confirmed appointment to cancelled, which frees its slot.
func (u *appointmentUsecase) Cancel(ctx context.Context, appointmentID uuid.UUID, req *dto.CancelAppointmentRequest) (*dto.AppointmentResponse, error) {
	return u.transition(ctx, appointmentID, entity.AppointmentStatusUpdate{Status: entity.AppointmentStatusCancelled, CancelReason: req.Reason},
		entity.AuditActionAppointmentCancel, "cancelled")
}

func (u *appointmentUsecase) Complete(ctx context.Context, appointmentID uuid.UUID) (*dto.AppointmentResponse, error) {
	return u.transition(ctx, appointmentID, entity.AppointmentStatusUpdate{Status: entity.AppointmentStatusCompleted},
		entity.AuditActionAppointmentComplete, "completed")
}

func (u *appointmentUsecase) MarkNoShow(ctx context.Context, appointmentID uuid.UUID) (*dto.AppointmentResponse, error) {
	return u.transition(ctx, appointmentID, entity.AppointmentStatusUpdate{Status: entity.AppointmentStatusNoShow},
		entity.AuditActionAppointmentNoShow, "no_show")
}

// Reschedule moves a scheduled or confirmed appointment to a new date and start,
// keeping its duration. The appointment itself is ignored when checking overlaps.
func (u *appointmentUsecase) Reschedule(ctx context.Context, appointmentID uuid.UUID, req *dto.RescheduleAppointmentRequest) (*dto.AppointmentResponse, error) {
	caller, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if !timeslot.Valid(req.StartTime) {
		return nil, service.ErrInvalidTime.WithDetails(map[string]string{"time": req.StartTime})
	}

	before, err := u.findOwned(ctx, caller, appointmentID)
	if err != nil {
		return nil, err
	}
	if before.Status.Terminal() {
		return nil, ErrInvalidTransition.WithDetails(map[string]string{"from": string(before.Status), "to": "rescheduled"})
	}

	duration := before.Duration
	if duration <= 0 {
		duration = u.cfg.SlotDuration
	}
	endTime, err := timeslot.AddMinutes(req.StartTime, duration)
	if err != nil {
		return nil, ErrSlotOutsideDay
	}

	// The new start must be an enumerated slot, as for a new booking.
	var moved *entity.Appointment
	err = u.locker.WithDoctorDayLock(ctx, before.DoctorID, req.Date, func(ctx context.Context) error {
		slots, err := u.availabilityService.GetAvailableSlotsExcluding(ctx, before.DoctorID, date, duration, &before.ID)
		if err != nil {
			return err
		}
		if !containsStart(slots, req.StartTime) {
			return u.slotRejection(ctx, before.DoctorID, date, req.StartTime, endTime, &before.ID)
		}
		moved, err = u.appointmentRepo.Reschedule(ctx, u.db, appointmentID, date, req.StartTime, endTime)
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return nil, ErrInvalidTransition
		}
		return nil, u.writeError(ctx, err, &entity.Appointment{DoctorID: before.DoctorID, Date: date, StartTime: req.StartTime, EndTime: endTime}, &before.ID)
	}
	if moved == nil {
		return nil, ErrAppointmentNotFound
	}

	after := u.reload(ctx, moved)
	u.recordChange(ctx, entity.AuditActionAppointmentReschedule, "rescheduled", caller, before, after)

	u.log.Infof("Appointment rescheduled: id=%s, from=%s %s, to=%s %s", appointmentID, before.DateString(), before.StartTime, req.Date, req.StartTime)
	return converter.AppointmentToResponse(after), nil
}

// transition applies a guarded status change. The repository checks the source
// status atomically, so a concurrent change surfaces as ErrInvalidTransition.
func (u *appointmentUsecase) transition(ctx context.Context, appointmentID uuid.UUID, update entity.AppointmentStatusUpdate, action, eventAction string) (*dto.AppointmentResponse, error) {
	caller, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	before, err := u.findOwned(ctx, caller, appointmentID)
	if err != nil {
		return nil, err
	}

	update.At = time.Now()
	updated, err := u.appointmentRepo.UpdateStatus(ctx, u.db, appointmentID, update)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return nil, ErrInvalidTransition.WithDetails(map[string]string{"from": string(before.Status), "to": string(update.Status)})
		}
		u.log.Warnf("Failed to update appointment %s to %s: %+v", appointmentID, update.Status, err)
		return nil, err
	}
	if updated == nil {
		return nil, ErrAppointmentNotFound
	}

	after := u.reload(ctx, updated)
	u.recordChange(ctx, action, eventAction, caller, before, after)

	u.log.Infof("Appointment %s: id=%s, from=%s", update.Status, appointmentID, before.Status)
	return converter.AppointmentToResponse(after), nil
}

// findOwned loads an appointment; patients and doctors may only reach their own.
func (u *appointmentUsecase) findOwned(ctx context.Context, caller actor, appointmentID uuid.UUID) (*entity.Appointment, error) {
	appointment, err := u.appointmentRepo.FindByID(ctx, u.db, appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", appointmentID, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}
	if caller.isPatient() && appointment.PatientID != caller.ID {
		return nil, ErrAppointmentNotOwned
	}
	if caller.isDoctor() && appointment.DoctorID != caller.ID {
		return nil, ErrAppointmentNotOwned
	}
	return appointment, nil
}

func (u *appointmentUsecase) reload(ctx context.Context, appointment *entity.Appointment) *entity.Appointment {
	full, err := u.appointmentRepo.FindByID(ctx, u.db, appointment.ID)
	if err != nil || full == nil {
		u.log.Warnf("Failed to reload appointment %s: %+v", appointment.ID, err)
		return appointment
	}
	return full
}

// writeError maps a failed serialized write to the caller-facing error.
// Errors already carrying a kind pass through unchanged.
func (u *appointmentUsecase) writeError(ctx context.Context, err error, attempted *entity.Appointment, excludeID *uuid.UUID) error {
	if _, ok := apperror.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, repository.ErrSlotTaken), errors.Is(err, lock.ErrLockNotAcquired):
		u.log.Infof("Slot %s %s-%s of doctor %s lost to a concurrent booking", attempted.DateString(), attempted.StartTime, attempted.EndTime, attempted.DoctorID)
		return u.slotRejection(ctx, attempted.DoctorID, attempted.Date, attempted.StartTime, attempted.EndTime, excludeID)
	case errors.Is(err, repository.ErrNotReferenced):
		return ErrReferencedNotPresent
	default:
		u.log.Warnf("Failed to write appointment for doctor %s: %+v", attempted.DoctorID, err)
		return err
	}
}

// slotRejection builds the Conflict error for a slot that cannot be booked,
// carrying the evaluator's reason and conflicting appointments.
func (u *appointmentUsecase) slotRejection(ctx context.Context, doctorID uuid.UUID, date time.Time, startTime, endTime string, excludeID *uuid.UUID) error {
	result, err := u.availabilityService.CheckAvailability(ctx, doctorID, date, startTime, endTime, excludeID)
	if err != nil {
		u.log.Warnf("Failed to explain unavailable slot %s of doctor %s: %+v", startTime, doctorID, err)
		return ErrSlotNotAvailable
	}
	if result.Available {
		return ErrSlotNotAvailable.WithDetails(dto.SlotConflictDetails{Reason: "Requested start time is not one of the available slots"})
	}
	return ErrSlotNotAvailable.WithDetails(conflictDetails(result))
}

func conflictDetails(result *service.AvailabilityResult) dto.SlotConflictDetails {
	details := dto.SlotConflictDetails{Reason: result.Reason}
	if len(result.Conflicts) > 0 {
		details.Conflicts = converter.AppointmentsToResponses(result.Conflicts)
	}
	return details
}

func containsStart(slots []timeslot.Slot, startTime string) bool {
	for _, s := range slots {
		if s.StartTime == startTime {
			return true
		}
	}
	return false
}

// recordChange writes the audit row and publishes the lifecycle event. Neither
// failure is returned; both are logged.
func (u *appointmentUsecase) recordChange(ctx context.Context, action, eventAction string, caller actor, before, after *entity.Appointment) {
	entry := service.AuditEntry{
		ActorID:    &caller.ID,
		Action:     action,
		EntityName: entity.AuditEntityAppointment,
		EntityID:   after.ID.String(),
		NewValue:   appointmentSnapshot(after),
	}
	if before != nil {
		entry.OldValue = appointmentSnapshot(before)
	}
	_ = u.auditService.Record(ctx, entry)

	event := messaging.AppointmentEvent{
		Action:        eventAction,
		AppointmentID: after.ID.String(),
		DoctorID:      after.DoctorID.String(),
		PatientID:     after.PatientID.String(),
		Date:          after.DateString(),
		StartTime:     after.StartTime,
		EndTime:       after.EndTime,
		Status:        string(after.Status),
		ActorID:       caller.ID.String(),
		OccurredAt:    time.Now().UTC(),
	}
	if err := u.publisher.Publish(ctx, event); err != nil {
		u.log.Warnf("Failed to publish %s for appointment %s: %+v", event.RoutingKey(), after.ID, err)
	}
}

func appointmentSnapshot(a *entity.Appointment) map[string]interface{} {
	return map[string]interface{}{
		"status":     string(a.Status),
		"date":       a.DateString(),
		"start_time": a.StartTime,
		"end_time":   a.EndTime,
	}
}
