package service

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"time"

	"clinic-backend/config"
	"clinic-backend/internal/domain/entity"
	"clinic-backend/internal/domain/repository"
	"clinic-backend/pkg/apperror"
	"clinic-backend/pkg/timeslot"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrInvalidTime      = apperror.InvalidFormat("invalid time format, use HH:MM")
	ErrInvalidTimeRange = apperror.InvalidFormat("start time must be before end time")
	ErrPartialInterval  = apperror.InvalidFormat("start time and end time must be given together")
	ErrInvalidDuration  = apperror.InvalidFormat("slot duration must be positive")
)

// AvailabilityResult is the outcome of checking one interval. Reason is empty when Available.
type AvailabilityResult struct {
	Available bool                 `json:"available"`
	Reason    string               `json:"reason,omitempty"`
	Conflicts []entity.Appointment `json:"conflicts,omitempty"`
}

// DoctorAvailability pairs a doctor with the free slots found for them.
type DoctorAvailability struct {
	Doctor entity.DoctorProfile
	Slots  []timeslot.Slot
}

// AlternativeSlot is a free slot suggested instead of a rejected one.
type AlternativeSlot struct {
	Date string
	timeslot.Slot
}

// FleetQuery selects the doctors and interval of a fleet search.
// StartTime and EndTime are either both set or both empty.
type FleetQuery struct {
	Date           time.Time
	StartTime      string
	EndTime        string
	Specialization string
}

type AvailabilityService interface {
	CheckAvailability(ctx context.Context, doctorID uuid.UUID, date time.Time, startTime, endTime string, excludeID *uuid.UUID) (*AvailabilityResult, error)
	AvailableSlots(ctx context.Context, doctorID uuid.UUID, date time.Time, slotDuration int) (iter.Seq[timeslot.Slot], error)
	GetAvailableSlots(ctx context.Context, doctorID uuid.UUID, date time.Time, slotDuration int) ([]timeslot.Slot, error)
	GetAvailableSlotsExcluding(ctx context.Context, doctorID uuid.UUID, date time.Time, slotDuration int, excludeID *uuid.UUID) ([]timeslot.Slot, error)
	FindAvailableDoctors(ctx context.Context, query FleetQuery) ([]DoctorAvailability, error)
	SuggestAlternativeSlots(ctx context.Context, doctorID uuid.UUID, date time.Time, startTime string, limit int) ([]AlternativeSlot, error)
}

type availabilityService struct {
	db              *gorm.DB
	log             *logrus.Logger
	cfg             config.SchedulingConfig
	appointmentRepo repository.AppointmentRepository
	doctorRepo      repository.DoctorProfileRepository
}

func NewAvailabilityService(
	db *gorm.DB,
	log *logrus.Logger,
	cfg config.SchedulingConfig,
	appointmentRepo repository.AppointmentRepository,
	doctorRepo repository.DoctorProfileRepository,
) AvailabilityService {
	return &availabilityService{
		db:              db,
		log:             log,
		cfg:             cfg,
		appointmentRepo: appointmentRepo,
		doctorRepo:      doctorRepo,
	}
}

// interval is a half-open [start, end) range in minutes since midnight.
type interval struct {
	start, end int
}

func (iv interval) overlaps(other interval) bool {
	return timeslot.Overlaps(iv.start, iv.end, other.start, other.end)
}

func parseInterval(startTime, endTime string) (interval, error) {
	start, err := timeslot.TimeToMinutes(startTime)
	if err != nil {
		return interval{}, ErrInvalidTime.WithDetails(map[string]string{"time": startTime})
	}
	end, err := timeslot.TimeToMinutes(endTime)
	if err != nil {
		return interval{}, ErrInvalidTime.WithDetails(map[string]string{"time": endTime})
	}
	if start >= end {
		return interval{}, ErrInvalidTimeRange
	}
	return interval{start: start, end: end}, nil
}

// CheckAvailability runs, in order, the overlap, working-hours, break-time and day-off
// checks and stops at the first one that fails.
func (s *availabilityService) CheckAvailability(ctx context.Context, doctorID uuid.UUID, date time.Time, startTime, endTime string, excludeID *uuid.UUID) (*AvailabilityResult, error) {
	requested, err := parseInterval(startTime, endTime)
	if err != nil {
		return nil, err
	}

	profile := s.lookupProfile(ctx, doctorID, date)
	return s.check(ctx, doctorID, profile, date, requested, excludeID)
}

func (s *availabilityService) check(ctx context.Context, doctorID uuid.UUID, profile *entity.DoctorProfile, date time.Time, requested interval, excludeID *uuid.UUID) (*AvailabilityResult, error) {
	blocking, err := s.blockingAppointments(ctx, doctorID, date, excludeID)
	if err != nil {
		return nil, err
	}

	var conflicts []entity.Appointment
	for _, a := range blocking {
		if a.span.overlaps(requested) {
			conflicts = append(conflicts, a.Appointment)
		}
	}
	if len(conflicts) > 0 {
		return &AvailabilityResult{
			Available: false,
			Reason:    fmt.Sprintf("Time slot conflicts with %d existing appointment(s)", len(conflicts)),
			Conflicts: conflicts,
		}, nil
	}

	if profile == nil {
		return &AvailabilityResult{Available: true}, nil
	}

	if reason := s.profileRejects(profile, date, requested); reason != "" {
		return &AvailabilityResult{Available: false, Reason: reason}, nil
	}
	return &AvailabilityResult{Available: true}, nil
}

// profileRejects returns why the doctor's availability profile excludes requested, or "".
func (s *availabilityService) profileRejects(profile *entity.DoctorProfile, date time.Time, requested interval) string {
	day := entity.WeekdayOf(date)

	if wh := profile.WorkingHourFor(day); wh != nil {
		if wh.IsClosed {
			return fmt.Sprintf("Doctor does not work on %s", day)
		}
		if window, ok := s.workingWindow(profile.UserID, wh); ok {
			if !timeslot.Within(requested.start, requested.end, window.start, window.end) {
				return fmt.Sprintf("Requested time is outside working hours (%s-%s)", wh.OpenTime, wh.CloseTime)
			}
		}
	} else if s.cfg.MissingHoursPolicy == config.MissingHoursDefaultWindow {
		window := s.defaultWindow()
		if !timeslot.Within(requested.start, requested.end, window.start, window.end) {
			return fmt.Sprintf("Requested time is outside working hours (%s-%s)", s.cfg.DefaultOpen, s.cfg.DefaultClose)
		}
	}

	for _, b := range profile.BreaksFor(day) {
		span, err := parseInterval(b.StartTime, b.EndTime)
		if err != nil {
			s.log.Warnf("Ignoring malformed break %s-%s of doctor %s: %+v", b.StartTime, b.EndTime, profile.UserID, err)
			continue
		}
		if span.overlaps(requested) {
			return fmt.Sprintf("Requested time overlaps break time (%s-%s)", b.StartTime, b.EndTime)
		}
	}

	if off := profile.DayOffOn(date); off != nil {
		if off.Reason != "" {
			return fmt.Sprintf("Doctor is off on %s: %s", date.Format(entity.DateLayout), off.Reason)
		}
		return fmt.Sprintf("Doctor is off on %s", date.Format(entity.DateLayout))
	}

	return ""
}

// AvailableSlots returns the doctor's free fixed-duration slots on date, in time order.
// Appointments are read once when called; the sequence filters lazily and can be ranged over repeatedly.
func (s *availabilityService) AvailableSlots(ctx context.Context, doctorID uuid.UUID, date time.Time, slotDuration int) (iter.Seq[timeslot.Slot], error) {
	profile := s.lookupProfile(ctx, doctorID, date)
	return s.slots(ctx, doctorID, profile, date, slotDuration, nil)
}

func (s *availabilityService) GetAvailableSlots(ctx context.Context, doctorID uuid.UUID, date time.Time, slotDuration int) ([]timeslot.Slot, error) {
	seq, err := s.AvailableSlots(ctx, doctorID, date, slotDuration)
	if err != nil {
		return nil, err
	}
	return collectSlots(seq), nil
}

// GetAvailableSlotsExcluding enumerates slots as if excludeID were not booked.
// Rescheduling uses it so an appointment does not block its own new position.
func (s *availabilityService) GetAvailableSlotsExcluding(ctx context.Context, doctorID uuid.UUID, date time.Time, slotDuration int, excludeID *uuid.UUID) ([]timeslot.Slot, error) {
	profile := s.lookupProfile(ctx, doctorID, date)
	seq, err := s.slots(ctx, doctorID, profile, date, slotDuration, excludeID)
	if err != nil {
		return nil, err
	}
	return collectSlots(seq), nil
}

func (s *availabilityService) slots(ctx context.Context, doctorID uuid.UUID, profile *entity.DoctorProfile, date time.Time, slotDuration int, excludeID *uuid.UUID) (iter.Seq[timeslot.Slot], error) {
	if slotDuration == 0 {
		slotDuration = s.cfg.SlotDuration
	}
	if slotDuration < 0 {
		return nil, ErrInvalidDuration
	}

	window := s.defaultWindow()
	var breaks []interval
	if profile != nil {
		day := entity.WeekdayOf(date)
		if profile.DayOffOn(date) != nil {
			return emptySlots, nil
		}
		if wh := profile.WorkingHourFor(day); wh != nil {
			if wh.IsClosed {
				return emptySlots, nil
			}
			if w, ok := s.workingWindow(profile.UserID, wh); ok {
				window = w
			}
		}
		for _, b := range profile.BreaksFor(day) {
			if span, err := parseInterval(b.StartTime, b.EndTime); err == nil {
				breaks = append(breaks, span)
			}
		}
	}

	blocking, err := s.blockingAppointments(ctx, doctorID, date, excludeID)
	if err != nil {
		return nil, err
	}

	start, _ := timeslot.MinutesToTime(window.start)
	end, _ := timeslot.MinutesToTime(window.end)
	candidates, err := timeslot.Range(start, end, slotDuration, 0)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInvalidFormat, "invalid slot window", err)
	}

	return func(yield func(timeslot.Slot) bool) {
		for slot := range candidates {
			span, err := parseInterval(slot.StartTime, slot.EndTime)
			if err != nil {
				return
			}
			if overlapsAny(span, breaks) || overlapsAnyAppointment(span, blocking) {
				continue
			}
			if !yield(slot) {
				return
			}
		}
	}, nil
}

// FindAvailableDoctors searches every active doctor, optionally filtered by specialization.
// With an interval it keeps doctors free for exactly that interval; without one it keeps
// doctors with at least one free slot that day. Order follows the directory.
func (s *availabilityService) FindAvailableDoctors(ctx context.Context, query FleetQuery) ([]DoctorAvailability, error) {
	hasStart, hasEnd := query.StartTime != "", query.EndTime != ""
	if hasStart != hasEnd {
		return nil, ErrPartialInterval
	}

	var requested interval
	if hasStart {
		var err error
		if requested, err = parseInterval(query.StartTime, query.EndTime); err != nil {
			return nil, err
		}
	}

	doctors, err := s.doctorRepo.FindAllActive(ctx, s.db, &entity.DoctorFilter{Specialization: query.Specialization})
	if err != nil {
		s.log.Warnf("Failed to list active doctors: %+v", err)
		return nil, err
	}

	var results []DoctorAvailability
	for i := range doctors {
		doctor := &doctors[i]

		if hasStart {
			res, err := s.check(ctx, doctor.UserID, doctor, query.Date, requested, nil)
			if err != nil {
				return nil, err
			}
			if res.Available {
				results = append(results, DoctorAvailability{
					Doctor: *doctor,
					Slots:  []timeslot.Slot{{StartTime: query.StartTime, EndTime: query.EndTime, Duration: requested.end - requested.start}},
				})
			}
			continue
		}

		seq, err := s.slots(ctx, doctor.UserID, doctor, query.Date, 0, nil)
		if err != nil {
			return nil, err
		}
		if free := collectSlots(seq); len(free) > 0 {
			results = append(results, DoctorAvailability{Doctor: *doctor, Slots: free})
		}
	}

	return results, nil
}

// SuggestAlternativeSlots offers free slots of the configured duration: first on date,
// nearest to startTime, then on the following days in time order, up to limit.
func (s *availabilityService) SuggestAlternativeSlots(ctx context.Context, doctorID uuid.UUID, date time.Time, startTime string, limit int) ([]AlternativeSlot, error) {
	requested, err := timeslot.TimeToMinutes(startTime)
	if err != nil {
		return nil, ErrInvalidTime.WithDetails(map[string]string{"time": startTime})
	}
	if limit <= 0 {
		limit = s.cfg.SuggestLimit
	}

	profile := s.lookupProfile(ctx, doctorID, date)

	seq, err := s.slots(ctx, doctorID, profile, date, 0, nil)
	if err != nil {
		return nil, err
	}
	sameDay := collectSlots(seq)
	slices.SortStableFunc(sameDay, func(a, b timeslot.Slot) int {
		return distance(a, requested) - distance(b, requested)
	})

	day := date.Format(entity.DateLayout)
	suggestions := make([]AlternativeSlot, 0, limit)
	for _, slot := range sameDay {
		if len(suggestions) == limit {
			return suggestions, nil
		}
		suggestions = append(suggestions, AlternativeSlot{Date: day, Slot: slot})
	}

	for offset := 1; offset <= s.cfg.SuggestDays && len(suggestions) < limit; offset++ {
		next := date.AddDate(0, 0, offset)
		seq, err := s.slots(ctx, doctorID, profile, next, 0, nil)
		if err != nil {
			return nil, err
		}
		nextDay := next.Format(entity.DateLayout)
		for slot := range seq {
			suggestions = append(suggestions, AlternativeSlot{Date: nextDay, Slot: slot})
			if len(suggestions) == limit {
				break
			}
		}
	}

	return suggestions, nil
}

// lookupProfile treats a failed or empty directory lookup as "no constraint".
func (s *availabilityService) lookupProfile(ctx context.Context, doctorID uuid.UUID, date time.Time) *entity.DoctorProfile {
	profile, err := s.doctorRepo.FindByUserID(ctx, s.db, doctorID)
	fields := logrus.Fields{"doctor_id": doctorID, "date": date.Format(entity.DateLayout)}
	if err != nil {
		s.log.WithFields(fields).Warnf("Doctor profile lookup failed, applying no availability constraints: %+v", err)
		return nil
	}
	if profile == nil {
		s.log.WithFields(fields).Warn("Doctor profile not found, applying no availability constraints")
	}
	return profile
}

type blockingAppointment struct {
	entity.Appointment
	span interval
}

func (s *availabilityService) blockingAppointments(ctx context.Context, doctorID uuid.UUID, date time.Time, excludeID *uuid.UUID) ([]blockingAppointment, error) {
	appointments, err := s.appointmentRepo.FindByDoctorAndDateRange(ctx, s.db, doctorID, date, date)
	if err != nil {
		s.log.Warnf("Failed to load appointments of doctor %s on %s: %+v", doctorID, date.Format(entity.DateLayout), err)
		return nil, err
	}

	blocking := make([]blockingAppointment, 0, len(appointments))
	for _, a := range appointments {
		if !a.Blocking() || (excludeID != nil && a.ID == *excludeID) {
			continue
		}
		span, err := parseInterval(a.StartTime, a.EndTime)
		if err != nil {
			s.log.Warnf("Appointment %s has malformed interval %s-%s: %+v", a.ID, a.StartTime, a.EndTime, err)
			continue
		}
		blocking = append(blocking, blockingAppointment{Appointment: a, span: span})
	}
	return blocking, nil
}

func (s *availabilityService) workingWindow(doctorID uuid.UUID, wh *entity.WorkingHour) (interval, bool) {
	window, err := parseInterval(wh.OpenTime, wh.CloseTime)
	if err != nil {
		s.log.Warnf("Ignoring malformed %s working hours %s-%s of doctor %s: %+v", wh.Day, wh.OpenTime, wh.CloseTime, doctorID, err)
		return interval{}, false
	}
	return window, true
}

// defaultWindow is validated when config loads.
func (s *availabilityService) defaultWindow() interval {
	open, _ := timeslot.TimeToMinutes(s.cfg.DefaultOpen)
	closeAt, _ := timeslot.TimeToMinutes(s.cfg.DefaultClose)
	return interval{start: open, end: closeAt}
}

func overlapsAny(span interval, others []interval) bool {
	for _, o := range others {
		if span.overlaps(o) {
			return true
		}
	}
	return false
}

func overlapsAnyAppointment(span interval, blocking []blockingAppointment) bool {
	for _, a := range blocking {
		if span.overlaps(a.span) {
			return true
		}
	}
	return false
}

func distance(slot timeslot.Slot, minute int) int {
	start, _ := timeslot.TimeToMinutes(slot.StartTime)
	if start < minute {
		return minute - start
	}
	return start - minute
}

func collectSlots(seq iter.Seq[timeslot.Slot]) []timeslot.Slot {
	slots := slices.Collect(seq)
	if slots == nil {
		return []timeslot.Slot{}
	}
	return slots
}

func emptySlots(func(timeslot.Slot) bool) {}
