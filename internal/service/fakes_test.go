package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"clinic-backend/config"
	"clinic-backend/internal/domain/entity"
	"clinic-backend/internal/domain/repository"
	"clinic-backend/pkg/timeslot"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"gorm.io/gorm"
)

// appointmentStore is an in-memory AppointmentRepository that enforces the
// no-overlap invariant under a mutex, like the postgres implementation.
type appointmentStore struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]entity.Appointment
	findErr      error
}

func newAppointmentStore() *appointmentStore {
	return &appointmentStore{appointments: make(map[uuid.UUID]entity.Appointment)}
}

func (s *appointmentStore) Create(ctx context.Context, db *gorm.DB, a *entity.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = entity.AppointmentStatusScheduled
	}
	s.appointments[a.ID] = *a
	return nil
}

func (s *appointmentStore) CreateIfSlotFree(ctx context.Context, db *gorm.DB, a *entity.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.overlapLocked(a.DoctorID, a.Date, a.StartTime, a.EndTime, uuid.Nil) {
		return repository.ErrSlotTaken
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	s.appointments[a.ID] = *a
	return nil
}

func (s *appointmentStore) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (s *appointmentStore) FindByDoctorAndDateRange(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, from, to time.Time) ([]entity.Appointment, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	lo, hi := from.Format(entity.DateLayout), to.Format(entity.DateLayout)
	var out []entity.Appointment
	for _, a := range s.appointments {
		d := a.DateString()
		if a.DoctorID == doctorID && d >= lo && d <= hi {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *appointmentStore) UpdateStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, update entity.AppointmentStatusUpdate) (*entity.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok {
		return nil, nil
	}
	if !entity.CanTransition(a.Status, update.Status) {
		return nil, repository.ErrInvalidTransition
	}
	a.Status = update.Status
	switch update.Status {
	case entity.AppointmentStatusCancelled:
		at := update.At
		a.CancelReason = update.CancelReason
		a.CancelledAt = &at
	case entity.AppointmentStatusCompleted:
		at := update.At
		a.CompletedAt = &at
	}
	s.appointments[id] = a
	return &a, nil
}

func (s *appointmentStore) Reschedule(ctx context.Context, db *gorm.DB, id uuid.UUID, date time.Time, startTime, endTime string) (*entity.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok {
		return nil, nil
	}
	if a.Status != entity.AppointmentStatusScheduled && a.Status != entity.AppointmentStatusConfirmed {
		return nil, repository.ErrInvalidTransition
	}
	if s.overlapLocked(a.DoctorID, date, startTime, endTime, id) {
		return nil, repository.ErrSlotTaken
	}
	a.Date, a.StartTime, a.EndTime = date, startTime, endTime
	s.appointments[id] = a
	return &a, nil
}

func (s *appointmentStore) overlapLocked(doctorID uuid.UUID, date time.Time, start, end string, exclude uuid.UUID) bool {
	for _, a := range s.appointments {
		if a.DoctorID != doctorID || a.DateString() != date.Format(entity.DateLayout) || !a.Blocking() || a.ID == exclude {
			continue
		}
		if ok, _ := timeslot.IntervalsOverlap(a.StartTime, a.EndTime, start, end); ok {
			return true
		}
	}
	return false
}

// book inserts a blocking appointment directly.
func (s *appointmentStore) book(doctorID uuid.UUID, date time.Time, start, end string) entity.Appointment {
	a := entity.Appointment{
		ID:        uuid.New(),
		DoctorID:  doctorID,
		PatientID: uuid.New(),
		Date:      date,
		StartTime: start,
		EndTime:   end,
		Status:    entity.AppointmentStatusScheduled,
	}
	s.Create(context.Background(), nil, &a)
	return a
}

type doctorDirectory struct {
	profiles []*entity.DoctorProfile
	findErr  error
}

func (d *doctorDirectory) Create(ctx context.Context, db *gorm.DB, profile *entity.DoctorProfile) error {
	d.profiles = append(d.profiles, profile)
	return nil
}

func (d *doctorDirectory) FindByUserID(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*entity.DoctorProfile, error) {
	if d.findErr != nil {
		return nil, d.findErr
	}
	for _, p := range d.profiles {
		if p.UserID == userID {
			return p, nil
		}
	}
	return nil, nil
}

func (d *doctorDirectory) FindAllActive(ctx context.Context, db *gorm.DB, filter *entity.DoctorFilter) ([]entity.DoctorProfile, error) {
	var out []entity.DoctorProfile
	for _, p := range d.profiles {
		if !p.IsActive() {
			continue
		}
		if filter != nil && filter.Specialization != "" &&
			!strings.Contains(strings.ToLower(p.Specialization), strings.ToLower(filter.Specialization)) {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func newDoctor(specialization string, hours ...entity.WorkingHour) *entity.DoctorProfile {
	id := uuid.New()
	for i := range hours {
		hours[i].DoctorID = id
	}
	return &entity.DoctorProfile{
		UserID:         id,
		Specialization: specialization,
		User:           entity.User{ID: id, RoleID: entity.RoleIDDoctor, FirstName: "Doc"},
		WorkingHours:   hours,
	}
}

func testSchedulingConfig() config.SchedulingConfig {
	return config.SchedulingConfig{
		SlotDuration:       30,
		DefaultOpen:        "08:00",
		DefaultClose:       "17:00",
		MissingHoursPolicy: config.MissingHoursPermissive,
		SuggestDays:        7,
		SuggestLimit:       5,
		LockTTL:            time.Second,
	}
}

func newTestAvailabilityService(store *appointmentStore, dir *doctorDirectory, cfg config.SchedulingConfig) (AvailabilityService, *test.Hook) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return NewAvailabilityService(nil, log, cfg, store, dir), hook
}

// monday is 2025-10-20.
var monday = time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC)

var errDirectoryDown = errors.New("directory unavailable")

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(entity.DateLayout, s)
	if err != nil {
		t.Fatalf("bad date %q: %v", s, err)
	}
	return d
}
