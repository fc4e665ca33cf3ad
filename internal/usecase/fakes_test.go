package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"clinic-backend/config"
	"clinic-backend/internal/delivery/http/middleware"
	"clinic-backend/internal/domain/entity"
	"clinic-backend/internal/domain/repository"
	"clinic-backend/internal/infrastructure/lock"
	"clinic-backend/internal/infrastructure/messaging"
	"clinic-backend/internal/service"
	"clinic-backend/pkg/timeslot"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"gorm.io/gorm"
)

// appointmentStore keeps appointments in memory and rejects overlapping
// blocking appointments under a mutex, as the postgres repository does.
type appointmentStore struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]entity.Appointment
	users        *userDirectory
	inserts      int
}

func newAppointmentStore(users *userDirectory) *appointmentStore {
	return &appointmentStore{appointments: make(map[uuid.UUID]entity.Appointment), users: users}
}

func (s *appointmentStore) Create(ctx context.Context, db *gorm.DB, a *entity.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
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
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	s.appointments[a.ID] = *a
	s.inserts++
	return nil
}

func (s *appointmentStore) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok {
		return nil, nil
	}
	if s.users != nil {
		a.Doctor = s.users.get(a.DoctorID)
		a.Patient = s.users.get(a.PatientID)
		if a.CreatedBy != nil {
			a.Creator = s.users.get(*a.CreatedBy)
		}
	}
	return &a, nil
}

func (s *appointmentStore) FindByDoctorAndDateRange(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, from, to time.Time) ([]entity.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lo, hi := from.Format(entity.DateLayout), to.Format(entity.DateLayout)
	var out []entity.Appointment
	for _, a := range s.appointments {
		if d := a.DateString(); a.DoctorID == doctorID && d >= lo && d <= hi {
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
	at := update.At
	switch update.Status {
	case entity.AppointmentStatusCancelled:
		a.CancelReason = update.CancelReason
		a.CancelledAt = &at
	case entity.AppointmentStatusCompleted:
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
	if !a.Blocking() || a.Status.Terminal() {
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
	day := date.Format(entity.DateLayout)
	for _, a := range s.appointments {
		if a.DoctorID != doctorID || a.DateString() != day || !a.Blocking() || a.ID == exclude {
			continue
		}
		if ok, _ := timeslot.IntervalsOverlap(a.StartTime, a.EndTime, start, end); ok {
			return true
		}
	}
	return false
}

// blocking returns the doctor's blocking appointments on date.
func (s *appointmentStore) blocking(doctorID uuid.UUID, date time.Time) []entity.Appointment {
	all, _ := s.FindByDoctorAndDateRange(context.Background(), nil, doctorID, date, date)
	var out []entity.Appointment
	for _, a := range all {
		if a.Blocking() {
			out = append(out, a)
		}
	}
	return out
}

// userDirectory serves both UserRepository and DoctorProfileRepository.
type userDirectory struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*entity.User
	profiles map[uuid.UUID]*entity.DoctorProfile
}

func newUserDirectory() *userDirectory {
	return &userDirectory{users: make(map[uuid.UUID]*entity.User), profiles: make(map[uuid.UUID]*entity.DoctorProfile)}
}

func (d *userDirectory) get(id uuid.UUID) *entity.User {
	u, ok := d.users[id]
	if !ok {
		return nil
	}
	cp := *u
	return &cp
}

func (d *userDirectory) addUser(roleID int, active bool, first string) *entity.User {
	d.mu.Lock()
	defer d.mu.Unlock()
	u := &entity.User{ID: uuid.New(), RoleID: roleID, FirstName: first, LastName: "Test", Email: first + "@clinic.test", IsActive: &active}
	d.users[u.ID] = u
	return u
}

func (d *userDirectory) addDoctor(specialization string, hours ...entity.WorkingHour) *entity.DoctorProfile {
	u := d.addUser(entity.RoleIDDoctor, true, "doctor")
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range hours {
		hours[i].DoctorID = u.ID
	}
	p := &entity.DoctorProfile{UserID: u.ID, LicenseNumber: "LIC-" + u.ID.String()[:8], Specialization: specialization, User: *u, WorkingHours: hours}
	d.profiles[u.ID] = p
	return p
}

func (d *userDirectory) Create(ctx context.Context, db *gorm.DB, user *entity.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[user.ID] = user
	return nil
}

func (d *userDirectory) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.get(id), nil
}

type doctorProfiles struct{ *userDirectory }

func (p doctorProfiles) Create(ctx context.Context, db *gorm.DB, profile *entity.DoctorProfile) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.profiles[profile.UserID] = profile
	return nil
}

func (p doctorProfiles) FindByUserID(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*entity.DoctorProfile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	profile, ok := p.profiles[userID]
	if !ok {
		return nil, nil
	}
	cp := *profile
	return &cp, nil
}

func (p doctorProfiles) FindAllActive(ctx context.Context, db *gorm.DB, filter *entity.DoctorFilter) ([]entity.DoctorProfile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []entity.DoctorProfile
	for _, profile := range p.profiles {
		if !profile.IsActive() {
			continue
		}
		if filter != nil && filter.Specialization != "" && profile.Specialization != filter.Specialization {
			continue
		}
		out = append(out, *profile)
	}
	return out, nil
}

// availabilityTables applies profile edits straight onto the directory's profiles.
type availabilityTables struct {
	*userDirectory
	nextID int
}

func (t *availabilityTables) ReplaceWorkingHours(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, hours []entity.WorkingHour) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := t.profiles[doctorID]
	p.WorkingHours = nil
	for _, h := range hours {
		t.nextID++
		h.ID = t.nextID
		p.WorkingHours = append(p.WorkingHours, h)
	}
	return nil
}

func (t *availabilityTables) CreateBreakTime(ctx context.Context, db *gorm.DB, b *entity.BreakTime) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	b.ID = t.nextID
	p := t.profiles[b.DoctorID]
	p.BreakTimes = append(p.BreakTimes, *b)
	return nil
}

func (t *availabilityTables) DeleteBreakTime(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, id int) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := t.profiles[doctorID]
	for i, b := range p.BreakTimes {
		if b.ID == id {
			p.BreakTimes = append(p.BreakTimes[:i], p.BreakTimes[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (t *availabilityTables) CreateDayOff(ctx context.Context, db *gorm.DB, d *entity.DayOff) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := t.profiles[d.DoctorID]
	for _, existing := range p.DaysOff {
		if existing.Date.Equal(d.Date) {
			return repository.ErrDuplicate
		}
	}
	t.nextID++
	d.ID = t.nextID
	p.DaysOff = append(p.DaysOff, *d)
	return nil
}

func (t *availabilityTables) DeleteDayOff(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, id int) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := t.profiles[doctorID]
	for i, d := range p.DaysOff {
		if d.ID == id {
			p.DaysOff = append(p.DaysOff[:i], p.DaysOff[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

type auditRepo struct {
	mu   sync.Mutex
	logs []entity.AuditLog
}

func (r *auditRepo) Create(ctx context.Context, db *gorm.DB, log *entity.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	log.ID = int64(len(r.logs) + 1)
	r.logs = append(r.logs, *log)
	return nil
}

func (r *auditRepo) FindByEntity(ctx context.Context, db *gorm.DB, entityName, entityID string) ([]entity.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.AuditLog
	for _, l := range r.logs {
		if l.Metadata["entity"] == entityName && l.Metadata["entity_id"] == entityID {
			out = append(out, l)
		}
	}
	return out, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []messaging.AppointmentEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event messaging.AppointmentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Action
	}
	return out
}

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) Invalidate(doctorID uuid.UUID) { c.calls++ }

// fixture wires the usecases over in-memory collaborators.
type fixture struct {
	users        *userDirectory
	store        *appointmentStore
	audit        *auditRepo
	publisher    *recordingPublisher
	invalidator  *countingInvalidator
	appointments AppointmentUsecase
	availability AvailabilityUsecase
	schedules    DoctorScheduleUsecase
	doctors      DoctorProfileUsecase
	history      AuditLogUsecase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log, _ := test.NewNullLogger()
	cfg := config.SchedulingConfig{
		SlotDuration:       30,
		DefaultOpen:        "08:00",
		DefaultClose:       "17:00",
		MissingHoursPolicy: config.MissingHoursPermissive,
		SuggestDays:        7,
		SuggestLimit:       5,
		LockTTL:            time.Second,
	}

	f := &fixture{
		users:       newUserDirectory(),
		audit:       &auditRepo{},
		publisher:   &recordingPublisher{},
		invalidator: &countingInvalidator{},
	}
	f.store = newAppointmentStore(f.users)
	profiles := doctorProfiles{f.users}

	availabilityService := service.NewAvailabilityService(nil, log, cfg, f.store, profiles)
	auditService := service.NewAuditService(nil, log, f.audit)

	f.appointments = NewAppointmentUsecase(nil, log, cfg, f.store, f.users, availabilityService, auditService, lock.NewLocalLocker(), f.publisher)
	f.availability = NewAvailabilityUsecase(nil, log, f.users, availabilityService)
	f.schedules = NewDoctorScheduleUsecase(nil, log, profiles, &availabilityTables{userDirectory: f.users}, f.invalidator, auditService)
	f.doctors = NewDoctorProfileUsecase(nil, log, profiles)
	f.history = NewAuditLogUsecase(nil, log, f.store, auditService)
	return f
}

func asUser(u *entity.User) context.Context {
	return middleware.ContextWithUser(context.Background(), u.ID, u.RoleID)
}

func nineToFive(day string) entity.WorkingHour {
	return entity.WorkingHour{Day: day, OpenTime: "09:00", CloseTime: "17:00"}
}

// monday is 2025-10-20.
const monday = "2025-10-20"

var mondayDate = time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC)
