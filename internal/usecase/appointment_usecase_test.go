package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"clinic-backend/internal/delivery/dto"
	"clinic-backend/internal/domain/entity"
	"clinic-backend/pkg/apperror"

	"github.com/google/uuid"
)

type bookingScene struct {
	*fixture
	admin   *entity.User
	patient *entity.User
	doctor  *entity.DoctorProfile
}

func newBookingScene(t *testing.T) *bookingScene {
	f := newFixture(t)
	return &bookingScene{
		fixture: f,
		admin:   f.users.addUser(entity.RoleIDAdmin, true, "admin"),
		patient: f.users.addUser(entity.RoleIDPatient, true, "patient"),
		doctor:  f.users.addDoctor("cardiology", nineToFive(entity.Monday)),
	}
}

func (s *bookingScene) book(t *testing.T, start string) *dto.AppointmentResponse {
	t.Helper()
	res, err := s.appointments.CreateAppointment(asUser(s.admin), &dto.CreateAppointmentRequest{
		DoctorID:  s.doctor.UserID,
		PatientID: s.patient.ID,
		Date:      monday,
		StartTime: start,
	})
	if err != nil {
		t.Fatalf("booking %s: unexpected error: %v", start, err)
	}
	return res
}

func conflictOf(t *testing.T, err error) dto.SlotConflictDetails {
	t.Helper()
	if !errors.Is(err, ErrSlotNotAvailable) {
		t.Fatalf("err = %v, want ErrSlotNotAvailable", err)
	}
	appErr, _ := apperror.As(err)
	details, ok := appErr.Details.(dto.SlotConflictDetails)
	if !ok {
		t.Fatalf("details = %#v, want SlotConflictDetails", appErr.Details)
	}
	return details
}

func TestCreateAppointment_BooksSlot(t *testing.T) {
	s := newBookingScene(t)

	res := s.book(t, "09:00")

	if res.Status != string(entity.AppointmentStatusScheduled) {
		t.Errorf("status = %s, want scheduled", res.Status)
	}
	if res.EndTime != "09:30" || res.Duration != 30 {
		t.Errorf("interval = %s-%s (%d), want 09:00-09:30 (30)", res.StartTime, res.EndTime, res.Duration)
	}
	if res.Type != entity.AppointmentTypeConsultation {
		t.Errorf("type = %q, want default consultation", res.Type)
	}
	if res.Doctor == nil || res.Patient == nil || res.Creator == nil {
		t.Fatalf("display fields missing: %+v", res)
	}
	if res.Creator.ID != s.admin.ID {
		t.Errorf("creator = %s, want admin %s", res.Creator.ID, s.admin.ID)
	}
	if got := s.publisher.actions(); len(got) != 1 || got[0] != "created" {
		t.Errorf("events = %v, want [created]", got)
	}
	if len(s.audit.logs) != 1 || s.audit.logs[0].Action != entity.AuditActionAppointmentCreate {
		t.Errorf("audit logs = %+v", s.audit.logs)
	}
}

func TestCreateAppointment_PatientBooksForThemselves(t *testing.T) {
	s := newBookingScene(t)

	res, err := s.appointments.CreateAppointment(asUser(s.patient), &dto.CreateAppointmentRequest{
		DoctorID: s.doctor.UserID, Date: monday, StartTime: "10:00",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.PatientID != s.patient.ID {
		t.Errorf("patient = %s, want caller %s", res.PatientID, s.patient.ID)
	}

	other := s.users.addUser(entity.RoleIDPatient, true, "other")
	_, err = s.appointments.CreateAppointment(asUser(s.patient), &dto.CreateAppointmentRequest{
		DoctorID: s.doctor.UserID, PatientID: other.ID, Date: monday, StartTime: "11:00",
	})
	if !errors.Is(err, ErrBookForOtherPatient) {
		t.Fatalf("err = %v, want ErrBookForOtherPatient", err)
	}
}

func TestCreateAppointment_ValidatesParticipants(t *testing.T) {
	s := newBookingScene(t)
	inactive := s.users.addUser(entity.RoleIDPatient, false, "inactive")

	tests := []struct {
		name      string
		doctorID  uuid.UUID
		patientID uuid.UUID
		want      error
		kind      apperror.Kind
	}{
		{"unknown doctor", uuid.New(), s.patient.ID, ErrDoctorNotFound, apperror.KindNotFound},
		{"unknown patient", s.doctor.UserID, uuid.New(), ErrPatientNotFound, apperror.KindNotFound},
		{"patient as doctor", s.patient.ID, s.patient.ID, ErrNotADoctor, apperror.KindBadRequest},
		{"doctor as patient", s.doctor.UserID, s.doctor.UserID, ErrNotAPatient, apperror.KindBadRequest},
		{"inactive patient", s.doctor.UserID, inactive.ID, ErrPatientInactive, apperror.KindBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.appointments.CreateAppointment(asUser(s.admin), &dto.CreateAppointmentRequest{
				DoctorID: tt.doctorID, PatientID: tt.patientID, Date: monday, StartTime: "09:00",
			})
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if apperror.KindOf(err) != tt.kind {
				t.Errorf("kind = %s, want %s", apperror.KindOf(err), tt.kind)
			}
		})
	}

	if s.store.inserts != 0 {
		t.Errorf("failed bookings wrote %d rows", s.store.inserts)
	}
}

func TestCreateAppointment_InvalidFormat(t *testing.T) {
	s := newBookingScene(t)

	for _, req := range []dto.CreateAppointmentRequest{
		{DoctorID: s.doctor.UserID, PatientID: s.patient.ID, Date: "20-10-2025", StartTime: "09:00"},
		{DoctorID: s.doctor.UserID, PatientID: s.patient.ID, Date: monday, StartTime: "9:00"},
	} {
		_, err := s.appointments.CreateAppointment(asUser(s.admin), &req)
		if apperror.KindOf(err) != apperror.KindInvalidFormat {
			t.Errorf("%s %s: err = %v, want invalid_format", req.Date, req.StartTime, err)
		}
	}
}

func TestCreateAppointment_RejectsStaleSlot(t *testing.T) {
	s := newBookingScene(t)
	first := s.book(t, "09:00")

	_, err := s.appointments.CreateAppointment(asUser(s.admin), &dto.CreateAppointmentRequest{
		DoctorID: s.doctor.UserID, PatientID: s.patient.ID, Date: monday, StartTime: "09:00",
	})

	details := conflictOf(t, err)
	if len(details.Conflicts) != 1 || details.Conflicts[0].ID != first.ID {
		t.Fatalf("conflicts = %+v, want the existing appointment", details.Conflicts)
	}
	if apperror.KindOf(err) != apperror.KindConflict {
		t.Errorf("kind = %s, want conflict", apperror.KindOf(err))
	}
}

func TestCreateAppointment_RejectsOffGridAndOutsideHours(t *testing.T) {
	s := newBookingScene(t)

	_, err := s.appointments.CreateAppointment(asUser(s.admin), &dto.CreateAppointmentRequest{
		DoctorID: s.doctor.UserID, PatientID: s.patient.ID, Date: monday, StartTime: "09:10",
	})
	if details := conflictOf(t, err); details.Reason == "" {
		t.Error("off-grid rejection carries no reason")
	}

	_, err = s.appointments.CreateAppointment(asUser(s.admin), &dto.CreateAppointmentRequest{
		DoctorID: s.doctor.UserID, PatientID: s.patient.ID, Date: monday, StartTime: "18:00",
	})
	if details := conflictOf(t, err); details.Reason != "Requested time is outside working hours (09:00-17:00)" {
		t.Errorf("reason = %q", details.Reason)
	}
}

func TestCancel_FreesSlot(t *testing.T) {
	s := newBookingScene(t)
	booked := s.book(t, "09:00")

	cancelled, err := s.appointments.Cancel(asUser(s.patient), booked.ID, &dto.CancelAppointmentRequest{Reason: "feeling better"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled.Status != string(entity.AppointmentStatusCancelled) || cancelled.CancelReason != "feeling better" || cancelled.CancelledAt == nil {
		t.Fatalf("cancelled = %+v", cancelled)
	}

	check, err := s.availability.CheckAvailability(asUser(s.admin), s.doctor.UserID, &dto.AvailabilityCheckQuery{Date: monday, StartTime: "09:00", EndTime: "09:30"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !check.Available {
		t.Fatalf("slot still unavailable after cancel: %s", check.Reason)
	}

	s.book(t, "09:00")
}

func TestTransitions(t *testing.T) {
	s := newBookingScene(t)
	ctx := asUser(s.admin)

	a := s.book(t, "09:00")
	if _, err := s.appointments.Confirm(ctx, a.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	done, err := s.appointments.Complete(ctx, a.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.CompletedAt == nil {
		t.Error("completed_at not set")
	}

	for name, call := range map[string]func() error{
		"cancel":  func() error { _, err := s.appointments.Cancel(ctx, a.ID, &dto.CancelAppointmentRequest{}); return err },
		"confirm": func() error { _, err := s.appointments.Confirm(ctx, a.ID); return err },
		"no-show": func() error { _, err := s.appointments.MarkNoShow(ctx, a.ID); return err },
	} {
		if err := call(); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("%s after complete: err = %v, want ErrInvalidTransition", name, err)
		}
	}

	b := s.book(t, "10:00")
	if _, err := s.appointments.MarkNoShow(ctx, b.ID); err != nil {
		t.Fatalf("no-show: %v", err)
	}
	if _, err := s.appointments.Complete(ctx, b.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("complete after no-show: err = %v", err)
	}
	s.book(t, "10:00")

	if _, err := s.appointments.Complete(ctx, uuid.New()); !errors.Is(err, ErrAppointmentNotFound) {
		t.Errorf("complete unknown: err = %v, want ErrAppointmentNotFound", err)
	}
	if _, err := s.appointments.Cancel(ctx, uuid.New(), &dto.CancelAppointmentRequest{}); apperror.KindOf(err) != apperror.KindNotFound {
		t.Errorf("cancel unknown: kind = %s, want not_found", apperror.KindOf(err))
	}
}

func TestCreateAppointment_ConcurrentBookingsOfOneSlot(t *testing.T) {
	s := newBookingScene(t)

	const n = 20
	patients := make([]*entity.User, n)
	for i := range patients {
		patients[i] = s.users.addUser(entity.RoleIDPatient, true, "patient")
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.appointments.CreateAppointment(asUser(s.admin), &dto.CreateAppointmentRequest{
				DoctorID: s.doctor.UserID, PatientID: patients[i].ID, Date: monday, StartTime: "09:00",
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case !errors.Is(err, ErrSlotNotAvailable):
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("%d bookings succeeded, want exactly 1", succeeded)
	}
	if got := len(s.store.blocking(s.doctor.UserID, mondayDate)); got != 1 {
		t.Fatalf("%d blocking appointments stored, want 1", got)
	}
}

func TestReschedule(t *testing.T) {
	s := newBookingScene(t)
	ctx := asUser(s.admin)

	a := s.book(t, "09:00")
	s.book(t, "10:00")

	_, err := s.appointments.Reschedule(ctx, a.ID, &dto.RescheduleAppointmentRequest{Date: monday, StartTime: "10:00"})
	conflictOf(t, err)

	// Free but not on the slot grid, or outside working hours.
	for _, start := range []string{"09:07", "17:00", "08:30"} {
		_, err := s.appointments.Reschedule(ctx, a.ID, &dto.RescheduleAppointmentRequest{Date: monday, StartTime: start})
		conflictOf(t, err)
	}

	// Its own current slot does not block it.
	if _, err := s.appointments.Reschedule(ctx, a.ID, &dto.RescheduleAppointmentRequest{Date: monday, StartTime: "09:00"}); err != nil {
		t.Fatalf("same slot: unexpected error: %v", err)
	}

	moved, err := s.appointments.Reschedule(ctx, a.ID, &dto.RescheduleAppointmentRequest{Date: monday, StartTime: "09:30"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if moved.StartTime != "09:30" || moved.EndTime != "10:00" {
		t.Errorf("moved to %s-%s, want 09:30-10:00", moved.StartTime, moved.EndTime)
	}

	if _, err := s.appointments.Cancel(ctx, a.ID, &dto.CancelAppointmentRequest{}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := s.appointments.Reschedule(ctx, a.ID, &dto.RescheduleAppointmentRequest{Date: monday, StartTime: "11:00"}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("reschedule cancelled: err = %v, want ErrInvalidTransition", err)
	}

	got := s.publisher.actions()
	want := []string{"created", "created", "rescheduled", "rescheduled", "cancelled"}
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("events[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestGetAppointment_PatientSeesOnlyOwn(t *testing.T) {
	s := newBookingScene(t)
	a := s.book(t, "09:00")

	if _, err := s.appointments.GetAppointment(asUser(s.patient), a.ID); err != nil {
		t.Fatalf("owner: unexpected error: %v", err)
	}

	stranger := s.users.addUser(entity.RoleIDPatient, true, "stranger")
	_, err := s.appointments.GetAppointment(asUser(stranger), a.ID)
	if !errors.Is(err, ErrAppointmentNotOwned) || apperror.KindOf(err) != apperror.KindForbidden {
		t.Fatalf("err = %v, want ErrAppointmentNotOwned", err)
	}

	if _, err := s.appointments.GetAppointment(context.Background(), a.ID); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("err = %v, want ErrUnauthenticated", err)
	}
}

func TestDoctorReachesOnlyOwnAppointments(t *testing.T) {
	s := newBookingScene(t)
	a := s.book(t, "09:00")
	other := s.users.addDoctor("dermatology", nineToFive(entity.Monday))
	otherCtx := asUser(&other.User)

	if _, err := s.appointments.Confirm(otherCtx, a.ID); !errors.Is(err, ErrAppointmentNotOwned) {
		t.Fatalf("confirm by other doctor: err = %v, want ErrAppointmentNotOwned", err)
	}
	if _, err := s.appointments.GetAppointment(otherCtx, a.ID); !errors.Is(err, ErrAppointmentNotOwned) {
		t.Fatalf("get by other doctor: err = %v, want ErrAppointmentNotOwned", err)
	}
	_, err := s.appointments.ListDoctorDay(otherCtx, s.doctor.UserID, monday)
	if !errors.Is(err, ErrNotOwnDay) || apperror.KindOf(err) != apperror.KindForbidden {
		t.Fatalf("list other doctor's day: err = %v, want ErrNotOwnDay", err)
	}

	ownCtx := asUser(&s.doctor.User)
	confirmed, err := s.appointments.Confirm(ownCtx, a.ID)
	if err != nil {
		t.Fatalf("confirm by own doctor: %v", err)
	}
	if confirmed.Status != string(entity.AppointmentStatusConfirmed) {
		t.Errorf("status = %s, want confirmed", confirmed.Status)
	}
	day, err := s.appointments.ListDoctorDay(ownCtx, s.doctor.UserID, monday)
	if err != nil {
		t.Fatalf("list own day: %v", err)
	}
	if day.Total != 1 {
		t.Errorf("total = %d, want 1", day.Total)
	}
}

func TestListDoctorDay_IncludesEveryStatus(t *testing.T) {
	s := newBookingScene(t)
	ctx := asUser(s.admin)

	a := s.book(t, "09:00")
	s.book(t, "09:30")
	if _, err := s.appointments.Cancel(ctx, a.ID, &dto.CancelAppointmentRequest{}); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	list, err := s.appointments.ListDoctorDay(ctx, s.doctor.UserID, monday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if list.Total != 2 {
		t.Fatalf("total = %d, want 2", list.Total)
	}

	empty, err := s.appointments.ListDoctorDay(ctx, s.doctor.UserID, "2025-10-21")
	if err != nil || empty.Total != 0 {
		t.Fatalf("next day = %+v, %v", empty, err)
	}
}

func TestAppointmentHistory(t *testing.T) {
	s := newBookingScene(t)
	ctx := asUser(s.admin)

	a := s.book(t, "09:00")
	if _, err := s.appointments.Cancel(ctx, a.ID, &dto.CancelAppointmentRequest{Reason: "clash"}); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	history, err := s.history.GetAppointmentHistory(ctx, a.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if history.Total != 2 {
		t.Fatalf("total = %d, want 2", history.Total)
	}
	if history.Logs[1].Action != entity.AuditActionAppointmentCancel {
		t.Errorf("second action = %s", history.Logs[1].Action)
	}

	if _, err := s.history.GetAppointmentHistory(ctx, uuid.New()); !errors.Is(err, ErrAppointmentNotFound) {
		t.Errorf("unknown appointment: err = %v", err)
	}
}
