package entity

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus represents the lifecycle state of an appointment
type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusNoShow    AppointmentStatus = "no-show"
)

// Common appointment types. Type is free-form; consultation is the default.
const (
	AppointmentTypeConsultation = "consultation"
	AppointmentTypeFollowUp     = "follow-up"
	AppointmentTypeEmergency    = "emergency"
)

// DateLayout is the calendar date format used on the wire and in day-off lists.
const DateLayout = "2006-01-02"

// Appointment is a booked slot between a doctor and a patient.
// Rows are never deleted; the lifecycle is carried by Status.
type Appointment struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	DoctorID     uuid.UUID         `gorm:"type:uuid;not null;index:idx_appointments_doctor_date" json:"doctor_id"`
	PatientID    uuid.UUID         `gorm:"type:uuid;not null;index" json:"patient_id"`
	Date         time.Time         `gorm:"type:date;not null;index:idx_appointments_doctor_date" json:"date"`
	StartTime    string            `gorm:"type:varchar(5);not null" json:"start_time"`
	EndTime      string            `gorm:"type:varchar(5);not null" json:"end_time"`
	Duration     int               `gorm:"not null" json:"duration"`
	Status       AppointmentStatus `gorm:"type:varchar(20);not null;default:'scheduled';index" json:"status"`
	Type         string            `gorm:"type:varchar(50);not null;default:'consultation'" json:"type"`
	Notes        string            `gorm:"type:text" json:"notes,omitempty"`
	CancelReason string            `gorm:"type:text" json:"cancel_reason,omitempty"`
	CancelledAt  *time.Time        `json:"cancelled_at,omitempty"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
	CreatedBy    *uuid.UUID        `gorm:"type:uuid" json:"created_by,omitempty"`
	CreatedAt    time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Doctor  *User `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
	Patient *User `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Creator *User `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// Blocking reports whether the appointment occupies its interval.
// Cancelled and no-show appointments free the slot.
func (a *Appointment) Blocking() bool {
	return a.Status.Blocking()
}

// DateString returns the appointment date as YYYY-MM-DD.
func (a *Appointment) DateString() string {
	return a.Date.Format(DateLayout)
}

// Blocking reports whether appointments in this status hold their slot.
func (s AppointmentStatus) Blocking() bool {
	return s != AppointmentStatusCancelled && s != AppointmentStatusNoShow
}

// Terminal reports whether no further transition is allowed out of s.
func (s AppointmentStatus) Terminal() bool {
	switch s {
	case AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusNoShow:
		return true
	}
	return false
}

// allowedFrom lists the source statuses for each target status.
var allowedFrom = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusConfirmed: {AppointmentStatusScheduled},
	AppointmentStatusCompleted: {AppointmentStatusScheduled, AppointmentStatusConfirmed},
	AppointmentStatusCancelled: {AppointmentStatusScheduled, AppointmentStatusConfirmed},
	AppointmentStatusNoShow:    {AppointmentStatusScheduled, AppointmentStatusConfirmed},
}

// TransitionSources returns the statuses an appointment may move to target from.
// Nil means target is not reachable by a transition.
func TransitionSources(target AppointmentStatus) []AppointmentStatus {
	return allowedFrom[target]
}

// CanTransition reports whether from -> to is a valid lifecycle move.
func CanTransition(from, to AppointmentStatus) bool {
	return slices.Contains(allowedFrom[to], from)
}

// BlockingStatuses are the statuses that count against the no-overlap invariant.
var BlockingStatuses = []AppointmentStatus{
	AppointmentStatusScheduled,
	AppointmentStatusConfirmed,
	AppointmentStatusCompleted,
}

// ReleasedStatuses free their interval for new bookings.
var ReleasedStatuses = []AppointmentStatus{
	AppointmentStatusCancelled,
	AppointmentStatusNoShow,
}

// AppointmentStatusUpdate carries the fields written alongside a status transition.
type AppointmentStatusUpdate struct {
	Status       AppointmentStatus
	CancelReason string
	At           time.Time
}
