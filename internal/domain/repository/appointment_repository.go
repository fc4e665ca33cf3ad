package repository

import (
	"context"
	"time"

	"clinic-backend/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentRepository interface {
	// Create inserts without overlap checks. Used by seeding.
	Create(ctx context.Context, db *gorm.DB, appointment *entity.Appointment) error
	// CreateIfSlotFree inserts appointment only when no blocking appointment of the
	// same doctor and date overlaps it, as one serialized step. Returns ErrSlotTaken otherwise.
	CreateIfSlotFree(ctx context.Context, db *gorm.DB, appointment *entity.Appointment) error
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Appointment, error)
	// FindByDoctorAndDateRange returns every appointment of doctorID dated within [from, to], any status.
	FindByDoctorAndDateRange(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, from, to time.Time) ([]entity.Appointment, error)
	// UpdateStatus applies a guarded transition. Returns nil, nil when id does not exist
	// and ErrInvalidTransition when the current status is not a valid source.
	UpdateStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, update entity.AppointmentStatusUpdate) (*entity.Appointment, error)
	// Reschedule moves a blocking appointment to a new interval under the same
	// serialization as CreateIfSlotFree, ignoring the appointment itself.
	Reschedule(ctx context.Context, db *gorm.DB, id uuid.UUID, date time.Time, startTime, endTime string) (*entity.Appointment, error)
}
