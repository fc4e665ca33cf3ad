package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinic-backend/internal/domain/entity"
	domainRepo "clinic-backend/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type appointmentRepository struct{}

func NewAppointmentRepository() domainRepo.AppointmentRepository {
	return &appointmentRepository{}
}

func (r *appointmentRepository) Create(ctx context.Context, db *gorm.DB, appointment *entity.Appointment) error {
	return translateError(db.WithContext(ctx).Create(appointment).Error)
}

// CreateIfSlotFree serializes writers per doctor and date with a transaction-scoped
// advisory lock, re-runs the overlap query and inserts. The partial unique index on
// (doctor_id, date, start_time) backs this up for identical start times.
func (r *appointmentRepository) CreateIfSlotFree(ctx context.Context, db *gorm.DB, appointment *entity.Appointment) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockDoctorDay(tx, appointment.DoctorID, appointment.Date); err != nil {
			return err
		}

		taken, err := overlapExists(tx, appointment.DoctorID, appointment.Date, appointment.StartTime, appointment.EndTime, nil)
		if err != nil {
			return err
		}
		if taken {
			return domainRepo.ErrSlotTaken
		}

		return tx.Create(appointment).Error
	})
	return translateError(err)
}

func (r *appointmentRepository) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	var appointment entity.Appointment
	err := db.WithContext(ctx).
		Preload("Doctor").
		Preload("Patient").
		Preload("Creator").
		Where("id = ?", id).
		First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) FindByDoctorAndDateRange(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, from, to time.Time) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := db.WithContext(ctx).
		Where("doctor_id = ? AND date BETWEEN ? AND ?", doctorID, from.Format(entity.DateLayout), to.Format(entity.DateLayout)).
		Order("date ASC, start_time ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

// UpdateStatus writes the transition only if the row is currently in one of the
// allowed source statuses. Affected rows tell a lost race or a bad transition apart from success.
func (r *appointmentRepository) UpdateStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, update entity.AppointmentStatusUpdate) (*entity.Appointment, error) {
	sources := entity.TransitionSources(update.Status)
	if len(sources) == 0 {
		return nil, domainRepo.ErrInvalidTransition
	}

	fields := map[string]interface{}{"status": update.Status}
	switch update.Status {
	case entity.AppointmentStatusCancelled:
		fields["cancel_reason"] = update.CancelReason
		fields["cancelled_at"] = update.At
	case entity.AppointmentStatusCompleted:
		fields["completed_at"] = update.At
	}

	result := db.WithContext(ctx).
		Model(&entity.Appointment{}).
		Where("id = ? AND status IN ?", id, sources).
		Updates(fields)
	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		existing, err := r.FindByID(ctx, db, id)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, nil
		}
		return nil, domainRepo.ErrInvalidTransition
	}

	return r.FindByID(ctx, db, id)
}

func (r *appointmentRepository) Reschedule(ctx context.Context, db *gorm.DB, id uuid.UUID, date time.Time, startTime, endTime string) (*entity.Appointment, error) {
	var found bool
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current entity.Appointment
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&current).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		found = true

		if current.Status != entity.AppointmentStatusScheduled && current.Status != entity.AppointmentStatusConfirmed {
			return domainRepo.ErrInvalidTransition
		}

		if err := lockDoctorDay(tx, current.DoctorID, date); err != nil {
			return err
		}

		taken, err := overlapExists(tx, current.DoctorID, date, startTime, endTime, &id)
		if err != nil {
			return err
		}
		if taken {
			return domainRepo.ErrSlotTaken
		}

		return tx.Model(&entity.Appointment{}).Where("id = ?", id).Updates(map[string]interface{}{
			"date":       date.Format(entity.DateLayout),
			"start_time": startTime,
			"end_time":   endTime,
		}).Error
	})
	if err != nil {
		return nil, translateError(err)
	}
	if !found {
		return nil, nil
	}

	return r.FindByID(ctx, db, id)
}

// lockDoctorDay takes pg_advisory_xact_lock on a key derived from doctor and date.
// The lock is released when tx commits or rolls back.
func lockDoctorDay(tx *gorm.DB, doctorID uuid.UUID, date time.Time) error {
	key := fmt.Sprintf("appointments:%s:%s", doctorID, date.Format(entity.DateLayout))
	return tx.Exec("SELECT pg_advisory_xact_lock(hashtextextended(?, 0))", key).Error
}

// overlapExists relies on HH:MM strings ordering the same way as their minute values.
func overlapExists(tx *gorm.DB, doctorID uuid.UUID, date time.Time, startTime, endTime string, excludeID *uuid.UUID) (bool, error) {
	query := tx.Model(&entity.Appointment{}).
		Where("doctor_id = ? AND date = ?", doctorID, date.Format(entity.DateLayout)).
		Where("status NOT IN ?", entity.ReleasedStatuses).
		Where("start_time < ? AND end_time > ?", endTime, startTime)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
