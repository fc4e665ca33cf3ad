package repository

import (
	"context"

	"clinic-backend/internal/domain/entity"
	domainRepo "clinic-backend/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type doctorAvailabilityRepository struct{}

func NewDoctorAvailabilityRepository() domainRepo.DoctorAvailabilityRepository {
	return &doctorAvailabilityRepository{}
}

// ReplaceWorkingHours swaps the doctor's whole weekly table in one transaction.
func (r *doctorAvailabilityRepository) ReplaceWorkingHours(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, hours []entity.WorkingHour) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("doctor_id = ?", doctorID).Delete(&entity.WorkingHour{}).Error; err != nil {
			return err
		}
		if len(hours) == 0 {
			return nil
		}
		for i := range hours {
			hours[i].DoctorID = doctorID
		}
		return tx.Create(&hours).Error
	})
	return translateError(err)
}

func (r *doctorAvailabilityRepository) CreateBreakTime(ctx context.Context, db *gorm.DB, breakTime *entity.BreakTime) error {
	return translateError(db.WithContext(ctx).Create(breakTime).Error)
}

func (r *doctorAvailabilityRepository) DeleteBreakTime(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, id int) (int64, error) {
	result := db.WithContext(ctx).Where("id = ? AND doctor_id = ?", id, doctorID).Delete(&entity.BreakTime{})
	return result.RowsAffected, result.Error
}

func (r *doctorAvailabilityRepository) CreateDayOff(ctx context.Context, db *gorm.DB, dayOff *entity.DayOff) error {
	return translateError(db.WithContext(ctx).Create(dayOff).Error)
}

func (r *doctorAvailabilityRepository) DeleteDayOff(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, id int) (int64, error) {
	result := db.WithContext(ctx).Where("id = ? AND doctor_id = ?", id, doctorID).Delete(&entity.DayOff{})
	return result.RowsAffected, result.Error
}
