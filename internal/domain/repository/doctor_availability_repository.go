package repository

import (
	"context"

	"clinic-backend/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DoctorAvailabilityRepository writes the working hours, break times and days off
// that the scheduling core reads through DoctorProfileRepository.
type DoctorAvailabilityRepository interface {
	ReplaceWorkingHours(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, hours []entity.WorkingHour) error
	CreateBreakTime(ctx context.Context, db *gorm.DB, breakTime *entity.BreakTime) error
	DeleteBreakTime(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, id int) (int64, error)
	CreateDayOff(ctx context.Context, db *gorm.DB, dayOff *entity.DayOff) error
	DeleteDayOff(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, id int) (int64, error)
}
