package repository

import (
	"context"
	"errors"

	"clinic-backend/internal/domain/entity"
	domainRepo "clinic-backend/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type doctorProfileRepository struct{}

func NewDoctorProfileRepository() domainRepo.DoctorProfileRepository {
	return &doctorProfileRepository{}
}

func (r *doctorProfileRepository) Create(ctx context.Context, db *gorm.DB, profile *entity.DoctorProfile) error {
	return translateError(db.WithContext(ctx).Create(profile).Error)
}

func (r *doctorProfileRepository) FindByUserID(ctx context.Context, db *gorm.DB, doctorID uuid.UUID) (*entity.DoctorProfile, error) {
	var profile entity.DoctorProfile
	err := withAvailability(db.WithContext(ctx)).Where("user_id = ?", doctorID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// FindAllActive lists doctors whose account is active, ordered by name.
func (r *doctorProfileRepository) FindAllActive(ctx context.Context, db *gorm.DB, filter *entity.DoctorFilter) ([]entity.DoctorProfile, error) {
	query := withAvailability(db.WithContext(ctx)).
		Joins("JOIN users ON users.id = doctor_profiles.user_id").
		Where("users.is_active = ? AND users.role_id = ?", true, entity.RoleIDDoctor)

	if filter != nil && filter.Specialization != "" {
		query = query.Where("doctor_profiles.specialization ILIKE ?", "%"+filter.Specialization+"%")
	}

	var profiles []entity.DoctorProfile
	err := query.Order("users.first_name ASC, users.last_name ASC").Find(&profiles).Error
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

func withAvailability(db *gorm.DB) *gorm.DB {
	return db.
		Preload("User").
		Preload("WorkingHours").
		Preload("BreakTimes", func(db *gorm.DB) *gorm.DB {
			return db.Order("start_time ASC")
		}).
		Preload("DaysOff", func(db *gorm.DB) *gorm.DB {
			return db.Order("date ASC")
		})
}
