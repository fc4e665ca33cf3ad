package repository

import (
	"context"

	"clinic-backend/internal/domain/entity"

	"gorm.io/gorm"
)

// PatientProfileRepository stores patient demographics. Booking validates
// patients through UserRepository, so only seeding writes here.
type PatientProfileRepository interface {
	Create(ctx context.Context, db *gorm.DB, profile *entity.PatientProfile) error
}
