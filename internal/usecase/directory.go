package usecase

import (
	"context"
	"time"

	"clinic-backend/internal/delivery/http/middleware"
	"clinic-backend/internal/domain/entity"
	"clinic-backend/internal/domain/repository"
	"clinic-backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrDoctorNotFound  = apperror.NotFound("doctor not found")
	ErrPatientNotFound = apperror.NotFound("patient not found")
	ErrNotADoctor      = apperror.BadRequest("user is not a doctor")
	ErrNotAPatient     = apperror.BadRequest("user is not a patient")
	ErrDoctorInactive  = apperror.BadRequest("doctor is not active")
	ErrPatientInactive = apperror.BadRequest("patient is not active")
	ErrInvalidDate     = apperror.InvalidFormat("invalid date format, use YYYY-MM-DD")
	ErrUnauthenticated = apperror.Forbidden("user not found in context")
)

// actor is the authenticated caller of a usecase.
type actor struct {
	ID     uuid.UUID
	RoleID int
}

func actorFromContext(ctx context.Context) (actor, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return actor{}, ErrUnauthenticated
	}
	roleID, ok := middleware.GetRoleIDFromContext(ctx)
	if !ok {
		return actor{}, ErrUnauthenticated
	}
	return actor{ID: userID, RoleID: roleID}, nil
}

func (a actor) isPatient() bool { return a.RoleID == entity.RoleIDPatient }
func (a actor) isDoctor() bool  { return a.RoleID == entity.RoleIDDoctor }

func parseDate(value string) (time.Time, error) {
	date, err := time.Parse(entity.DateLayout, value)
	if err != nil {
		return time.Time{}, ErrInvalidDate.WithDetails(map[string]string{"date": value})
	}
	return date, nil
}

// requireUser resolves id to an active user of roleID.
func requireUser(ctx context.Context, db *gorm.DB, log *logrus.Logger, userRepo repository.UserRepository, id uuid.UUID, roleID int) (*entity.User, error) {
	notFound, wrongRole, inactive := ErrDoctorNotFound, ErrNotADoctor, ErrDoctorInactive
	if roleID == entity.RoleIDPatient {
		notFound, wrongRole, inactive = ErrPatientNotFound, ErrNotAPatient, ErrPatientInactive
	}

	user, err := userRepo.FindByID(ctx, db, id)
	if err != nil {
		log.Warnf("Failed to find user %s: %+v", id, err)
		return nil, err
	}
	if user == nil {
		return nil, notFound
	}
	if user.RoleID != roleID {
		return nil, wrongRole
	}
	if !user.Active() {
		return nil, inactive
	}
	return user, nil
}
