package usecase

import (
	"context"

	"clinic-backend/internal/converter"
	"clinic-backend/internal/delivery/dto"
	"clinic-backend/internal/domain/entity"
	"clinic-backend/internal/domain/repository"
	"clinic-backend/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type AuditLogUsecase interface {
	GetAppointmentHistory(ctx context.Context, appointmentID uuid.UUID) (*dto.AuditLogListResponse, error)
	GetDoctorHistory(ctx context.Context, doctorID uuid.UUID) (*dto.AuditLogListResponse, error)
}

type auditLogUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	appointmentRepo repository.AppointmentRepository
	auditService    service.AuditService
}

func NewAuditLogUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	auditService service.AuditService,
) AuditLogUsecase {
	return &auditLogUsecase{
		db:              db,
		log:             log,
		appointmentRepo: appointmentRepo,
		auditService:    auditService,
	}
}

func (u *auditLogUsecase) GetAppointmentHistory(ctx context.Context, appointmentID uuid.UUID) (*dto.AuditLogListResponse, error) {
	appointment, err := u.appointmentRepo.FindByID(ctx, u.db, appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", appointmentID, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}

	return u.history(ctx, entity.AuditEntityAppointment, appointmentID)
}

func (u *auditLogUsecase) GetDoctorHistory(ctx context.Context, doctorID uuid.UUID) (*dto.AuditLogListResponse, error) {
	return u.history(ctx, entity.AuditEntityDoctor, doctorID)
}

func (u *auditLogUsecase) history(ctx context.Context, entityName string, id uuid.UUID) (*dto.AuditLogListResponse, error) {
	logs, err := u.auditService.History(ctx, entityName, id.String())
	if err != nil {
		return nil, err
	}

	return &dto.AuditLogListResponse{
		Logs:  converter.AuditLogsToResponses(logs),
		Total: len(logs),
	}, nil
}
