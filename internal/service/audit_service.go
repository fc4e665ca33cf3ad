package service

import (
	"context"

	"clinic-backend/internal/domain/entity"
	"clinic-backend/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AuditEntry describes one audited change. OldValue is nil for creations.
type AuditEntry struct {
	ActorID    *uuid.UUID
	Action     string
	EntityName string
	EntityID   string
	OldValue   interface{}
	NewValue   interface{}
}

type AuditService interface {
	Record(ctx context.Context, entry AuditEntry) error
	History(ctx context.Context, entityName, entityID string) ([]entity.AuditLog, error)
}

type auditService struct {
	db        *gorm.DB
	log       *logrus.Logger
	auditRepo repository.AuditLogRepository
}

func NewAuditService(db *gorm.DB, log *logrus.Logger, auditRepo repository.AuditLogRepository) AuditService {
	return &auditService{
		db:        db,
		log:       log,
		auditRepo: auditRepo,
	}
}

func (s *auditService) Record(ctx context.Context, entry AuditEntry) error {
	auditLog := &entity.AuditLog{
		UserID: entry.ActorID,
		Action: entry.Action,
		Metadata: entity.JSON{
			"entity":    entry.EntityName,
			"entity_id": entry.EntityID,
			"old_value": entry.OldValue,
			"new_value": entry.NewValue,
		},
	}

	if err := s.auditRepo.Create(ctx, s.db, auditLog); err != nil {
		s.log.Warnf("Failed to create audit log %s for %s %s: %+v", entry.Action, entry.EntityName, entry.EntityID, err)
		return err
	}

	return nil
}

func (s *auditService) History(ctx context.Context, entityName, entityID string) ([]entity.AuditLog, error) {
	logs, err := s.auditRepo.FindByEntity(ctx, s.db, entityName, entityID)
	if err != nil {
		s.log.Warnf("Failed to load audit history of %s %s: %+v", entityName, entityID, err)
		return nil, err
	}
	return logs, nil
}
