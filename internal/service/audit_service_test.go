package service

import (
	"context"
	"errors"
	"testing"

	"clinic-backend/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"gorm.io/gorm"
)

type memoryAuditRepo struct {
	logs      []entity.AuditLog
	createErr error
}

func (r *memoryAuditRepo) Create(ctx context.Context, db *gorm.DB, log *entity.AuditLog) error {
	if r.createErr != nil {
		return r.createErr
	}
	log.ID = int64(len(r.logs) + 1)
	r.logs = append(r.logs, *log)
	return nil
}

func (r *memoryAuditRepo) FindByEntity(ctx context.Context, db *gorm.DB, entityName, entityID string) ([]entity.AuditLog, error) {
	var out []entity.AuditLog
	for _, l := range r.logs {
		if l.Metadata["entity"] == entityName && l.Metadata["entity_id"] == entityID {
			out = append(out, l)
		}
	}
	return out, nil
}

func TestAuditService_RecordAndHistory(t *testing.T) {
	log, _ := test.NewNullLogger()
	repo := &memoryAuditRepo{}
	svc := NewAuditService(nil, log, repo)
	ctx := context.Background()

	actor := uuid.New()
	apptID := uuid.NewString()
	if err := svc.Record(ctx, AuditEntry{ActorID: &actor, Action: entity.AuditActionAppointmentCreate, EntityName: entity.AuditEntityAppointment, EntityID: apptID, NewValue: "scheduled"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Record(ctx, AuditEntry{Action: entity.AuditActionAppointmentCancel, EntityName: entity.AuditEntityAppointment, EntityID: apptID, OldValue: "scheduled", NewValue: "cancelled"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	svc.Record(ctx, AuditEntry{Action: entity.AuditActionAppointmentCreate, EntityName: entity.AuditEntityAppointment, EntityID: uuid.NewString()})

	history, err := svc.History(ctx, entity.AuditEntityAppointment, apptID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("len(history) = %d, want 2", len(history))
	}
	if history[0].Action != entity.AuditActionAppointmentCreate || *history[0].UserID != actor {
		t.Errorf("first entry = %+v", history[0])
	}
	if history[1].Metadata["old_value"] != "scheduled" {
		t.Errorf("second entry metadata = %v", history[1].Metadata)
	}
}

func TestAuditService_RecordFailureLogged(t *testing.T) {
	log, hook := test.NewNullLogger()
	svc := NewAuditService(nil, log, &memoryAuditRepo{createErr: errors.New("insert failed")})

	if err := svc.Record(context.Background(), AuditEntry{Action: "x", EntityName: "y", EntityID: "z"}); err == nil {
		t.Fatal("expected error")
	}
	if len(hook.Entries) != 1 {
		t.Errorf("expected one warning, got %d", len(hook.Entries))
	}
}
