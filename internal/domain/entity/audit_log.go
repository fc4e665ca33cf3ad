package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AuditLog represents a system audit trail entry.
// Metadata holds entity, entity_id, old_value and new_value.
type AuditLog struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Action    string     `gorm:"type:varchar(100);not null;index" json:"action"`
	Metadata  JSON       `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index" json:"created_at"`

	// Relationships
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// JSON maps a jsonb column.
type JSON map[string]interface{}

func (j JSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported JSONB value type %T", value)
	}

	result := map[string]interface{}{}
	err := json.Unmarshal(bytes, &result)
	*j = JSON(result)
	return err
}

// Appointment lifecycle and availability profile audit actions
const (
	AuditActionAppointmentCreate     = "appointment.create"
	AuditActionAppointmentConfirm    = "appointment.confirm"
	AuditActionAppointmentCancel     = "appointment.cancel"
	AuditActionAppointmentComplete   = "appointment.complete"
	AuditActionAppointmentNoShow     = "appointment.no_show"
	AuditActionAppointmentReschedule = "appointment.reschedule"
	AuditActionWorkingHoursReplace   = "working_hours.replace"
	AuditActionBreakTimeCreate       = "break_time.create"
	AuditActionBreakTimeDelete       = "break_time.delete"
	AuditActionDayOffCreate          = "day_off.create"
	AuditActionDayOffDelete          = "day_off.delete"
)

// Audited entity names stored in metadata.entity
const (
	AuditEntityAppointment = "appointment"
	AuditEntityDoctor      = "doctor"
)
