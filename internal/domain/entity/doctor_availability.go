package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Weekday names as stored in working hours and break times.
const (
	Monday    = "monday"
	Tuesday   = "tuesday"
	Wednesday = "wednesday"
	Thursday  = "thursday"
	Friday    = "friday"
	Saturday  = "saturday"
	Sunday    = "sunday"
)

var Weekdays = []string{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// WeekdayOf returns the lower-case weekday name of date.
func WeekdayOf(date time.Time) string {
	return strings.ToLower(date.Weekday().String())
}

// WorkingHour is a doctor's opening window for one weekday.
type WorkingHour struct {
	ID        int       `gorm:"primaryKey;autoIncrement" json:"id"`
	DoctorID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_working_hours_doctor_day" json:"doctor_id"`
	Day       string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_working_hours_doctor_day" json:"day"`
	OpenTime  string    `gorm:"type:varchar(5)" json:"open_time"`
	CloseTime string    `gorm:"type:varchar(5)" json:"close_time"`
	IsClosed  bool      `gorm:"not null;default:false" json:"is_closed"`
}

func (WorkingHour) TableName() string {
	return "doctor_working_hours"
}

// BreakTime is a recurring weekday interval that cannot be booked.
type BreakTime struct {
	ID        int       `gorm:"primaryKey;autoIncrement" json:"id"`
	DoctorID  uuid.UUID `gorm:"type:uuid;not null;index" json:"doctor_id"`
	Day       string    `gorm:"type:varchar(10);not null" json:"day"`
	StartTime string    `gorm:"type:varchar(5);not null" json:"start_time"`
	EndTime   string    `gorm:"type:varchar(5);not null" json:"end_time"`
}

func (BreakTime) TableName() string {
	return "doctor_break_times"
}

// DayOff blocks a specific calendar date regardless of weekday rules.
type DayOff struct {
	ID       int       `gorm:"primaryKey;autoIncrement" json:"id"`
	DoctorID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_days_off_doctor_date" json:"doctor_id"`
	Date     time.Time `gorm:"type:date;not null;uniqueIndex:idx_days_off_doctor_date" json:"date"`
	Reason   string    `gorm:"type:text" json:"reason,omitempty"`
}

func (DayOff) TableName() string {
	return "doctor_days_off"
}
