package entity

import (
	"time"

	"github.com/google/uuid"
)

// DoctorProfile is the directory entry of a doctor together with the
// availability profile the scheduling core reads.
type DoctorProfile struct {
	UserID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	LicenseNumber  string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"license_number"`
	Specialization string    `gorm:"type:varchar(100);not null;index" json:"specialization"`
	Biography      string    `gorm:"type:text" json:"biography,omitempty"`

	// Relationships
	User         User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	WorkingHours []WorkingHour `gorm:"foreignKey:DoctorID;references:UserID" json:"working_hours,omitempty"`
	BreakTimes   []BreakTime   `gorm:"foreignKey:DoctorID;references:UserID" json:"break_times,omitempty"`
	DaysOff      []DayOff      `gorm:"foreignKey:DoctorID;references:UserID" json:"days_off,omitempty"`
}

func (DoctorProfile) TableName() string {
	return "doctor_profiles"
}

// IsActive reports whether the profile belongs to an active doctor account.
func (d *DoctorProfile) IsActive() bool {
	return d.User.RoleID == RoleIDDoctor && d.User.Active()
}

// WorkingHourFor returns the working-hours entry for day, or nil when none is configured.
func (d *DoctorProfile) WorkingHourFor(day string) *WorkingHour {
	for i := range d.WorkingHours {
		if d.WorkingHours[i].Day == day {
			return &d.WorkingHours[i]
		}
	}
	return nil
}

// BreaksFor returns the break intervals configured for day.
func (d *DoctorProfile) BreaksFor(day string) []BreakTime {
	var breaks []BreakTime
	for _, b := range d.BreakTimes {
		if b.Day == day {
			breaks = append(breaks, b)
		}
	}
	return breaks
}

// DayOffOn returns the day-off entry matching date's calendar day, if any.
func (d *DoctorProfile) DayOffOn(date time.Time) *DayOff {
	want := date.Format(DateLayout)
	for i := range d.DaysOff {
		if d.DaysOff[i].Date.Format(DateLayout) == want {
			return &d.DaysOff[i]
		}
	}
	return nil
}
