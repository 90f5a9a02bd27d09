package models

import (
	"time"
)

// AvailabilitySlot is a bookable window of a physician's time.
type AvailabilitySlot struct {
	BaseModel
	PhysicianID string    `gorm:"size:36;index;not null" json:"physicianId"`
	Start       time.Time `gorm:"column:start_at;index;not null" json:"start"`
	End         time.Time `gorm:"column:end_at;not null" json:"end"`
	IsBooked    bool      `gorm:"default:false" json:"isBooked"`

	// Relations
	Physician PhysicianProfile `gorm:"foreignKey:PhysicianID" json:"-"`
}
