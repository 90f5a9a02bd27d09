package models

import (
	"time"
)

// PatientProfile holds the patient-facing profile for a PATIENT user.
// PhysicianID is nullable: a patient has at most one linked physician and the
// link survives as NULL when the physician is removed.
type PatientProfile struct {
	BaseModel
	UserID      string     `gorm:"size:36;uniqueIndex;not null" json:"userId"`
	FullName    string     `gorm:"size:150;not null" json:"fullName"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	Phone       string     `gorm:"size:30" json:"phone,omitempty"`
	Address     string     `gorm:"type:text" json:"address,omitempty"`
	HeightCm    *float64   `json:"heightCm,omitempty"`
	WeightKg    *float64   `json:"weightKg,omitempty"`
	PhysicianID *string    `gorm:"size:36;index" json:"physicianId,omitempty"`

	// Relations
	User      User              `gorm:"foreignKey:UserID" json:"-"`
	Physician *PhysicianProfile `gorm:"foreignKey:PhysicianID;constraint:OnDelete:SET NULL" json:"physician,omitempty"`
	Records   []HealthRecord    `gorm:"foreignKey:PatientID" json:"-"`
}
