package models

import (
	"time"
)

// ConnectCode is a one-time token a physician shares with a patient.
// Redeeming it links the patient to the issuing physician. A code is spendable
// while UsedAt is NULL and ExpiresAt is in the future; expiry is derived from
// the timestamp, never stored as a transition.
type ConnectCode struct {
	BaseModel
	Code            string     `gorm:"uniqueIndex;size:12;not null" json:"code"`
	PhysicianID     string     `gorm:"size:36;index;not null" json:"physicianId"`
	ExpiresAt       time.Time  `gorm:"not null" json:"expiresAt"`
	UsedAt          *time.Time `json:"usedAt,omitempty"`
	UsedByPatientID *string    `gorm:"size:36" json:"usedByPatientId,omitempty"`

	// Relations
	Physician PhysicianProfile `gorm:"foreignKey:PhysicianID" json:"-"`
}

// IsUsed reports whether the code has already been redeemed.
func (c *ConnectCode) IsUsed() bool { return c.UsedAt != nil }

// IsExpired reports whether the code has passed its expiry at the given instant.
func (c *ConnectCode) IsExpired(now time.Time) bool { return !now.Before(c.ExpiresAt) }
