package models

import (
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
)

// CanTransitionTo reports whether a status change is allowed. Cancelled and
// completed are terminal; a cancelled appointment's slot is already freed, so
// reviving it would double-book.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusCompleted || next == StatusCancelled
	default:
		return false
	}
}

// Appointment represents a booked visit between a patient and a physician.
type Appointment struct {
	BaseModel
	PatientID   string            `gorm:"size:36;index" json:"patientId"`
	PhysicianID string            `gorm:"size:36;index" json:"physicianId"`
	SlotID      *string           `gorm:"size:36" json:"slotId,omitempty"`
	StartTime   time.Time         `json:"startTime"`
	EndTime     time.Time         `json:"endTime"`
	Status      AppointmentStatus `gorm:"size:20;default:'pending'" json:"status"`
	Reason      string            `gorm:"size:255" json:"reason"`
	Notes       string            `gorm:"type:text" json:"notes"`

	// Relations
	Patient   PatientProfile    `gorm:"foreignKey:PatientID" json:"-"`
	Physician PhysicianProfile  `gorm:"foreignKey:PhysicianID" json:"-"`
	Slot      *AvailabilitySlot `gorm:"foreignKey:SlotID" json:"-"`
}
