package models

import (
	"time"
)

// HealthRecord represents a single set of self-reported health metrics for a
// patient. All metric fields are optional; a record may carry any subset.
type HealthRecord struct {
	BaseModel
	PatientID    string    `gorm:"size:36;index;not null" json:"patientId"`
	RecordedAt   time.Time `json:"recordedAt"`
	SystolicBP   *int      `json:"systolicBp,omitempty"`
	DiastolicBP  *int      `json:"diastolicBp,omitempty"`
	SugarFasting *float64  `json:"sugarFasting,omitempty"`
	SugarPP      *float64  `json:"sugarPp,omitempty"`
	Notes        string    `gorm:"type:text" json:"notes,omitempty"`

	// Relations
	Patient    PatientProfile          `gorm:"foreignKey:PatientID" json:"-"`
	Attachment *HealthRecordAttachment `gorm:"foreignKey:HealthRecordID" json:"attachment,omitempty"`
}

// HealthRecordAttachment represents a lab file attached to a health record
type HealthRecordAttachment struct {
	BaseModel
	HealthRecordID string `json:"healthRecordId" gorm:"not null;type:varchar(36);uniqueIndex"`
	FileName       string `json:"fileName" gorm:"not null"`        // Original name of the file
	FileType       string `json:"fileType" gorm:"not null"`        // MIME type of the file
	FileData       []byte `json:"-" gorm:"type:longblob;not null"` // File content as binary data (longblob for MySQL)
}
