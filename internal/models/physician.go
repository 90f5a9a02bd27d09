package models

// PhysicianProfile holds the physician-facing profile for a PHYSICIAN user.
// The roster of linked patients is derived from PatientProfile.PhysicianID.
type PhysicianProfile struct {
	BaseModel
	UserID         string `gorm:"size:36;uniqueIndex;not null" json:"userId"`
	FullName       string `gorm:"size:150;not null" json:"fullName"`
	Specialization string `gorm:"size:150" json:"specialization,omitempty"`
	ClinicName     string `gorm:"size:150" json:"clinicName,omitempty"`

	// Relations
	User     User             `gorm:"foreignKey:UserID" json:"-"`
	Patients []PatientProfile `gorm:"foreignKey:PhysicianID" json:"-"`
}

// PhysicianPublic is the physician view exposed to patients (search results,
// linked-physician summaries).
type PhysicianPublic struct {
	ID             string `json:"id"`
	FullName       string `json:"fullName"`
	Specialization string `json:"specialization,omitempty"`
	ClinicName     string `json:"clinicName,omitempty"`
}

// Public returns the patient-safe projection of the profile.
func (p *PhysicianProfile) Public() PhysicianPublic {
	return PhysicianPublic{
		ID:             p.ID,
		FullName:       p.FullName,
		Specialization: p.Specialization,
		ClinicName:     p.ClinicName,
	}
}
