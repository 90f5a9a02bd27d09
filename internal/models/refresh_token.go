package models

import "time"

// RefreshToken is a stored, rotatable refresh token. A row is spendable until
// it expires or rotation/logout stamps revoked_at, mirroring how connect codes
// record consumption instead of flipping a flag.
type RefreshToken struct {
	BaseModel
	UserID    string     `gorm:"size:36;index" json:"userId"`
	Token     string     `gorm:"type:text;not null" json:"-"`
	ExpiresAt time.Time  `json:"expiresAt"`
	RevokedAt *time.Time `json:"revokedAt,omitempty"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// Revoke stamps the token as no longer spendable.
func (rt *RefreshToken) Revoke(now time.Time) {
	rt.RevokedAt = &now
}

// Active reports whether the token can still be exchanged.
func (rt *RefreshToken) Active(now time.Time) bool {
	return rt.RevokedAt == nil && now.Before(rt.ExpiresAt)
}
