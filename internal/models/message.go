package models

import (
	"time"
)

// Message represents a message between a linked patient and physician.
// Sender and receiver are user ids; delivery is poll-based.
type Message struct {
	BaseModel
	SenderID   string     `gorm:"size:36;index" json:"senderId"`
	ReceiverID string     `gorm:"size:36;index" json:"receiverId"`
	Subject    string     `gorm:"type:text" json:"subject"`
	Content    string     `gorm:"type:text" json:"content"`
	ReadAt     *time.Time `json:"readAt,omitempty"`

	// Relations
	Sender   User `gorm:"foreignKey:SenderID" json:"-"`
	Receiver User `gorm:"foreignKey:ReceiverID" json:"-"`
}
