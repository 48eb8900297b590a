package models

import (
	"time"
)

// Message represents a message between a patient/student and a faculty doctor
type Message struct {
	BaseModel
	SenderID   string     `gorm:"size:36;index" json:"senderId"`
	ReceiverID string     `gorm:"size:36;index" json:"receiverId"`
	Subject    string     `gorm:"size:255" json:"subject"`
	Content    string     `gorm:"type:text" json:"content"`
	IsRead     bool       `gorm:"default:false" json:"isRead"`
	ReadAt     *time.Time `json:"readAt,omitempty"`

	// Relations
	Sender   User `gorm:"foreignKey:SenderID" json:"sender"`
	Receiver User `gorm:"foreignKey:ReceiverID" json:"receiver"`
}
