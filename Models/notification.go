package Models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification types.
const (
	NotificationFollow       = "follow"
	NotificationTaskHelper   = "taskHelper"
	NotificationDecisionDone = "decisionDone"
	NotificationComment      = "comment"
	NotificationReminder     = "reminder"
)

// Notification is an in-app notification row. Metadata carries free-form
// references (task/comment ids, denormalized sender names) so the client
// can render without extra lookups.
type Notification struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    string         `json:"userId" gorm:"index;not null"`
	SenderID  string         `json:"senderId"`
	Type      string         `json:"type" gorm:"not null"`
	Message   string         `json:"message"`
	Metadata  datatypes.JSON `json:"metadata,omitempty"`
	Read      bool           `json:"read" gorm:"default:false"`
	CreatedAt time.Time      `json:"createdAt"`

	Sender *User `json:"sender,omitempty" gorm:"foreignKey:SenderID"`
}
