package Models

import "time"

// ReminderNote is a one-shot nudge from a non-owner to a task's owner,
// unique per (task, sender). The unique index backs the "already sent"
// rule; the service pre-check only produces the friendlier message.
type ReminderNote struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TaskID    uint      `json:"taskId" gorm:"uniqueIndex:idx_task_sender;not null"`
	SenderID  string    `json:"senderId" gorm:"uniqueIndex:idx_task_sender;not null"`
	Message   string    `json:"message" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
}
