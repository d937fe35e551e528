package Models

import "time"

// Scheduled push statuses.
const (
	PushPending = "pending"
	PushSent    = "sent"
	PushFailed  = "failed"
)

// ScheduledPush is a persisted push intent. Rows survive restarts and are
// delivered by the scheduler sweep once DueAt passes, instead of keeping
// in-process timers that a crash would drop.
type ScheduledPush struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Token     string    `json:"token" gorm:"not null"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	DueAt     time.Time `json:"dueAt" gorm:"index;not null"`
	Status    string    `json:"status" gorm:"index;default:pending"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
