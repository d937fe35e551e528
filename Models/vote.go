package Models

import "time"

// Vote is a single-choice vote on a decision task, unique per
// (user, task). Casting again overwrites the choice. The column is named
// "choice" because OPTION is a reserved word on MySQL.
type Vote struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"userId" gorm:"uniqueIndex:idx_user_task;not null"`
	TaskID    uint      `json:"taskId" gorm:"uniqueIndex:idx_user_task;not null"`
	Option    string    `json:"option" gorm:"column:choice;not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// VoteCount is a row of the per-option tally aggregate.
type VoteCount struct {
	Option string `json:"option" gorm:"column:choice"`
	Count  int64  `json:"count"`
}
