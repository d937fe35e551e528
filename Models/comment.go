package Models

import "time"

// Comment belongs to a task and an author.
type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TaskID    uint      `json:"taskId" gorm:"index;not null"`
	UserID    string    `json:"userId" gorm:"not null"`
	Text      string    `json:"text" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}

// CommentLike is unique per (comment, user); liking twice is a no-op.
type CommentLike struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CommentID uint      `json:"commentId" gorm:"uniqueIndex:idx_comment_user;not null"`
	UserID    string    `json:"userId" gorm:"uniqueIndex:idx_comment_user;not null"`
	CreatedAt time.Time `json:"createdAt"`
}
