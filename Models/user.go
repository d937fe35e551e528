package Models

import "time"

// User is synced from the identity provider on sign-in; the ID is the
// provider-issued subject, never generated locally.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Name      string    `json:"name"`
	Photo     string    `json:"photo"`
	FCMToken  string    `json:"fcmToken,omitempty" gorm:"column:fcm_token"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Follow is a directed edge in the social graph, unique per pair.
type Follow struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FollowerID  string    `json:"followerId" gorm:"uniqueIndex:idx_follower_following;not null"`
	FollowingID string    `json:"followingId" gorm:"uniqueIndex:idx_follower_following;not null"`
	CreatedAt   time.Time `json:"createdAt"`
}

// UserSummary is the lightweight projection embedded in lists and
// annotations (followers, helpers, voter previews).
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Photo string `json:"photo,omitempty"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Photo: u.Photo}
}
