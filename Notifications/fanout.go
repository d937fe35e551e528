package Notifications

import (
	"encoding/json"
	"fmt"
	"log"

	"Huddle/Models"

	"gorm.io/gorm"
)

// fanout.go creates the in-app notification rows for social events.
// Every helper no-ops on an empty recipient list, and callers outside the
// comment transaction treat failures as best effort (FanOutLogged).

func metadata(fields map[string]interface{}) []byte {
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil
	}
	return raw
}

// FanOutLogged runs a fan-out helper and logs instead of propagating, so
// notification failures never fail the primary write.
func FanOutLogged(what string, err error) {
	if err != nil {
		log.Printf("Notification fan-out failed (%s): %v", what, err)
	}
}

// HelperInvites bulk-inserts a helper-invite notification per helper.
func HelperInvites(db *gorm.DB, helperIDs []string, senderID string, taskID uint, taskText string) error {
	if len(helperIDs) == 0 {
		return nil
	}
	rows := make([]Models.Notification, 0, len(helperIDs))
	for _, id := range helperIDs {
		rows = append(rows, Models.Notification{
			UserID:   id,
			SenderID: senderID,
			Type:     Models.NotificationTaskHelper,
			Message:  "invited you to help with",
			Metadata: metadata(map[string]interface{}{
				"taskId":   taskID,
				"taskText": taskText,
			}),
		})
	}
	return db.Create(&rows).Error
}

// DecisionDone notifies every helper that a decision task was finalized.
func DecisionDone(db *gorm.DB, helperIDs []string, senderID string, taskID uint, taskText string) error {
	if len(helperIDs) == 0 {
		return nil
	}
	rows := make([]Models.Notification, 0, len(helperIDs))
	for _, id := range helperIDs {
		rows = append(rows, Models.Notification{
			UserID:   id,
			SenderID: senderID,
			Type:     Models.NotificationDecisionDone,
			Message:  fmt.Sprintf("marked the decision %q as done.", taskText),
			Metadata: metadata(map[string]interface{}{
				"taskId":   taskID,
				"taskText": taskText,
			}),
		})
	}
	return db.Create(&rows).Error
}

// CommentMentions inserts a mention notification per mentioned user.
// Called inside the comment transaction so the comment and its mentions
// commit or roll back together.
func CommentMentions(tx *gorm.DB, mentionedIDs []string, senderID string, taskID, commentID uint, commentText string) error {
	if len(mentionedIDs) == 0 {
		return nil
	}
	rows := make([]Models.Notification, 0, len(mentionedIDs))
	for _, id := range mentionedIDs {
		rows = append(rows, Models.Notification{
			UserID:   id,
			SenderID: senderID,
			Type:     Models.NotificationComment,
			Message:  "mentioned you in a comment",
			Metadata: metadata(map[string]interface{}{
				"taskId":      taskID,
				"commentId":   commentID,
				"commentText": commentText,
			}),
		})
	}
	return tx.Create(&rows).Error
}

// Followed records a follow notification for the followed user.
func Followed(db *gorm.DB, follower Models.User, followingID string) error {
	return db.Create(&Models.Notification{
		UserID:   followingID,
		SenderID: follower.ID,
		Type:     Models.NotificationFollow,
		Message:  fmt.Sprintf("%s followed you", follower.Name),
		Metadata: metadata(map[string]interface{}{
			"followerId":    follower.ID,
			"followerName":  follower.Name,
			"followerPhoto": follower.Photo,
		}),
	}).Error
}

// Reminded records a reminder-note notification for the task owner, with
// a denormalized sender snapshot.
func Reminded(db *gorm.DB, sender Models.User, ownerID string, taskID uint, taskText string) error {
	return db.Create(&Models.Notification{
		UserID:   ownerID,
		SenderID: sender.ID,
		Type:     Models.NotificationReminder,
		Message:  fmt.Sprintf("%s reminded you about your task.", sender.Name),
		Metadata: metadata(map[string]interface{}{
			"taskId":      taskID,
			"taskText":    taskText,
			"senderId":    sender.ID,
			"senderName":  sender.Name,
			"senderPhoto": sender.Photo,
		}),
	}).Error
}
