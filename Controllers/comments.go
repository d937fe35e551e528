package Controllers

import (
	"strconv"

	"Huddle/Models"
	"Huddle/Notifications"
	"Huddle/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommentController handles threaded comments and likes.
type CommentController struct {
	DB     *gorm.DB
	Pusher Notifications.Pusher
}

func NewCommentController(db *gorm.DB, pusher Notifications.Pusher) *CommentController {
	return &CommentController{DB: db, Pusher: pusher}
}

type createCommentInput struct {
	TaskID   uint     `json:"taskId" validate:"required"`
	Text     string   `json:"text" validate:"required"`
	Mentions []string `json:"mentions"`
}

const mentionPreviewLen = 50

// CreateComment inserts a comment and its mention notifications in one
// transaction: either both are persisted or neither. Self-mentions are
// filtered; mentioned users with a device token get a preview push after
// commit.
func (cc *CommentController) CreateComment(ctx *fiber.Ctx) error {
	author := middleware.CurrentUser(ctx)

	var input createCommentInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"issues": validationIssues(err)})
	}

	var task Models.Task
	if err := cc.DB.First(&task, input.TaskID).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task not found"})
	}

	mentioned := make([]string, 0, len(input.Mentions))
	for _, id := range input.Mentions {
		if id != author.ID {
			mentioned = append(mentioned, id)
		}
	}

	comment := Models.Comment{TaskID: task.ID, UserID: author.ID, Text: input.Text}
	err := cc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		return Notifications.CommentMentions(tx, mentioned, author.ID, task.ID, comment.ID, comment.Text)
	})
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create comment"})
	}

	if len(mentioned) > 0 {
		var recipients []Models.User
		if err := cc.DB.Where("id IN ? AND fcm_token <> ''", mentioned).Find(&recipients).Error; err == nil {
			preview := comment.Text
			if runes := []rune(preview); len(runes) > mentionPreviewLen {
				preview = string(runes[:mentionPreviewLen]) + "..."
			}
			for _, r := range recipients {
				Notifications.SendAsync(cc.Pusher, r.FCMToken, "You were mentioned", preview)
			}
		}
	}

	return ctx.Status(fiber.StatusCreated).JSON(comment)
}

// CommentView is a comment annotated with like state for the requester.
type CommentView struct {
	Models.Comment
	User       Models.UserSummary `json:"user"`
	LikesCount int                `json:"likesCount"`
	LikedByMe  bool               `json:"likedByMe"`
}

// GetComments lists a task's comments newest first.
func (cc *CommentController) GetComments(ctx *fiber.Ctx) error {
	requester := middleware.CurrentUser(ctx)
	taskID, err := strconv.Atoi(ctx.Params("taskId"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task ID"})
	}

	var comments []Models.Comment
	err = cc.DB.Preload("User").Where("task_id = ?", taskID).
		Order("created_at DESC").Order("id DESC").Find(&comments).Error
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch comments"})
	}

	commentIDs := make([]uint, 0, len(comments))
	for _, c := range comments {
		commentIDs = append(commentIDs, c.ID)
	}
	var likes []Models.CommentLike
	if len(commentIDs) > 0 {
		if err := cc.DB.Where("comment_id IN ?", commentIDs).Find(&likes).Error; err != nil {
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch comments"})
		}
	}
	likeCount := make(map[uint]int)
	likedByMe := make(map[uint]bool)
	for _, l := range likes {
		likeCount[l.CommentID]++
		if l.UserID == requester.ID {
			likedByMe[l.CommentID] = true
		}
	}

	result := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		result = append(result, CommentView{
			Comment:    c,
			User:       c.User.Summary(),
			LikesCount: likeCount[c.ID],
			LikedByMe:  likedByMe[c.ID],
		})
	}
	return ctx.JSON(result)
}

type toggleLikeInput struct {
	CommentID uint `json:"commentId" validate:"required"`
	Like      bool `json:"like"`
}

// ToggleLike sets or clears the requester's like on a comment. Both
// directions are idempotent.
func (cc *CommentController) ToggleLike(ctx *fiber.Ctx) error {
	requester := middleware.CurrentUser(ctx)

	var input toggleLikeInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"issues": validationIssues(err)})
	}

	var comment Models.Comment
	if err := cc.DB.First(&comment, input.CommentID).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Comment not found"})
	}

	if input.Like {
		like := Models.CommentLike{CommentID: comment.ID, UserID: requester.ID}
		err := cc.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "comment_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).Create(&like).Error
		if err != nil {
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to like comment"})
		}
	} else {
		err := cc.DB.Where("comment_id = ? AND user_id = ?", comment.ID, requester.ID).
			Delete(&Models.CommentLike{}).Error
		if err != nil {
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to unlike comment"})
		}
	}

	return ctx.JSON(fiber.Map{"commentId": comment.ID, "liked": input.Like})
}
