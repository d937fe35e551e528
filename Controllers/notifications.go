package Controllers

import (
	"strconv"

	"Huddle/Models"
	"Huddle/Notifications"
	"Huddle/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// NotificationController serves the in-app notification feed.
type NotificationController struct {
	DB     *gorm.DB
	Pusher Notifications.Pusher
}

func NewNotificationController(db *gorm.DB, pusher Notifications.Pusher) *NotificationController {
	return &NotificationController{DB: db, Pusher: pusher}
}

// GetNotifications lists the requester's notifications newest first with
// a lightweight sender projection.
func (nc *NotificationController) GetNotifications(ctx *fiber.Ctx) error {
	requester := middleware.CurrentUser(ctx)

	var notifications []Models.Notification
	err := nc.DB.
		Preload("Sender", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "photo")
		}).
		Where("user_id = ?", requester.ID).
		Order("created_at DESC").Order("id DESC").
		Find(&notifications).Error
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch notifications"})
	}
	return ctx.JSON(notifications)
}

// MarkRead marks one notification read. Marking an already-read or
// unknown id is not an error.
func (nc *NotificationController) MarkRead(ctx *fiber.Ctx) error {
	requester := middleware.CurrentUser(ctx)
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid notification ID"})
	}

	err = nc.DB.Model(&Models.Notification{}).
		Where("id = ? AND user_id = ?", id, requester.ID).
		Update("read", true).Error
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to mark notification"})
	}
	return ctx.JSON(fiber.Map{"success": true})
}

type markManyInput struct {
	IDs []uint `json:"ids"`
}

// MarkManyRead marks a batch of notifications read, idempotently.
func (nc *NotificationController) MarkManyRead(ctx *fiber.Ctx) error {
	requester := middleware.CurrentUser(ctx)

	var input markManyInput
	if err := ctx.BodyParser(&input); err != nil || input.IDs == nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "`ids` must be an array"})
	}
	if len(input.IDs) == 0 {
		return ctx.JSON(fiber.Map{"success": true, "updated": 0})
	}

	result := nc.DB.Model(&Models.Notification{}).
		Where("id IN ? AND user_id = ?", input.IDs, requester.ID).
		Update("read", true)
	if result.Error != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to mark notifications"})
	}
	return ctx.JSON(fiber.Map{"success": true, "updated": result.RowsAffected})
}

// SendTest pushes a test notification to the requester's own device.
func (nc *NotificationController) SendTest(ctx *fiber.Ctx) error {
	requester := middleware.CurrentUser(ctx)
	if requester.FCMToken == "" {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User or FCM token not found"})
	}
	if err := nc.Pusher.Send(ctx.Context(), requester.FCMToken, "Test Notification", "This is a test."); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to send push"})
	}
	return ctx.JSON(fiber.Map{"success": true})
}
