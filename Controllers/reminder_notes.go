package Controllers

import (
	"strconv"
	"strings"

	"Huddle/Models"
	"Huddle/Notifications"
	"Huddle/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ReminderNoteController handles one-shot peer nudges on tasks.
type ReminderNoteController struct {
	DB     *gorm.DB
	Pusher Notifications.Pusher
}

func NewReminderNoteController(db *gorm.DB, pusher Notifications.Pusher) *ReminderNoteController {
	return &ReminderNoteController{DB: db, Pusher: pusher}
}

type sendReminderInput struct {
	Message string `json:"message"`
}

// SendReminderNote sends a nudge from the requester to a task's owner.
// At most one note per (task, sender); the task owner cannot remind
// themselves. On success the owner gets a push and an in-app reminder
// notification with a sender snapshot.
func (rc *ReminderNoteController) SendReminderNote(ctx *fiber.Ctx) error {
	sender := middleware.CurrentUser(ctx)
	taskID, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task ID"})
	}

	var input sendReminderInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Reminder message cannot be empty."})
	}

	var task Models.Task
	if err := rc.DB.First(&task, taskID).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task not found."})
	}
	if task.UserID == sender.ID {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "You cannot remind yourself."})
	}

	// Fast path; the (task_id, sender_id) unique index settles the race.
	var existing Models.ReminderNote
	if err := rc.DB.Where("task_id = ? AND sender_id = ?", task.ID, sender.ID).First(&existing).Error; err == nil {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "You already sent a reminder for this task."})
	}

	note := Models.ReminderNote{TaskID: task.ID, SenderID: sender.ID, Message: message}
	if err := rc.DB.Create(&note).Error; err != nil {
		if isDuplicateErr(err) {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "You already sent a reminder for this task."})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to send reminder"})
	}

	var owner Models.User
	if err := rc.DB.Where("id = ?", task.UserID).First(&owner).Error; err == nil && owner.FCMToken != "" {
		Notifications.SendAsync(rc.Pusher, owner.FCMToken, "You got a reminder!", message)
	}
	Notifications.FanOutLogged("reminder note",
		Notifications.Reminded(rc.DB, sender, task.UserID, task.ID, task.Text))

	return ctx.Status(fiber.StatusCreated).JSON(note)
}

// GetRemindersByTask lists a task's reminder notes newest first.
func (rc *ReminderNoteController) GetRemindersByTask(ctx *fiber.Ctx) error {
	taskID, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task ID"})
	}

	var notes []Models.ReminderNote
	err = rc.DB.Where("task_id = ?", taskID).
		Order("created_at DESC").Order("id DESC").Find(&notes).Error
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch reminders"})
	}
	return ctx.JSON(notes)
}
