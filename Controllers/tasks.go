package Controllers

import (
	"fmt"
	"strconv"
	"time"

	"Huddle/Models"
	"Huddle/Notifications"
	"Huddle/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// TaskController handles the task lifecycle: typed creation, the annotated
// feed, partial updates, deletion and completion toggles.
type TaskController struct {
	DB        *gorm.DB
	Pusher    Notifications.Pusher
	Scheduler *Notifications.Scheduler
}

func NewTaskController(db *gorm.DB, pusher Notifications.Pusher, scheduler *Notifications.Scheduler) *TaskController {
	return &TaskController{DB: db, Pusher: pusher, Scheduler: scheduler}
}

type createTaskInput struct {
	Text      string     `json:"text" validate:"required"`
	Type      string     `json:"type" validate:"required,oneof=reminder decision motivation advice"`
	Avatar    string     `json:"avatar"`
	RemindAt  *time.Time `json:"remindAt"`
	Options   []string   `json:"options"`
	DeliverAt *time.Time `json:"deliverAt"`
	Helpers   []string   `json:"helpers"`
}

// helperInviteBody is the push text per task type when inviting helpers.
func helperInviteBody(taskType, text string) string {
	switch taskType {
	case Models.TaskTypeReminder:
		return fmt.Sprintf("You've been asked to help with a reminder: %q", text)
	case Models.TaskTypeAdvice:
		return fmt.Sprintf("Someone needs your advice on: %q", text)
	case Models.TaskTypeMotivation:
		return fmt.Sprintf("You've been invited to motivate someone on: %q", text)
	default:
		return fmt.Sprintf("You've been asked to help decide: %q", text)
	}
}

// CreateTask creates a typed task. Only the fields matching the type are
// persisted; duplicate text per owner is rejected with 409. Side effects:
// a scheduled push for future reminders and immediate push + in-app
// notifications for invited helpers.
func (tc *TaskController) CreateTask(ctx *fiber.Ctx) error {
	owner := middleware.CurrentUser(ctx)

	var input createTaskInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"issues": validationIssues(err)})
	}

	switch input.Type {
	case Models.TaskTypeReminder:
		if input.RemindAt == nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "remindAt is required for reminder tasks"})
		}
	case Models.TaskTypeDecision:
		if len(distinct(input.Options)) < 2 {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "At least two distinct options are required"})
		}
	}

	// Fast path for the friendlier message; the (user_id, text) unique
	// index is what actually enforces the rule.
	var dup Models.Task
	if err := tc.DB.Where("user_id = ? AND text = ?", owner.ID, input.Text).First(&dup).Error; err == nil {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "You already created this task."})
	}

	avatar := input.Avatar
	if avatar == "" {
		avatar = owner.Photo
	}

	task := Models.Task{
		UserID: owner.ID,
		Text:   input.Text,
		Type:   input.Type,
		Name:   owner.Name,
		Avatar: avatar,
	}
	switch input.Type {
	case Models.TaskTypeReminder:
		task.RemindAt = input.RemindAt
	case Models.TaskTypeDecision:
		if err := task.SetOptions(distinct(input.Options)); err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid options"})
		}
	case Models.TaskTypeMotivation:
		task.DeliverAt = input.DeliverAt
	}

	var helpers []Models.User
	if len(input.Helpers) > 0 && Models.TaskSupportsHelpers(input.Type) {
		if err := tc.DB.Where("id IN ?", input.Helpers).Find(&helpers).Error; err != nil {
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve helpers"})
		}
		task.Helpers = helpers
	}

	if err := tc.DB.Create(&task).Error; err != nil {
		if isDuplicateErr(err) {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "You already created this task."})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create task"})
	}

	if task.Type == Models.TaskTypeReminder && task.RemindAt != nil &&
		task.RemindAt.After(time.Now()) && owner.FCMToken != "" {
		err := tc.Scheduler.Schedule(owner.FCMToken, "Reminder Complete",
			fmt.Sprintf("It's time to act on your task: %q", task.Text), *task.RemindAt)
		if err != nil {
			Notifications.FanOutLogged("schedule reminder push", err)
		}
	}

	if len(helpers) > 0 {
		for _, helper := range helpers {
			if helper.FCMToken != "" {
				Notifications.SendAsync(tc.Pusher, helper.FCMToken,
					"Someone needs your help", helperInviteBody(task.Type, task.Text))
			}
		}
		Notifications.FanOutLogged("helper invites",
			Notifications.HelperInvites(tc.DB, task.HelperIDs(), owner.ID, task.ID, task.Text))
	}

	return ctx.Status(fiber.StatusCreated).JSON(task)
}

// OptionTally is the per-option aggregate attached to decision tasks in
// the feed: a count plus a bounded voter preview.
type OptionTally struct {
	Count   int                  `json:"count"`
	Preview []Models.UserSummary `json:"preview"`
}

// TaskFeedItem is a task annotated for the requesting user.
type TaskFeedItem struct {
	Models.Task
	HasReminded bool                   `json:"hasReminded"`
	Votes       map[string]OptionTally `json:"votes"`
	VotedOption *string                `json:"votedOption"`
}

const voterPreviewLimit = 4

// GetTasks lists tasks owned by the requester and everyone they follow,
// newest first, annotated with reminder/vote/helper state.
func (tc *TaskController) GetTasks(ctx *fiber.Ctx) error {
	requester := middleware.CurrentUser(ctx)
	limit, _ := strconv.Atoi(ctx.Query("limit"))
	excludeSelf := ctx.Query("excludeSelf") == "true"

	var ownerIDs []string
	if err := tc.DB.Model(&Models.Follow{}).Where("follower_id = ?", requester.ID).
		Pluck("following_id", &ownerIDs).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch tasks"})
	}
	if !excludeSelf {
		ownerIDs = append([]string{requester.ID}, ownerIDs...)
	}

	query := tc.DB.Preload("Helpers").Where("user_id IN ?", ownerIDs).
		Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var tasks []Models.Task
	if err := query.Find(&tasks).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch tasks"})
	}

	taskIDs := make([]uint, 0, len(tasks))
	for _, t := range tasks {
		taskIDs = append(taskIDs, t.ID)
	}

	// Tasks the requester already sent a reminder note for.
	var remindedIDs []uint
	if err := tc.DB.Model(&Models.ReminderNote{}).Where("sender_id = ?", requester.ID).
		Pluck("task_id", &remindedIDs).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch tasks"})
	}
	reminded := make(map[uint]bool, len(remindedIDs))
	for _, id := range remindedIDs {
		reminded[id] = true
	}

	// All votes for the visible tasks, joined with a voter projection.
	type voterRow struct {
		TaskID uint   `gorm:"column:task_id"`
		Option string `gorm:"column:choice"`
		UserID string `gorm:"column:user_id"`
		Name   string `gorm:"column:name"`
		Photo  string `gorm:"column:photo"`
	}
	var voteRows []voterRow
	if len(taskIDs) > 0 {
		err := tc.DB.Table("votes").
			Select("votes.task_id, votes.choice, users.id AS user_id, users.name, users.photo").
			Joins("JOIN users ON users.id = votes.user_id").
			Where("votes.task_id IN ?", taskIDs).
			Order("votes.id").
			Scan(&voteRows).Error
		if err != nil {
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch tasks"})
		}
	}

	voteMap := make(map[uint]map[string]OptionTally)
	ownVote := make(map[uint]string)
	for _, row := range voteRows {
		tallies := voteMap[row.TaskID]
		if tallies == nil {
			tallies = make(map[string]OptionTally)
			voteMap[row.TaskID] = tallies
		}
		tally := tallies[row.Option]
		tally.Count++
		if len(tally.Preview) < voterPreviewLimit {
			tally.Preview = append(tally.Preview, Models.UserSummary{ID: row.UserID, Name: row.Name, Photo: row.Photo})
		}
		tallies[row.Option] = tally
		if row.UserID == requester.ID {
			ownVote[row.TaskID] = row.Option
		}
	}

	feed := make([]TaskFeedItem, 0, len(tasks))
	for _, t := range tasks {
		item := TaskFeedItem{
			Task:        t,
			HasReminded: reminded[t.ID],
			Votes:       voteMap[t.ID],
		}
		if item.Votes == nil {
			item.Votes = map[string]OptionTally{}
		}
		if opt, ok := ownVote[t.ID]; ok {
			item.VotedOption = &opt
		}
		feed = append(feed, item)
	}
	return ctx.JSON(feed)
}

// GetTask returns a single task with helpers.
func (tc *TaskController) GetTask(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task ID"})
	}
	var task Models.Task
	if err := tc.DB.Preload("Helpers").First(&task, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task not found."})
	}
	return ctx.JSON(task)
}

type updateTaskInput struct {
	Text      *string    `json:"text"`
	Type      *string    `json:"type"`
	Name      *string    `json:"name"`
	Avatar    *string    `json:"avatar"`
	RemindAt  *time.Time `json:"remindAt"`
	Options   []string   `json:"options"`
	DeliverAt *time.Time `json:"deliverAt"`
	Helpers   *[]string  `json:"helpers"`
}

// UpdateTask applies a partial update. A text change colliding with
// another task of the same owner is rejected; type-specific fields are
// cleared when the type changes; helper replacement only applies to
// helper-eligible types.
func (tc *TaskController) UpdateTask(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task ID"})
	}

	var task Models.Task
	if err := tc.DB.First(&task, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task not found."})
	}

	var input updateTaskInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if input.Text != nil && *input.Text != task.Text {
		// Exclude the task itself so a no-op text edit is not rejected.
		var dup Models.Task
		err := tc.DB.Where("user_id = ? AND text = ? AND id <> ?", task.UserID, *input.Text, task.ID).First(&dup).Error
		if err == nil {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "You already have another task with the same text."})
		}
		task.Text = *input.Text
	}

	newType := task.Type
	if input.Type != nil {
		if !Models.TaskTypeValid(*input.Type) {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task type"})
		}
		newType = *input.Type
	}
	typeChanged := newType != task.Type
	task.Type = newType

	if input.Name != nil {
		task.Name = *input.Name
	}
	if input.Avatar != nil {
		task.Avatar = *input.Avatar
	}

	// Fields outside the discriminant are cleared; the rest update only
	// when provided.
	if typeChanged {
		task.RemindAt = nil
		task.Options = nil
		task.DeliverAt = nil
	}
	switch newType {
	case Models.TaskTypeReminder:
		if input.RemindAt != nil {
			task.RemindAt = input.RemindAt
		}
	case Models.TaskTypeDecision:
		if input.Options != nil {
			opts := distinct(input.Options)
			if len(opts) < 2 {
				return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "At least two distinct options are required"})
			}
			if err := task.SetOptions(opts); err != nil {
				return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid options"})
			}
		}
	case Models.TaskTypeMotivation:
		if input.DeliverAt != nil {
			task.DeliverAt = input.DeliverAt
		}
	}

	if err := tc.DB.Omit("Helpers").Save(&task).Error; err != nil {
		if isDuplicateErr(err) {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "You already have another task with the same text."})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update task"})
	}

	if input.Helpers != nil && Models.TaskSupportsHelpers(newType) {
		var helpers []Models.User
		if len(*input.Helpers) > 0 {
			if err := tc.DB.Where("id IN ?", *input.Helpers).Find(&helpers).Error; err != nil {
				return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve helpers"})
			}
		}
		if err := tc.DB.Model(&task).Association("Helpers").Replace(helpers); err != nil {
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update helpers"})
		}
	}

	if err := tc.DB.Preload("Helpers").First(&task, task.ID).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update task"})
	}
	return ctx.JSON(task)
}

// DeleteTask removes a task and cascades its votes first.
func (tc *TaskController) DeleteTask(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task ID"})
	}

	var task Models.Task
	if err := tc.DB.First(&task, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task not found."})
	}

	if err := tc.DB.Where("task_id = ?", task.ID).Delete(&Models.Vote{}).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete task"})
	}
	if err := tc.DB.Select("Helpers").Delete(&task).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete task"})
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

// MarkDone marks a task complete. Owner only. Completing a decision task
// with helpers fans out "decision finalized" pushes and notifications.
func (tc *TaskController) MarkDone(ctx *fiber.Ctx) error {
	return tc.setCompletion(ctx, true)
}

// MarkNotDone clears the completion flag and timestamp. Owner only.
func (tc *TaskController) MarkNotDone(ctx *fiber.Ctx) error {
	return tc.setCompletion(ctx, false)
}

func (tc *TaskController) setCompletion(ctx *fiber.Ctx, done bool) error {
	requester := middleware.CurrentUser(ctx)
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task ID"})
	}

	var task Models.Task
	if err := tc.DB.Preload("Helpers").First(&task, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task not found"})
	}
	if task.UserID != requester.ID {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized to mark this task"})
	}

	if done && task.Type == Models.TaskTypeDecision && len(task.Helpers) > 0 {
		for _, helper := range task.Helpers {
			if helper.FCMToken != "" {
				Notifications.SendAsync(tc.Pusher, helper.FCMToken, "Decision Finalized",
					"A decision task you helped with has been marked as done. See the result in the app.")
			}
		}
		Notifications.FanOutLogged("decision done",
			Notifications.DecisionDone(tc.DB, task.HelperIDs(), requester.ID, task.ID, task.Text))
	}

	updates := map[string]interface{}{"completed": done}
	if done {
		now := time.Now()
		updates["completed_at"] = now
		task.Completed = true
		task.CompletedAt = &now
	} else {
		updates["completed_at"] = nil
		task.Completed = false
		task.CompletedAt = nil
	}
	if err := tc.DB.Model(&Models.Task{}).Where("id = ?", task.ID).Updates(updates).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update task"})
	}
	return ctx.JSON(task)
}

// distinct preserves order while dropping duplicate options.
func distinct(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
