package Controllers

import (
	"strconv"
	"strings"

	"Huddle/Models"
	"Huddle/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VoteController handles single-choice voting on decision tasks.
type VoteController struct {
	DB *gorm.DB
}

func NewVoteController(db *gorm.DB) *VoteController {
	return &VoteController{DB: db}
}

type castVoteInput struct {
	NextOption string `json:"nextOption"`
	PrevOption string `json:"prevOption"`
	Option     string `json:"option"`
}

// CastVote upserts the requester's vote on a decision task and returns
// the fresh per-option counts. A second vote overwrites the choice; no
// history is kept.
func (vc *VoteController) CastVote(ctx *fiber.Ctx) error {
	requester := middleware.CurrentUser(ctx)
	taskID, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task ID"})
	}

	var input castVoteInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	chosen := strings.TrimSpace(input.NextOption)
	if chosen == "" {
		chosen = strings.TrimSpace(input.Option)
	}
	if chosen == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "nextOption is required"})
	}

	var task Models.Task
	if err := vc.DB.First(&task, taskID).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task not found"})
	}
	if task.Type != Models.TaskTypeDecision {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Task is not a decision type"})
	}
	if !task.HasOption(chosen) {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid voting option"})
	}

	vote := Models.Vote{UserID: requester.ID, TaskID: task.ID, Option: chosen}
	err = vc.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "task_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"choice", "updated_at"}),
	}).Create(&vote).Error
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to cast vote"})
	}

	counts, err := vc.countVotes(task.ID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to tally votes"})
	}

	var prevOption *string
	if p := strings.TrimSpace(input.PrevOption); p != "" {
		prevOption = &p
	}
	return ctx.JSON(fiber.Map{
		"vote":        vote,
		"votedOption": chosen,
		"prevOption":  prevOption,
		"counts":      counts,
		"taskId":      task.ID,
	})
}

// GetVotes returns the option-to-count mapping for a task, computed fresh
// from the stored vote rows.
func (vc *VoteController) GetVotes(ctx *fiber.Ctx) error {
	taskID, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task ID"})
	}
	counts, err := vc.countVotes(uint(taskID))
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to tally votes"})
	}
	return ctx.JSON(counts)
}

func (vc *VoteController) countVotes(taskID uint) (map[string]int64, error) {
	var rows []Models.VoteCount
	err := vc.DB.Model(&Models.Vote{}).
		Select("choice, COUNT(*) AS count").
		Where("task_id = ?", taskID).
		Group("choice").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Option] = row.Count
	}
	return counts, nil
}
