package Controllers

import (
	"strings"
	"time"

	"Huddle/Models"
	"Huddle/Notifications"
	"Huddle/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserController handles identity sync and the social graph.
type UserController struct {
	DB       *gorm.DB
	Verifier middleware.IdentityVerifier
	Pusher   Notifications.Pusher
}

func NewUserController(db *gorm.DB, verifier middleware.IdentityVerifier, pusher Notifications.Pusher) *UserController {
	return &UserController{DB: db, Verifier: verifier, Pusher: pusher}
}

// FriendView is a user summary annotated with the requester's follow edge.
type FriendView struct {
	Models.UserSummary
	IsFollowing bool `json:"isFollowing"`
}

type syncUserInput struct {
	FCMToken string `json:"fcmToken"`
}

// SyncUser verifies the external identity token from the Authorization
// header, upserts the user record and issues a session token.
func (uc *UserController) SyncUser(ctx *fiber.Ctx) error {
	if uc.Verifier == nil {
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Sign-in verification is not configured"})
	}

	header := ctx.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing or invalid token"})
	}

	identity, err := uc.Verifier.Verify(ctx.Context(), strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token verification failed"})
	}
	if identity.ID == "" || identity.Email == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing required user fields"})
	}

	var input syncUserInput
	_ = ctx.BodyParser(&input) // body is optional, carries the device token

	user := Models.User{
		ID:       identity.ID,
		Email:    strings.ToLower(identity.Email),
		Name:     identity.Name,
		Photo:    identity.Photo,
		FCMToken: input.FCMToken,
	}
	err = uc.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "name", "photo", "fcm_token", "updated_at"}),
	}).Create(&user).Error
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to sync user"})
	}

	token, err := middleware.IssueToken(user.ID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to issue session token"})
	}

	return ctx.JSON(fiber.Map{"user": user, "token": token})
}

type matchUsersInput struct {
	Emails []string `json:"emails"`
}

// MatchUsers resolves contacts by email and flags the ones the requester
// already follows.
func (uc *UserController) MatchUsers(ctx *fiber.Ctx) error {
	requester := middleware.CurrentUser(ctx)

	var input matchUsersInput
	if err := ctx.BodyParser(&input); err != nil || input.Emails == nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "`emails` must be an array"})
	}

	normalized := make([]string, 0, len(input.Emails))
	for _, e := range input.Emails {
		normalized = append(normalized, strings.ToLower(e))
	}

	var users []Models.User
	if err := uc.DB.Where("email IN ? AND id <> ?", normalized, requester.ID).Find(&users).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to match users"})
	}

	followed, err := uc.followingIDSet(requester.ID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to match users"})
	}

	result := make([]FriendView, 0, len(users))
	for _, u := range users {
		result = append(result, FriendView{UserSummary: u.Summary(), IsFollowing: followed[u.ID]})
	}
	return ctx.JSON(result)
}

// ToggleFollow flips the follow edge toward :userId. Following someone
// creates a follow notification and a best-effort push.
func (uc *UserController) ToggleFollow(ctx *fiber.Ctx) error {
	requester := middleware.CurrentUser(ctx)
	followingID := ctx.Params("userId")

	if followingID == requester.ID {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "You cannot follow yourself."})
	}

	var target Models.User
	if err := uc.DB.Where("id = ?", followingID).First(&target).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	var existing Models.Follow
	err := uc.DB.Where("follower_id = ? AND following_id = ?", requester.ID, followingID).First(&existing).Error
	if err == nil {
		if err := uc.DB.Delete(&existing).Error; err != nil {
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to toggle follow"})
		}
		return ctx.JSON(fiber.Map{"success": true, "action": "unfollowed"})
	}
	if !isNotFoundErr(err) {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to toggle follow"})
	}

	follow := Models.Follow{FollowerID: requester.ID, FollowingID: followingID}
	if err := uc.DB.Create(&follow).Error; err != nil {
		if isDuplicateErr(err) {
			// Raced with another toggle; the edge already exists.
			return ctx.JSON(fiber.Map{"success": true, "action": "followed"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to toggle follow"})
	}

	Notifications.FanOutLogged("follow", Notifications.Followed(uc.DB, requester, followingID))
	if target.FCMToken != "" {
		Notifications.SendAsync(uc.Pusher, target.FCMToken, "New follower", requester.Name+" followed you")
	}

	return ctx.JSON(fiber.Map{"success": true, "action": "followed"})
}

// GetFollowers lists the users following the requester, annotated with
// whether the requester follows them back.
func (uc *UserController) GetFollowers(ctx *fiber.Ctx) error {
	requester := middleware.CurrentUser(ctx)

	var followers []Models.User
	err := uc.DB.
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.following_id = ? AND follows.follower_id <> ?", requester.ID, requester.ID).
		Find(&followers).Error
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch followers"})
	}

	followed, err := uc.followingIDSet(requester.ID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch followers"})
	}

	result := make([]FriendView, 0, len(followers))
	for _, u := range followers {
		result = append(result, FriendView{UserSummary: u.Summary(), IsFollowing: followed[u.ID]})
	}
	return ctx.JSON(result)
}

// GetFollowing lists the users the requester follows.
func (uc *UserController) GetFollowing(ctx *fiber.Ctx) error {
	requester := middleware.CurrentUser(ctx)

	var following []Models.User
	err := uc.DB.
		Joins("JOIN follows ON follows.following_id = users.id").
		Where("follows.follower_id = ? AND follows.following_id <> ?", requester.ID, requester.ID).
		Find(&following).Error
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch following"})
	}

	result := make([]FriendView, 0, len(following))
	for _, u := range following {
		result = append(result, FriendView{UserSummary: u.Summary(), IsFollowing: true})
	}
	return ctx.JSON(result)
}

// GetMe returns the requester's profile with graph counts and task stats.
func (uc *UserController) GetMe(ctx *fiber.Ctx) error {
	requester := middleware.CurrentUser(ctx)

	followersCount, followingCount, err := uc.graphCounts(requester.ID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch user profile"})
	}
	stats, err := uc.taskStats(requester.ID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch user profile"})
	}

	return ctx.JSON(fiber.Map{
		"id":              requester.ID,
		"name":            requester.Name,
		"email":           requester.Email,
		"photo":           requester.Photo,
		"createdAt":       requester.CreatedAt,
		"followersCount":  followersCount,
		"followingCount":  followingCount,
		"taskSuccessRate": stats.SuccessRate,
		"tasksDone":       stats.TasksDone,
		"dayStreak":       stats.DayStreak,
	})
}

// SearchFriends does a fuzzy name/email search, excluding the requester
// and, unless includeFollowed is set, everyone already followed.
func (uc *UserController) SearchFriends(ctx *fiber.Ctx) error {
	requester := middleware.CurrentUser(ctx)
	query := strings.TrimSpace(ctx.Query("query"))
	includeFollowed := ctx.Query("includeFollowed") == "true"

	if query == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing search query"})
	}

	followed, err := uc.followingIDSet(requester.ID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to search"})
	}

	pattern := "%" + strings.ToLower(query) + "%"
	var users []Models.User
	err = uc.DB.
		Where("id <> ?", requester.ID).
		Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern).
		Limit(10).
		Find(&users).Error
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to search"})
	}

	result := make([]FriendView, 0, len(users))
	for _, u := range users {
		if !includeFollowed && followed[u.ID] {
			continue
		}
		result = append(result, FriendView{UserSummary: u.Summary(), IsFollowing: followed[u.ID]})
	}
	return ctx.JSON(result)
}

// GetProfile returns another user's public profile: counts, follow edges
// in both directions, recent tasks, mutual friends and task stats.
func (uc *UserController) GetProfile(ctx *fiber.Ctx) error {
	requester := middleware.CurrentUser(ctx)
	targetID := ctx.Params("id")

	var target Models.User
	if err := uc.DB.Where("id = ?", targetID).First(&target).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	followersCount, followingCount, err := uc.graphCounts(targetID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch profile"})
	}
	stats, err := uc.taskStats(targetID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch profile"})
	}

	var recentTasks []Models.Task
	if err := uc.DB.Preload("Helpers").Where("user_id = ?", targetID).
		Order("created_at DESC").Limit(5).Find(&recentTasks).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch profile"})
	}

	mutuals, err := uc.mutualFriends(requester.ID, targetID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch profile"})
	}

	var isFollowing, isFollowedBy int64
	uc.DB.Model(&Models.Follow{}).Where("follower_id = ? AND following_id = ?", requester.ID, targetID).Count(&isFollowing)
	uc.DB.Model(&Models.Follow{}).Where("follower_id = ? AND following_id = ?", targetID, requester.ID).Count(&isFollowedBy)

	return ctx.JSON(fiber.Map{
		"id":              target.ID,
		"name":            target.Name,
		"email":           target.Email,
		"photo":           target.Photo,
		"followersCount":  followersCount,
		"followingCount":  followingCount,
		"isFollowing":     isFollowing > 0,
		"isFollowedBy":    isFollowedBy > 0,
		"recentTasks":     recentTasks,
		"mutualFriends":   mutuals,
		"taskSuccessRate": stats.SuccessRate,
		"tasksDone":       stats.TasksDone,
		"dayStreak":       stats.DayStreak,
	})
}

func (uc *UserController) followingIDSet(userID string) (map[string]bool, error) {
	var ids []string
	err := uc.DB.Model(&Models.Follow{}).Where("follower_id = ?", userID).Pluck("following_id", &ids).Error
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func (uc *UserController) graphCounts(userID string) (followers int64, following int64, err error) {
	if err = uc.DB.Model(&Models.Follow{}).Where("following_id = ?", userID).Count(&followers).Error; err != nil {
		return
	}
	err = uc.DB.Model(&Models.Follow{}).Where("follower_id = ?", userID).Count(&following).Error
	return
}

// mutualFriends returns up to 5 users both sides follow.
func (uc *UserController) mutualFriends(currentID, targetID string) ([]Models.UserSummary, error) {
	currentSet, err := uc.followingIDSet(currentID)
	if err != nil {
		return nil, err
	}
	targetSet, err := uc.followingIDSet(targetID)
	if err != nil {
		return nil, err
	}

	mutualIDs := make([]string, 0)
	for id := range targetSet {
		if currentSet[id] {
			mutualIDs = append(mutualIDs, id)
		}
	}
	if len(mutualIDs) == 0 {
		return []Models.UserSummary{}, nil
	}

	var users []Models.User
	if err := uc.DB.Where("id IN ?", mutualIDs).Limit(5).Find(&users).Error; err != nil {
		return nil, err
	}
	result := make([]Models.UserSummary, 0, len(users))
	for _, u := range users {
		result = append(result, u.Summary())
	}
	return result, nil
}

// TaskStats summarizes a user's completion record. DayStreak counts
// consecutive days ending today with at least one completion.
type TaskStats struct {
	TasksDone   int `json:"tasksDone"`
	SuccessRate int `json:"taskSuccessRate"`
	DayStreak   int `json:"dayStreak"`
	Total       int `json:"-"`
}

func (uc *UserController) taskStats(userID string) (TaskStats, error) {
	var tasks []Models.Task
	if err := uc.DB.Select("completed", "completed_at").Where("user_id = ?", userID).Find(&tasks).Error; err != nil {
		return TaskStats{}, err
	}

	stats := TaskStats{Total: len(tasks)}
	completedDates := make(map[string]bool)
	for _, t := range tasks {
		if t.Completed {
			stats.TasksDone++
			if t.CompletedAt != nil {
				completedDates[t.CompletedAt.UTC().Format("2006-01-02")] = true
			}
		}
	}
	if stats.Total > 0 {
		stats.SuccessRate = int(float64(stats.TasksDone)/float64(stats.Total)*100 + 0.5)
	}

	day := time.Now().UTC()
	for completedDates[day.Format("2006-01-02")] {
		stats.DayStreak++
		day = day.AddDate(0, 0, -1)
	}
	return stats, nil
}
