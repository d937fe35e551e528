package FiberConfig

import (
	"log"
	"os"

	"Huddle/Controllers"
	"Huddle/Notifications"
	"Huddle/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"gorm.io/gorm"
)

// SetupRoutes wires every controller onto the app.
func SetupRoutes(app *fiber.App, db *gorm.DB, verifier middleware.IdentityVerifier, pusher Notifications.Pusher, scheduler *Notifications.Scheduler) {
	userController := Controllers.NewUserController(db, verifier, pusher)
	taskController := Controllers.NewTaskController(db, pusher, scheduler)
	voteController := Controllers.NewVoteController(db)
	commentController := Controllers.NewCommentController(db, pusher)
	reminderController := Controllers.NewReminderNoteController(db, pusher)
	notificationController := Controllers.NewNotificationController(db, pusher)

	auth := middleware.Protected(db)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Identity sync authenticates with the external ID token, not a session.
	users := app.Group("/users")
	users.Post("/", userController.SyncUser)
	users.Post("/match", auth, userController.MatchUsers)
	users.Get("/toggleFollow/:userId", auth, userController.ToggleFollow)
	users.Get("/followers", auth, userController.GetFollowers)
	users.Get("/following", auth, userController.GetFollowing)
	users.Get("/me", auth, userController.GetMe)
	users.Get("/search-friends", auth, userController.SearchFriends)
	users.Get("/:id/profile", auth, userController.GetProfile)

	tasks := app.Group("/tasks", auth)
	tasks.Post("/", taskController.CreateTask)
	tasks.Get("/", taskController.GetTasks)
	tasks.Get("/:id", taskController.GetTask)
	tasks.Patch("/:id", taskController.UpdateTask)
	tasks.Put("/:id", taskController.UpdateTask)
	tasks.Delete("/:id", taskController.DeleteTask)
	tasks.Patch("/:id/complete", taskController.MarkDone)
	tasks.Patch("/:id/incomplete", taskController.MarkNotDone)
	tasks.Post("/:id/remind", reminderController.SendReminderNote)
	tasks.Get("/:id/reminders", reminderController.GetRemindersByTask)

	votes := app.Group("/vote", auth)
	votes.Post("/tasks/:id/vote", voteController.CastVote)
	votes.Get("/tasks/:id/votes", voteController.GetVotes)

	comments := app.Group("/comments", auth)
	comments.Post("/", commentController.CreateComment)
	comments.Post("/like", commentController.ToggleLike)
	comments.Get("/:taskId", commentController.GetComments)

	notifications := app.Group("/notification", auth)
	notifications.Get("/", notificationController.GetNotifications)
	notifications.Patch("/:id/read", notificationController.MarkRead)
	notifications.Post("/mark-many-read", notificationController.MarkManyRead)
	notifications.Post("/test", notificationController.SendTest)
}

// NewApp assembles the Fiber app with the shared middleware stack.
func NewApp(db *gorm.DB, verifier middleware.IdentityVerifier, pusher Notifications.Pusher, scheduler *Notifications.Scheduler) *fiber.App {
	app := fiber.New()
	app.Use(middleware.RequestLogger())
	app.Use(compress.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		MaxAge:       300,
	}))
	SetupRoutes(app, db, verifier, pusher, scheduler)
	return app
}

// Serve builds the app and listens on PORT (default 3001).
func Serve(db *gorm.DB, verifier middleware.IdentityVerifier, pusher Notifications.Pusher, scheduler *Notifications.Scheduler) {
	app := NewApp(db, verifier, pusher, scheduler)
	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}
	log.Println("Server Up...")
	if err := app.Listen(":" + port); err != nil {
		log.Fatal(err)
	}
}
