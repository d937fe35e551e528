package Models

import (
	"log"
	"os"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Connect opens the database selected by DB_DIALECT (sqlite by default,
// mysql for production) and migrates the schema.
func Connect() (*gorm.DB, error) {
	dialect := os.Getenv("DB_DIALECT")
	dsn := os.Getenv("DB_DSN")

	var dialector gorm.Dialector
	switch dialect {
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		if dsn == "" {
			dsn = "database.db"
		}
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("Database connected")
	return db, nil
}

// Migrate runs AutoMigrate in dependency order.
func Migrate(db *gorm.DB) error {
	// 1. Base tables with no foreign keys
	if err := db.AutoMigrate(
		&User{},
		&ScheduledPush{},
	); err != nil {
		return err
	}

	// 2. Tables referencing users
	if err := db.AutoMigrate(
		&Follow{},
		&Task{},
		&Notification{},
	); err != nil {
		return err
	}

	// 3. Tables referencing tasks
	return db.AutoMigrate(
		&Vote{},
		&ReminderNote{},
		&Comment{},
		&CommentLike{},
	)
}
