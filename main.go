package main

import (
	"context"
	"log"
	"os"

	"Huddle/FiberConfig"
	"Huddle/Models"
	"Huddle/Notifications"
	"Huddle/middleware"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file, using environment")
	}

	db, err := Models.Connect()
	if err != nil {
		log.Fatal("Failed to connect database:", err)
	}

	ctx := context.Background()
	credentials := os.Getenv("FIREBASE_CREDENTIALS_FILE")

	var pusher Notifications.Pusher = Notifications.NoopPusher{}
	var verifier middleware.IdentityVerifier
	if credentials != "" {
		fcm, err := Notifications.NewFirebasePusher(ctx, credentials)
		if err != nil {
			log.Fatal("Failed to initialize Firebase:", err)
		}
		pusher = fcm

		verifier, err = middleware.NewFirebaseVerifier(ctx, credentials)
		if err != nil {
			log.Fatal("Failed to initialize identity verifier:", err)
		}
	} else {
		log.Println("FIREBASE_CREDENTIALS_FILE not set, push and sign-in verification disabled")
	}

	scheduler := Notifications.NewScheduler(db, pusher)
	if err := scheduler.Start(); err != nil {
		log.Fatal("Failed to start push scheduler:", err)
	}
	defer scheduler.Stop()

	FiberConfig.Serve(db, verifier, pusher, scheduler)
}
