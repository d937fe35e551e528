package Notifications

import (
	"context"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// Pusher delivers a push notification to a single device token. Delivery
// is best effort everywhere: callers log failures and move on.
type Pusher interface {
	Send(ctx context.Context, token, title, body string) error
}

// FirebasePusher sends through Firebase Cloud Messaging.
type FirebasePusher struct {
	client *messaging.Client
}

// NewFirebasePusher initializes the FCM client from a service account
// credentials file.
func NewFirebasePusher(ctx context.Context, credentialsFile string) (*FirebasePusher, error) {
	opt := option.WithCredentialsFile(credentialsFile)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting Messaging client: %w", err)
	}
	log.Println("Firebase messaging initialized")
	return &FirebasePusher{client: client}, nil
}

func (p *FirebasePusher) Send(ctx context.Context, token, title, body string) error {
	message := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound: "default",
			},
		},
	}
	response, err := p.client.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("error sending Firebase message: %w", err)
	}
	log.Printf("Push sent: %s", response)
	return nil
}

// NoopPusher is used when no Firebase credentials are configured.
type NoopPusher struct{}

func (NoopPusher) Send(ctx context.Context, token, title, body string) error {
	log.Printf("Push disabled, dropping notification %q for token %s", title, token)
	return nil
}

// SendAsync fires a push in its own goroutine so the HTTP response never
// waits on FCM.
func SendAsync(p Pusher, token, title, body string) {
	go func() {
		if err := p.Send(context.Background(), token, title, body); err != nil {
			log.Printf("Failed to send push: %v", err)
		}
	}()
}
