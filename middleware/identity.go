package middleware

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// Identity is the payload of a verified sign-in token.
type Identity struct {
	ID    string
	Email string
	Name  string
	Photo string
}

// IdentityVerifier checks an externally issued ID token. The production
// implementation talks to Firebase Auth; tests plug in a stub.
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*Identity, error)
}

// FirebaseVerifier verifies Google sign-in ID tokens through the Firebase
// Admin SDK.
type FirebaseVerifier struct {
	client *auth.Client
}

func NewFirebaseVerifier(ctx context.Context, credentialsFile string) (*FirebaseVerifier, error) {
	opt := option.WithCredentialsFile(credentialsFile)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, err
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}
	return &FirebaseVerifier{client: client}, nil
}

func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*Identity, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}
	id := &Identity{ID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		id.Email = email
	}
	if name, ok := token.Claims["name"].(string); ok {
		id.Name = name
	}
	if photo, ok := token.Claims["picture"].(string); ok {
		id.Photo = photo
	}
	return id, nil
}
