package Controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"Huddle/FiberConfig"
	"Huddle/Models"
	"Huddle/Notifications"
	"Huddle/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testDBCounter int64

type fakePush struct {
	Token string
	Title string
	Body  string
}

// fakePusher records pushes instead of talking to FCM.
type fakePusher struct {
	mu   sync.Mutex
	sent []fakePush
}

func (f *fakePusher) Send(ctx context.Context, token, title, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, fakePush{Token: token, Title: title, Body: body})
	return nil
}

func (f *fakePusher) Sent() []fakePush {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]fakePush, len(f.sent))
	copy(out, f.sent)
	return out
}

// fakeVerifier returns a fixed identity for any token.
type fakeVerifier struct {
	identity *middleware.Identity
	err      error
}

func (f fakeVerifier) Verify(ctx context.Context, idToken string) (*middleware.Identity, error) {
	return f.identity, f.err
}

type testEnv struct {
	t        *testing.T
	db       *gorm.DB
	app      *fiber.App
	pusher   *fakePusher
	verifier *fakeVerifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:huddle_test_%d?mode=memory&cache=shared", atomic.AddInt64(&testDBCounter, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, Models.Migrate(db))

	pusher := &fakePusher{}
	verifier := &fakeVerifier{}
	scheduler := Notifications.NewScheduler(db, pusher)
	app := FiberConfig.NewApp(db, verifier, pusher, scheduler)

	return &testEnv{t: t, db: db, app: app, pusher: pusher, verifier: verifier}
}

func (e *testEnv) createUser(id, name, email, fcmToken string) Models.User {
	e.t.Helper()
	user := Models.User{ID: id, Name: name, Email: email, FCMToken: fcmToken}
	require.NoError(e.t, e.db.Create(&user).Error)
	return user
}

// request performs a JSON round-trip through the app as the given user.
func (e *testEnv) request(method, path string, body interface{}, userID string) *http.Response {
	e.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(e.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		token, err := middleware.IssueToken(userID)
		require.NoError(e.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	return resp
}

// requestWithIdentity posts to the identity-sync endpoint with an
// external ID token instead of a session token.
func (e *testEnv) requestWithIdentity(idToken string, body interface{}) *http.Response {
	e.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(http.MethodPost, "/users/", reader)
	require.NoError(e.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+idToken)

	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	return resp
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func (e *testEnv) createTask(ownerID string, body fiber.Map) Models.Task {
	e.t.Helper()
	resp := e.request(http.MethodPost, "/tasks/", body, ownerID)
	require.Equal(e.t, http.StatusCreated, resp.StatusCode)
	var task Models.Task
	decodeBody(e.t, resp, &task)
	return task
}
