package middleware_test

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"

	"Huddle/Models"
	"Huddle/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var authDBCounter int64

func newAuthTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:huddle_auth_%d?mode=memory&cache=shared", atomic.AddInt64(&authDBCounter, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, Models.Migrate(db))

	app := fiber.New()
	app.Get("/whoami", middleware.Protected(db), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"id": middleware.CurrentUser(c).ID})
	})
	return app, db
}

func get(t *testing.T, app *fiber.App, authorization string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, "/whoami", nil)
	require.NoError(t, err)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestProtectedRoundTrip(t *testing.T) {
	app, db := newAuthTestApp(t)
	require.NoError(t, db.Create(&Models.User{ID: "u1", Name: "One", Email: "one@example.com"}).Error)

	token, err := middleware.IssueToken("u1")
	require.NoError(t, err)

	resp := get(t, app, "Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProtectedRejectsBadTokens(t *testing.T) {
	app, db := newAuthTestApp(t)
	require.NoError(t, db.Create(&Models.User{ID: "u1", Name: "One", Email: "one@example.com"}).Error)

	resp := get(t, app, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = get(t, app, "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = get(t, app, "Basic abc")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Valid signature but no matching user row.
	token, err := middleware.IssueToken("ghost")
	require.NoError(t, err)
	resp = get(t, app, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
