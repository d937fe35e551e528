package Controllers_test

import (
	"net/http"
	"testing"

	"Huddle/Models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedNotification(t *testing.T, env *testEnv, userID, senderID, kind string) Models.Notification {
	t.Helper()
	n := Models.Notification{
		UserID:   userID,
		SenderID: senderID,
		Type:     kind,
		Message:  "hello",
	}
	require.NoError(t, env.db.Create(&n).Error)
	return n
}

func TestGetNotificationsSenderProjection(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("u1", "Receiver", "r@example.com", "")
	env.createUser("u2", "Sender", "s@example.com", "")

	first := seedNotification(t, env, "u1", "u2", Models.NotificationFollow)
	second := seedNotification(t, env, "u1", "u2", Models.NotificationComment)
	seedNotification(t, env, "u2", "u1", Models.NotificationFollow) // someone else's

	resp := env.request(http.MethodGet, "/notification/", nil, "u1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []struct {
		ID     uint   `json:"id"`
		Type   string `json:"type"`
		Read   bool   `json:"read"`
		Sender *struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"sender"`
	}
	decodeBody(t, resp, &list)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
	require.NotNil(t, list[0].Sender)
	assert.Equal(t, "u2", list[0].Sender.ID)
	assert.Equal(t, "Sender", list[0].Sender.Name)
}

func TestMarkReadIdempotentAndScoped(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("u1", "Receiver", "r@example.com", "")
	env.createUser("u2", "Other", "o@example.com", "")

	n := seedNotification(t, env, "u1", "u2", Models.NotificationFollow)

	// Someone else cannot flip it.
	resp := env.request(http.MethodPatch, "/notification/"+itoa(n.ID)+"/read", nil, "u2")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stored Models.Notification
	require.NoError(t, env.db.First(&stored, n.ID).Error)
	assert.False(t, stored.Read)

	for i := 0; i < 2; i++ {
		resp = env.request(http.MethodPatch, "/notification/"+itoa(n.ID)+"/read", nil, "u1")
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	require.NoError(t, env.db.First(&stored, n.ID).Error)
	assert.True(t, stored.Read)
}

func TestMarkManyRead(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("u1", "Receiver", "r@example.com", "")
	env.createUser("u2", "Sender", "s@example.com", "")

	a := seedNotification(t, env, "u1", "u2", Models.NotificationFollow)
	b := seedNotification(t, env, "u1", "u2", Models.NotificationComment)
	other := seedNotification(t, env, "u2", "u1", Models.NotificationFollow)

	resp := env.request(http.MethodPost, "/notification/mark-many-read", map[string]interface{}{}, "u1")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.request(http.MethodPost, "/notification/mark-many-read",
		map[string]interface{}{"ids": []uint{}}, "u1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result struct {
		Success bool `json:"success"`
		Updated int  `json:"updated"`
	}
	decodeBody(t, resp, &result)
	assert.Equal(t, 0, result.Updated)

	resp = env.request(http.MethodPost, "/notification/mark-many-read",
		map[string]interface{}{"ids": []uint{a.ID, b.ID, other.ID}}, "u1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &result)
	assert.Equal(t, 2, result.Updated)

	var stored Models.Notification
	require.NoError(t, env.db.First(&stored, other.ID).Error)
	assert.False(t, stored.Read)
}

func TestSendTestPush(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("u1", "NoToken", "n@example.com", "")
	env.createUser("u2", "HasToken", "h@example.com", "tok-2")

	resp := env.request(http.MethodPost, "/notification/test", nil, "u1")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.request(http.MethodPost, "/notification/test", nil, "u2")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, env.pusher.Sent(), 1)
	assert.Equal(t, "tok-2", env.pusher.Sent()[0].Token)
}
