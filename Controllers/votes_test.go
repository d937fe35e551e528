package Controllers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCastVoteValidation(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("u1", "Owner", "owner@example.com", "")
	env.createUser("u2", "Voter", "voter@example.com", "")

	decision := env.createTask("u1", map[string]interface{}{
		"text": "Dinner", "type": "decision", "options": []string{"Pizza", "Sushi"},
	})
	advice := env.createTask("u1", map[string]interface{}{"text": "Plain", "type": "advice"})

	resp := env.request(http.MethodPost, "/vote/tasks/"+itoa(decision.ID)+"/vote",
		map[string]string{}, "u2")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.request(http.MethodPost, "/vote/tasks/"+itoa(decision.ID)+"/vote",
		map[string]string{"nextOption": "Tacos"}, "u2")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.request(http.MethodPost, "/vote/tasks/"+itoa(advice.ID)+"/vote",
		map[string]string{"nextOption": "Pizza"}, "u2")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.request(http.MethodPost, "/vote/tasks/999999/vote",
		map[string]string{"nextOption": "Pizza"}, "u2")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Legacy "option" field still accepted.
	resp = env.request(http.MethodPost, "/vote/tasks/"+itoa(decision.ID)+"/vote",
		map[string]string{"option": "Sushi"}, "u2")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCastVoteReplacesPreviousChoice(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("u1", "Owner", "owner@example.com", "")
	env.createUser("u2", "Voter", "voter@example.com", "")

	task := env.createTask("u1", map[string]interface{}{
		"text": "Dinner", "type": "decision", "options": []string{"Pizza", "Sushi"},
	})

	resp := env.request(http.MethodPost, "/vote/tasks/"+itoa(task.ID)+"/vote",
		map[string]string{"nextOption": "Pizza"}, "u2")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result struct {
		VotedOption string           `json:"votedOption"`
		Counts      map[string]int64 `json:"counts"`
		TaskID      uint             `json:"taskId"`
	}
	decodeBody(t, resp, &result)
	assert.Equal(t, "Pizza", result.VotedOption)
	assert.Equal(t, task.ID, result.TaskID)
	assert.Equal(t, map[string]int64{"Pizza": 1}, result.Counts)

	resp = env.request(http.MethodGet, "/vote/tasks/"+itoa(task.ID)+"/votes", nil, "u1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var counts map[string]int64
	decodeBody(t, resp, &counts)
	assert.Equal(t, map[string]int64{"Pizza": 1}, counts)

	// Switching the vote moves the tally, it does not add a row.
	resp = env.request(http.MethodPost, "/vote/tasks/"+itoa(task.ID)+"/vote",
		map[string]string{"nextOption": "Sushi", "prevOption": "Pizza"}, "u2")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.request(http.MethodGet, "/vote/tasks/"+itoa(task.ID)+"/votes", nil, "u1")
	counts = nil
	decodeBody(t, resp, &counts)
	assert.Equal(t, map[string]int64{"Sushi": 1}, counts)
}

func TestVoteCountsAcrossVoters(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("u1", "Owner", "owner@example.com", "")
	env.createUser("u2", "Two", "two@example.com", "")
	env.createUser("u3", "Three", "three@example.com", "")

	task := env.createTask("u1", map[string]interface{}{
		"text": "Weekend", "type": "decision", "options": []string{"Hike", "Movies"},
	})
	for _, vote := range []struct{ user, option string }{
		{"u1", "Hike"}, {"u2", "Hike"}, {"u3", "Movies"},
	} {
		resp := env.request(http.MethodPost, "/vote/tasks/"+itoa(task.ID)+"/vote",
			map[string]string{"nextOption": vote.option}, vote.user)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp := env.request(http.MethodGet, "/vote/tasks/"+itoa(task.ID)+"/votes", nil, "u1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var counts map[string]int64
	decodeBody(t, resp, &counts)
	assert.Equal(t, map[string]int64{"Hike": 2, "Movies": 1}, counts)
}
