package Notifications_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"Huddle/Models"
	"Huddle/Notifications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var schedDBCounter int64

type recordingPusher struct {
	mu     sync.Mutex
	tokens []string
	err    error
}

func (r *recordingPusher) Send(ctx context.Context, token, title, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.tokens = append(r.tokens, token)
	return nil
}

func (r *recordingPusher) Tokens() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.tokens))
	copy(out, r.tokens)
	return out
}

func newSchedulerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:huddle_sched_%d?mode=memory&cache=shared", atomic.AddInt64(&schedDBCounter, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, Models.Migrate(db))
	return db
}

func TestSchedulePersistsPendingRow(t *testing.T) {
	db := newSchedulerTestDB(t)
	s := Notifications.NewScheduler(db, &recordingPusher{})

	due := time.Now().Add(time.Hour)
	require.NoError(t, s.Schedule("tok-1", "Reminder Complete", "Water plants", due))

	var rows []Models.ScheduledPush
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, Models.PushPending, rows[0].Status)
	assert.Equal(t, "tok-1", rows[0].Token)
	assert.WithinDuration(t, due, rows[0].DueAt, time.Second)
}

func TestDispatchDueSendsAndMarks(t *testing.T) {
	db := newSchedulerTestDB(t)
	pusher := &recordingPusher{}
	s := Notifications.NewScheduler(db, pusher)

	now := time.Now()
	require.NoError(t, s.Schedule("tok-due", "t", "b", now.Add(-time.Minute)))
	require.NoError(t, s.Schedule("tok-future", "t", "b", now.Add(time.Hour)))

	s.DispatchDue(now)

	assert.Equal(t, []string{"tok-due"}, pusher.Tokens())

	var rows []Models.ScheduledPush
	require.NoError(t, db.Order("id").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, Models.PushSent, rows[0].Status)
	assert.Equal(t, Models.PushPending, rows[1].Status)

	// A second sweep does not resend.
	s.DispatchDue(now)
	assert.Len(t, pusher.Tokens(), 1)
}

func TestDispatchDueMarksFailures(t *testing.T) {
	db := newSchedulerTestDB(t)
	pusher := &recordingPusher{err: errors.New("unregistered token")}
	s := Notifications.NewScheduler(db, pusher)

	require.NoError(t, s.Schedule("tok-bad", "t", "b", time.Now().Add(-time.Minute)))
	s.DispatchDue(time.Now())

	var row Models.ScheduledPush
	require.NoError(t, db.First(&row).Error)
	assert.Equal(t, Models.PushFailed, row.Status)
}

func TestDispatchDuePicksUpLeftoverRows(t *testing.T) {
	db := newSchedulerTestDB(t)

	// Row written by a previous process.
	require.NoError(t, db.Create(&Models.ScheduledPush{
		Token:  "tok-old",
		Title:  "t",
		Body:   "b",
		DueAt:  time.Now().Add(-time.Hour),
		Status: Models.PushPending,
	}).Error)

	pusher := &recordingPusher{}
	s := Notifications.NewScheduler(db, pusher)
	s.DispatchDue(time.Now())

	assert.Equal(t, []string{"tok-old"}, pusher.Tokens())
}
