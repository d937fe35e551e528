package Notifications

import (
	"context"
	"log"
	"time"

	"Huddle/Models"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// Scheduler persists future push intents and delivers them once due. The
// table is the source of truth: pending rows left over from a previous
// process are picked up by the first sweep after restart.
type Scheduler struct {
	DB     *gorm.DB
	Pusher Pusher

	cron  *cron.Cron
	jobID cron.EntryID
}

func NewScheduler(db *gorm.DB, pusher Pusher) *Scheduler {
	return &Scheduler{
		DB:     db,
		Pusher: pusher,
		cron:   cron.New(),
	}
}

// Schedule stores a push intent due at dueAt.
func (s *Scheduler) Schedule(token, title, body string, dueAt time.Time) error {
	return s.DB.Create(&Models.ScheduledPush{
		Token:  token,
		Title:  title,
		Body:   body,
		DueAt:  dueAt,
		Status: Models.PushPending,
	}).Error
}

// Start sweeps immediately (restart recovery) and then every 30 seconds.
func (s *Scheduler) Start() error {
	var err error
	s.jobID, err = s.cron.AddFunc("@every 30s", func() {
		s.DispatchDue(time.Now())
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.DispatchDue(time.Now())
	log.Println("Push scheduler started")
	return nil
}

// Stop halts the sweep.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// DispatchDue sends every pending push whose due time has passed and
// records the outcome on the row.
func (s *Scheduler) DispatchDue(now time.Time) {
	var due []Models.ScheduledPush
	if err := s.DB.Where("status = ? AND due_at <= ?", Models.PushPending, now).Find(&due).Error; err != nil {
		log.Printf("Scheduler sweep failed: %v", err)
		return
	}

	for _, push := range due {
		status := Models.PushSent
		if err := s.Pusher.Send(context.Background(), push.Token, push.Title, push.Body); err != nil {
			log.Printf("Scheduled push %d failed: %v", push.ID, err)
			status = Models.PushFailed
		}
		if err := s.DB.Model(&Models.ScheduledPush{}).Where("id = ?", push.ID).Update("status", status).Error; err != nil {
			log.Printf("Failed to update scheduled push %d: %v", push.ID, err)
		}
	}
}
