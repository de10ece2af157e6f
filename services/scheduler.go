// services/scheduler.go
package services

import (
	"log"
	"time"

	"lifeos-xp-service/models"

	"github.com/go-co-op/gocron/v2"
)

// LockExpiredTasks locks every active task whose deadline is at or before now
// so it stops accepting submissions. Returns how many tasks were locked.
func (s *TaskService) LockExpiredTasks(now time.Time) int {
	var tasks []models.Task
	err := s.DB.Where("status = ? AND deadline_at IS NOT NULL AND deadline_at <= ?",
		models.TaskStatusActive, now).
		Find(&tasks).Error
	if err != nil {
		log.Printf("[Scheduler] DB error: %v", err)
		return 0
	}

	locked := 0
	for _, t := range tasks {
		err := s.DB.Model(&t).Updates(map[string]interface{}{
			"status":    models.TaskStatusLocked,
			"is_active": false,
		}).Error
		if err != nil {
			log.Printf("[Scheduler] Failed to lock task %s: %v", t.Code, err)
		} else {
			log.Printf("[Scheduler] Locked expired task: %s", t.Code)
			locked++
		}
	}
	return locked
}

// StartDeadlineScheduler runs the deadline sweep once a minute.
func (s *TaskService) StartDeadlineScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			s.LockExpiredTasks(time.Now())
		}),
	)
}
