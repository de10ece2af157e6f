package services

import (
	"time"

	"lifeos-xp-service/models"
)

// CompletionStamp is the slice of completion history the limit policy needs.
type CompletionStamp struct {
	CreatedAt time.Time
	Status    models.CompletionStatus
}

// LimitDecision carries the quota outcome. MaxForUser == nil means unbounded.
type LimitDecision struct {
	Allowed    bool
	UsedCount  int
	MaxForUser *int
}

// EvaluateLimit decides whether a new submission is allowed given the task
// type, its configured per-user cap and the user's prior completions for the
// task. Only pending and approved completions consume quota; for daily tasks
// only those from the current calendar day (local midnight boundary) count.
func EvaluateLimit(taskType models.TaskType, maxConfigured *int, prior []CompletionStamp, now time.Time) LimitDecision {
	dayStart := StartOfDay(now)

	used := 0
	for _, c := range prior {
		if c.Status != models.CompletionPending && c.Status != models.CompletionApproved {
			continue
		}
		if taskType == models.TaskTypeDaily && c.CreatedAt.Before(dayStart) {
			continue
		}
		used++
	}

	var maxForUser *int
	switch taskType {
	case models.TaskTypeSingle, models.TaskTypeDaily:
		n := 1
		if maxConfigured != nil && *maxConfigured > 0 {
			n = *maxConfigured
		}
		maxForUser = &n
	case models.TaskTypeMulti:
		if maxConfigured != nil && *maxConfigured > 0 {
			n := *maxConfigured
			maxForUser = &n
		}
	default:
		// unknown types behave like single
		n := 1
		maxForUser = &n
	}

	allowed := maxForUser == nil || used < *maxForUser
	return LimitDecision{Allowed: allowed, UsedCount: used, MaxForUser: maxForUser}
}

// StartOfDay returns local midnight for t; the daily quota window boundary.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
