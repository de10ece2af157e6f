package models

import (
	"time"
)

// TaskType controls how often a user may complete a task
type TaskType string

const (
	TaskTypeSingle TaskType = "single" // once ever (or up to a configured cap)
	TaskTypeDaily  TaskType = "daily"  // cap resets every calendar day
	TaskTypeMulti  TaskType = "multi"  // repeatable, bounded or unbounded
)

// TaskStatus is the lifecycle status; tasks are never hard-deleted while
// completions reference them
type TaskStatus string

const (
	TaskStatusActive   TaskStatus = "active"
	TaskStatusLocked   TaskStatus = "locked"
	TaskStatusArchived TaskStatus = "archived"
	TaskStatusDeleted  TaskStatus = "deleted"
)

// Task is an admin-defined unit of rewardable work. The Code is the stable
// external reference (short, uppercase, unique) and never changes after create.
type Task struct {
	ID          string   `gorm:"primaryKey;type:uuid" json:"id"`
	Code        string   `gorm:"uniqueIndex;not null" json:"code"` // e.g., "INVITE_FRIEND_X7K2"
	Title       string   `gorm:"not null" json:"title"`
	Description string   `gorm:"type:text" json:"description,omitempty"`
	Category    string   `gorm:"index;default:'general'" json:"category"` // free-form grouping: invite/stream/help/...
	RewardXP    int64    `gorm:"not null" json:"reward_xp"`               // always > 0, validated at create
	TaskType    TaskType `gorm:"type:varchar(16);default:'single'" json:"task_type"`

	// Per-user completion cap. nil => default for the task type
	// (single/daily: 1, multi: unbounded).
	MaxUserCompletions *int `json:"max_user_completions,omitempty"`

	DeadlineAt *time.Time `json:"deadline_at,omitempty"`
	IsActive   bool       `gorm:"default:true;index" json:"is_active"`
	Status     TaskStatus `gorm:"type:varchar(16);default:'active'" json:"status"`
	IconURL    string     `gorm:"type:text" json:"icon_url,omitempty"`
	CreatedBy  *int64     `json:"created_by,omitempty"` // admin Telegram user id

	Timestamps
}

func (Task) TableName() string { return "xp_tasks" }

// Available reports whether the task can accept new submissions.
func (t *Task) Available() bool {
	return t.IsActive && t.Status == TaskStatusActive
}
