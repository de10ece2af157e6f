package models

import "time"

// CompletionStatus: pending → approved | rejected. Terminal states are never
// re-opened.
type CompletionStatus string

const (
	CompletionPending  CompletionStatus = "pending"
	CompletionApproved CompletionStatus = "approved"
	CompletionRejected CompletionStatus = "rejected"
)

// Completion is one user's claim of having performed a task. Rows are an audit
// trail and are never deleted.
type Completion struct {
	ID             string           `gorm:"primaryKey;type:uuid" json:"id"`
	TaskID         string           `gorm:"index;not null" json:"task_id"`
	TelegramUserID int64            `gorm:"index;not null" json:"telegram_user_id"`
	Status         CompletionStatus `gorm:"type:varchar(16);index;default:'pending'" json:"status"`

	// RewardXP is snapshotted from the task at submission time so an admin
	// editing the reward later does not change what this claim pays out.
	RewardXP int64 `gorm:"not null" json:"reward_xp"`

	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`
	DecidedBy *int64     `json:"decided_by,omitempty"` // admin Telegram user id
}

func (Completion) TableName() string { return "xp_task_completions" }
