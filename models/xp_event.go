package models

import "time"

// XP event types written by the core flows. The column is free-form so the
// client event sink can record its own types as well.
const (
	EventTaskCompleted = "task_completed"
	EventXPGain        = "xp_gain"
	EventLevelUp       = "level_up"
)

// XPEvent is an immutable audit record. Append-only: never updated, never
// deleted.
type XPEvent struct {
	ID             string  `gorm:"primaryKey;type:uuid" json:"id"`
	TelegramUserID int64   `gorm:"index;not null" json:"telegram_user_id"`
	Type           string  `gorm:"not null" json:"type"`
	Amount         *int64  `json:"amount,omitempty"`
	Source         *string `json:"source,omitempty"` // e.g., "task"
	TaskID         *string `json:"task_id,omitempty"`
	LevelFrom      *int    `json:"level_from,omitempty"` // set only on level transitions
	LevelTo        *int    `json:"level_to,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (XPEvent) TableName() string { return "xp_events" }
