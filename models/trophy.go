package models

import "time"

// Trophy is static catalog data; the core never mutates it after seeding.
type Trophy struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	Code        string    `gorm:"uniqueIndex;not null" json:"code"` // e.g., "awakening"
	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Icon        string    `json:"icon"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Trophy) TableName() string { return "xp_trophies" }

// TrophyUnlock records that a user satisfied a trophy's condition. Unique per
// (user, trophy code); once created it is never removed.
type TrophyUnlock struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	TelegramUserID int64     `gorm:"not null;uniqueIndex:idx_trophy_unlock_user_code" json:"telegram_user_id"`
	TrophyCode     string    `gorm:"not null;uniqueIndex:idx_trophy_unlock_user_code" json:"trophy_code"`
	UnlockedAt     time.Time `gorm:"autoCreateTime" json:"unlocked_at"`
}

func (TrophyUnlock) TableName() string { return "xp_trophy_unlocks" }

// TrophySnapshot is the before/after state a trophy condition compares.
type TrophySnapshot struct {
	TotalXP       int64
	Level         int
	ApprovedTasks int64
}

// TrophyCondition pairs a trophy code with the predicate that decides whether
// the condition newly became true between two snapshots.
type TrophyCondition struct {
	Code  string
	Newly func(prev, next TrophySnapshot) bool
}

func xpCrossed(threshold int64) func(prev, next TrophySnapshot) bool {
	return func(prev, next TrophySnapshot) bool {
		return prev.TotalXP < threshold && next.TotalXP >= threshold
	}
}

func levelReached(level int) func(prev, next TrophySnapshot) bool {
	return func(prev, next TrophySnapshot) bool {
		return prev.Level < level && next.Level >= level
	}
}

func tasksApproved(count int64) func(prev, next TrophySnapshot) bool {
	return func(prev, next TrophySnapshot) bool {
		return prev.ApprovedTasks < count && next.ApprovedTasks >= count
	}
}

// TrophyConditions is evaluated in order on every XP award. Adding a trophy is
// a catalog entry plus one row here.
var TrophyConditions = []TrophyCondition{
	{Code: "awakening", Newly: func(prev, next TrophySnapshot) bool {
		return prev.TotalXP <= 0 && next.TotalXP > 0
	}},
	{Code: "blade_accept", Newly: xpCrossed(10)},
	{Code: "inner_pulse", Newly: tasksApproved(1)},
	{Code: "contours_open", Newly: levelReached(2)},
	{Code: "mind_ignition", Newly: xpCrossed(300)},
	{Code: "step_renounce", Newly: tasksApproved(3)},
	{Code: "initiated", Newly: levelReached(3)},
	{Code: "shadow_cross", Newly: levelReached(4)},
	{Code: "flame_bearer", Newly: xpCrossed(1000)},
	{Code: "chosen_node", Newly: tasksApproved(10)},
}

// TrophyCatalog seeds the xp_trophies reference table on startup.
var TrophyCatalog = []Trophy{
	{Code: "awakening", Title: "Awakening", Description: "Earn your first XP", Icon: "✨"},
	{Code: "blade_accept", Title: "Blade Accepted", Description: "Reach 10 XP", Icon: "🗡️"},
	{Code: "inner_pulse", Title: "Inner Pulse", Description: "Get a task approved", Icon: "💓"},
	{Code: "contours_open", Title: "Contours Open", Description: "Reach level 2", Icon: "🌀"},
	{Code: "mind_ignition", Title: "Mind Ignition", Description: "Reach 300 XP", Icon: "🧠"},
	{Code: "step_renounce", Title: "Step of Renouncement", Description: "Get 3 tasks approved", Icon: "👣"},
	{Code: "initiated", Title: "Initiated", Description: "Reach level 3", Icon: "🔮"},
	{Code: "shadow_cross", Title: "Shadow Crossing", Description: "Reach level 4", Icon: "🌑"},
	{Code: "flame_bearer", Title: "Flame Bearer", Description: "Reach 1000 XP", Icon: "🔥"},
	{Code: "chosen_node", Title: "Chosen Node", Description: "Get 10 tasks approved", Icon: "🛰️"},
}
