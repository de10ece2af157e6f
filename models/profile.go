package models

// Profile is the per-user aggregate standing (denormalized for fast reads).
// Level, CurrentXP and NextLevelXP are always exactly the leveling engine's
// output for TotalXP: the profile service recomputes them on every write.
type Profile struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	TelegramUserID int64  `gorm:"uniqueIndex;not null" json:"telegram_user_id"`

	TotalXP     int64 `gorm:"default:0" json:"total_xp"` // monotonically non-decreasing
	Level       int   `gorm:"default:1" json:"level"`
	CurrentXP   int64 `gorm:"default:0" json:"current_xp"`
	NextLevelXP int64 `gorm:"default:500" json:"next_level_xp"`

	Timestamps
}

func (Profile) TableName() string { return "xp_profiles" }
