package services

// XP needed to go from level 1 to level 2. Each further level costs
// BaseXPPerLevel * level, so 1→2 = 500, 2→3 = 1000, 3→4 = 1500, ...
const BaseXPPerLevel = 500

// LevelStats is the derived standing for a cumulative XP total.
type LevelStats struct {
	Level           int     `json:"level"`
	CurrentXP       int64   `json:"current_xp"`    // XP inside the current level
	NextLevelXP     int64   `json:"next_level_xp"` // threshold for the next level
	ProgressPercent float64 `json:"progress_percent"`
}

// ComputeLevelStats maps a cumulative XP total to level standing. Pure and
// deterministic; level is monotonic in totalXP. Negative input is clamped
// to zero (callers validate at the boundary).
func ComputeLevelStats(totalXP int64) LevelStats {
	if totalXP < 0 {
		totalXP = 0
	}

	level := 1
	nextLevelXP := int64(BaseXPPerLevel) // cost of 1 → 2
	pool := totalXP

	for pool >= nextLevelXP {
		pool -= nextLevelXP
		level++
		nextLevelXP = int64(BaseXPPerLevel) * int64(level)
	}

	progress := 100.0
	if nextLevelXP > 0 {
		progress = float64(pool) / float64(nextLevelXP) * 100
		if progress > 100 {
			progress = 100
		}
	}

	return LevelStats{
		Level:           level,
		CurrentXP:       pool,
		NextLevelXP:     nextLevelXP,
		ProgressPercent: progress,
	}
}
