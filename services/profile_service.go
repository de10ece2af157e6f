package services

import (
	"errors"

	"lifeos-xp-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrAwardConflict means the compare-and-swap award loop kept losing against
// concurrent awards for the same user. Retryable by the caller.
var ErrAwardConflict = errors.New("profile award conflict: too many concurrent updates")

const awardRetries = 5

type ProfileService struct {
	DB *gorm.DB
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{DB: db}
}

// GetProfile returns the stored profile, or a default level-1 view (not
// persisted) when the user has never earned XP. isNew reports which case hit.
func (s *ProfileService) GetProfile(userID int64) (*models.Profile, bool, error) {
	var prof models.Profile
	err := s.DB.Where("telegram_user_id = ?", userID).First(&prof).Error
	if err == gorm.ErrRecordNotFound {
		stats := ComputeLevelStats(0)
		return &models.Profile{
			TelegramUserID: userID,
			TotalXP:        0,
			Level:          stats.Level,
			CurrentXP:      stats.CurrentXP,
			NextLevelXP:    stats.NextLevelXP,
		}, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &prof, false, nil
}

// SyncProfile upserts the profile for a given XP total. Derived fields are
// always recomputed here, so a client can never push a desynchronized level.
func (s *ProfileService) SyncProfile(userID int64, totalXP int64) (*models.Profile, error) {
	if totalXP < 0 {
		totalXP = 0
	}
	stats := ComputeLevelStats(totalXP)
	prof := models.Profile{
		ID:             uuid.NewString(),
		TelegramUserID: userID,
		TotalXP:        totalXP,
		Level:          stats.Level,
		CurrentXP:      stats.CurrentXP,
		NextLevelXP:    stats.NextLevelXP,
	}
	err := s.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "telegram_user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_xp", "level", "current_xp", "next_level_xp", "updated_at",
		}),
	}).Create(&prof).Error
	if err != nil {
		return nil, err
	}

	// On the conflict path the insert struct carries a throwaway id; read the
	// row back so the caller sees exactly what is stored.
	var stored models.Profile
	if err := s.DB.Where("telegram_user_id = ?", userID).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

// AwardXP adds xp to the user's total and recomputes the derived stats.
// The write is a compare-and-swap on the previous total so two concurrent
// approvals for the same user can never lose an award. Returns the total
// before the award alongside the updated profile.
func (s *ProfileService) AwardXP(userID int64, xp int64) (int64, *models.Profile, error) {
	for attempt := 0; attempt < awardRetries; attempt++ {
		var prof models.Profile
		err := s.DB.Where("telegram_user_id = ?", userID).First(&prof).Error

		if err == gorm.ErrRecordNotFound {
			stats := ComputeLevelStats(xp)
			prof = models.Profile{
				ID:             uuid.NewString(),
				TelegramUserID: userID,
				TotalXP:        xp,
				Level:          stats.Level,
				CurrentXP:      stats.CurrentXP,
				NextLevelXP:    stats.NextLevelXP,
			}
			res := s.DB.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "telegram_user_id"}},
				DoNothing: true,
			}).Create(&prof)
			if res.Error != nil {
				return 0, nil, res.Error
			}
			if res.RowsAffected == 1 {
				return 0, &prof, nil
			}
			// row appeared concurrently, retry as an update
			continue
		}
		if err != nil {
			return 0, nil, err
		}

		prevTotal := prof.TotalXP
		newTotal := prevTotal + xp
		stats := ComputeLevelStats(newTotal)

		res := s.DB.Model(&models.Profile{}).
			Where("telegram_user_id = ? AND total_xp = ?", userID, prevTotal).
			Updates(map[string]interface{}{
				"total_xp":      newTotal,
				"level":         stats.Level,
				"current_xp":    stats.CurrentXP,
				"next_level_xp": stats.NextLevelXP,
			})
		if res.Error != nil {
			return 0, nil, res.Error
		}
		if res.RowsAffected == 1 {
			prof.TotalXP = newTotal
			prof.Level = stats.Level
			prof.CurrentXP = stats.CurrentXP
			prof.NextLevelXP = stats.NextLevelXP
			return prevTotal, &prof, nil
		}
		// another award landed between read and write, retry
	}
	return 0, nil, ErrAwardConflict
}
