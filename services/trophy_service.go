package services

import (
	"log"
	"time"

	"lifeos-xp-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TrophyService struct {
	DB *gorm.DB
}

func NewTrophyService(db *gorm.DB) *TrophyService {
	return &TrophyService{DB: db}
}

// SeedCatalog inserts the static trophy catalog, skipping codes that already
// exist. Safe to run on every startup.
func (s *TrophyService) SeedCatalog() error {
	for _, t := range models.TrophyCatalog {
		t.ID = uuid.NewString()
		err := s.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoNothing: true,
		}).Create(&t).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// Evaluate checks every trophy condition against the before/after snapshots
// and persists unlocks for conditions that newly became true. Returns the
// newly unlocked codes. newlyApproved is how many approvals the triggering
// operation just committed (1 for a task approval, 0 for a manual grant), so
// the prev snapshot's approved count is real and never fabricated.
// Best-effort: read failures degrade to empty sets and are logged, they never
// bubble up to fail the triggering award.
func (s *TrophyService) Evaluate(userID int64, prevTotalXP, newTotalXP int64, prevLevel, newLevel int, newlyApproved int64) []string {
	var approvedTasks int64
	if err := s.DB.Model(&models.Completion{}).
		Where("telegram_user_id = ? AND status = ?", userID, models.CompletionApproved).
		Count(&approvedTasks).Error; err != nil {
		log.Printf("[TROPHIES] approved completions count error: %v", err)
	}

	unlockedSet := make(map[string]bool)
	var existing []models.TrophyUnlock
	if err := s.DB.Where("telegram_user_id = ?", userID).Find(&existing).Error; err != nil {
		log.Printf("[TROPHIES] unlocks select error: %v", err)
	}
	for _, u := range existing {
		unlockedSet[u.TrophyCode] = true
	}

	prevApproved := approvedTasks - newlyApproved
	if prevApproved < 0 {
		prevApproved = 0
	}
	prev := models.TrophySnapshot{TotalXP: prevTotalXP, Level: prevLevel, ApprovedTasks: prevApproved}
	next := models.TrophySnapshot{TotalXP: newTotalXP, Level: newLevel, ApprovedTasks: approvedTasks}

	var toInsert []models.TrophyUnlock
	var codes []string
	for _, cond := range models.TrophyConditions {
		if !cond.Newly(prev, next) {
			continue
		}
		if unlockedSet[cond.Code] {
			continue
		}
		unlockedSet[cond.Code] = true
		toInsert = append(toInsert, models.TrophyUnlock{
			ID:             uuid.NewString(),
			TelegramUserID: userID,
			TrophyCode:     cond.Code,
			UnlockedAt:     time.Now(),
		})
		codes = append(codes, cond.Code)
	}

	if len(toInsert) == 0 {
		return nil
	}

	// The unique (user, code) index makes this idempotent even if another
	// evaluation raced us between the select and the insert.
	err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "telegram_user_id"}, {Name: "trophy_code"}},
		DoNothing: true,
	}).Create(&toInsert).Error
	if err != nil {
		log.Printf("[TROPHIES] unlock insert error: %v", err)
		return nil
	}

	log.Printf("[TROPHIES] unlocked for user %d: %v", userID, codes)
	return codes
}

// TrophyView is a catalog entry annotated with the caller's unlock state.
type TrophyView struct {
	Code        string     `json:"code"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	Unlocked    bool       `json:"unlocked"`
	UnlockedAt  *time.Time `json:"unlocked_at"`
}

// List returns the full catalog; when userID is non-nil each entry carries
// whether (and when) that user unlocked it.
func (s *TrophyService) List(userID *int64) ([]TrophyView, error) {
	var trophies []models.Trophy
	if err := s.DB.Order("created_at ASC").Find(&trophies).Error; err != nil {
		return nil, err
	}

	unlockMap := make(map[string]time.Time)
	if userID != nil {
		var unlocks []models.TrophyUnlock
		if err := s.DB.Where("telegram_user_id = ?", *userID).Find(&unlocks).Error; err != nil {
			return nil, err
		}
		for _, u := range unlocks {
			unlockMap[u.TrophyCode] = u.UnlockedAt
		}
	}

	views := make([]TrophyView, 0, len(trophies))
	for _, t := range trophies {
		v := TrophyView{
			Code:        t.Code,
			Title:       t.Title,
			Description: t.Description,
			Icon:        t.Icon,
		}
		if at, ok := unlockMap[t.Code]; ok {
			v.Unlocked = true
			v.UnlockedAt = &at
		}
		views = append(views, v)
	}
	return views, nil
}
