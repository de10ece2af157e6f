package services

import (
	"errors"

	"lifeos-xp-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrEventTypeRequired = errors.New("event type is required")

const feedLimit = 50

type EventService struct {
	DB *gorm.DB
}

func NewEventService(db *gorm.DB) *EventService {
	return &EventService{DB: db}
}

// Append writes one XP event. Events are append-only; there is no update or
// delete path anywhere in the service.
func (s *EventService) Append(event *models.XPEvent) error {
	if event.Type == "" {
		return ErrEventTypeRequired
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	return s.DB.Create(event).Error
}

// Feed returns the user's most recent XP events, newest first.
func (s *EventService) Feed(userID int64) ([]models.XPEvent, error) {
	var events []models.XPEvent
	err := s.DB.Where("telegram_user_id = ?", userID).
		Order("created_at DESC").
		Limit(feedLimit).
		Find(&events).Error
	return events, err
}
