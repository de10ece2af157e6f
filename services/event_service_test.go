package services

import (
	"testing"
	"time"

	"lifeos-xp-service/models"
	"lifeos-xp-service/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppend_RequiresType(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewEventService(db)

	err := svc.Append(&models.XPEvent{TelegramUserID: testUserID})
	assert.ErrorIs(t, err, ErrEventTypeRequired)
}

func TestAppend_AssignsID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewEventService(db)

	event := models.XPEvent{TelegramUserID: testUserID, Type: models.EventLevelUp}
	require.NoError(t, svc.Append(&event))
	assert.NotEmpty(t, event.ID)
}

func TestFeed_NewestFirstAndCapped(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewEventService(db)

	base := time.Now().Add(-2 * time.Hour)
	for i := 0; i < 60; i++ {
		amount := int64(i)
		require.NoError(t, db.Create(&models.XPEvent{
			ID:             uuid.NewString(),
			TelegramUserID: testUserID,
			Type:           models.EventXPGain,
			Amount:         &amount,
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}).Error)
	}
	// another user's events never leak into the feed
	require.NoError(t, db.Create(&models.XPEvent{
		ID:             uuid.NewString(),
		TelegramUserID: testUserID + 1,
		Type:           models.EventXPGain,
	}).Error)

	events, err := svc.Feed(testUserID)
	require.NoError(t, err)
	require.Len(t, events, 50)
	assert.Equal(t, int64(59), *events[0].Amount, "newest event first")
	for _, e := range events {
		assert.Equal(t, testUserID, e.TelegramUserID)
	}
}
