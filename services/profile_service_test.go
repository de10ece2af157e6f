package services

import (
	"testing"

	"lifeos-xp-service/models"
	"lifeos-xp-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProfile_DefaultNotPersisted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewProfileService(db)

	prof, isNew, err := svc.GetProfile(testUserID)
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Equal(t, testUserID, prof.TelegramUserID)
	assert.Equal(t, int64(0), prof.TotalXP)
	assert.Equal(t, 1, prof.Level)
	assert.Equal(t, int64(500), prof.NextLevelXP)

	var count int64
	db.Model(&models.Profile{}).Count(&count)
	assert.Zero(t, count, "a plain read must not create rows")
}

func TestSyncProfile_RecomputesDerivedFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewProfileService(db)

	prof, err := svc.SyncProfile(testUserID, 1400)
	require.NoError(t, err)
	assert.Equal(t, int64(1400), prof.TotalXP)
	assert.Equal(t, 2, prof.Level)
	assert.Equal(t, int64(900), prof.CurrentXP)
	assert.Equal(t, int64(1000), prof.NextLevelXP)

	firstID := prof.ID

	// upsert path: same user, new total, same stored row
	prof, err = svc.SyncProfile(testUserID, 1500)
	require.NoError(t, err)
	assert.Equal(t, 3, prof.Level)
	assert.Equal(t, int64(0), prof.CurrentXP)
	assert.Equal(t, firstID, prof.ID, "conflict path returns the stored row")

	var count int64
	db.Model(&models.Profile{}).Where("telegram_user_id = ?", testUserID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestSyncProfile_NegativeClampsToZero(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewProfileService(db)

	prof, err := svc.SyncProfile(testUserID, -100)
	require.NoError(t, err)
	assert.Equal(t, int64(0), prof.TotalXP)
	assert.Equal(t, 1, prof.Level)
}

func TestAwardXP_CreatesProfile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewProfileService(db)

	prevTotal, prof, err := svc.AwardXP(testUserID, 600)
	require.NoError(t, err)
	assert.Equal(t, int64(0), prevTotal)
	assert.Equal(t, int64(600), prof.TotalXP)
	assert.Equal(t, 2, prof.Level)
	assert.Equal(t, int64(100), prof.CurrentXP)
}

func TestAwardXP_Increments(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewProfileService(db)

	_, _, err := svc.AwardXP(testUserID, 300)
	require.NoError(t, err)

	prevTotal, prof, err := svc.AwardXP(testUserID, 400)
	require.NoError(t, err)
	assert.Equal(t, int64(300), prevTotal)
	assert.Equal(t, int64(700), prof.TotalXP)
	assert.Equal(t, 2, prof.Level)
	assert.Equal(t, int64(200), prof.CurrentXP)
	assert.Equal(t, int64(1000), prof.NextLevelXP)

	var stored models.Profile
	require.NoError(t, db.Where("telegram_user_id = ?", testUserID).First(&stored).Error)
	assert.Equal(t, prof.TotalXP, stored.TotalXP)
	assert.Equal(t, prof.Level, stored.Level)
}

func TestAwardXP_UsersIndependent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewProfileService(db)

	_, _, err := svc.AwardXP(testUserID, 100)
	require.NoError(t, err)
	_, other, err := svc.AwardXP(testUserID+1, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(50), other.TotalXP)

	var count int64
	db.Model(&models.Profile{}).Count(&count)
	assert.Equal(t, int64(2), count)
}
