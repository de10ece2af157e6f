package services

import (
	"testing"
	"time"

	"lifeos-xp-service/models"
	"lifeos-xp-service/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testUserID int64 = 777001

func createTask(t *testing.T, db *gorm.DB, mutate func(*CreateTaskInput)) *models.Task {
	t.Helper()
	in := CreateTaskInput{
		Title:    "Invite a friend",
		Category: "invite",
		RewardXP: 100,
		TaskType: models.TaskTypeSingle,
	}
	if mutate != nil {
		mutate(&in)
	}
	task, err := NewTaskService(db).CreateTask(in)
	require.NoError(t, err)
	return task
}

func TestSubmit_TaskNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewCompletionService(db)

	res, err := svc.Submit(testUserID, "NO_SUCH_TASK")
	require.NoError(t, err)
	assert.Equal(t, SubmitTaskNotFound, res.Status)

	var count int64
	db.Model(&models.Completion{}).Count(&count)
	assert.Zero(t, count, "no completion may be created")
}

func TestSubmit_TaskCodeNormalized(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewCompletionService(db)
	task := createTask(t, db, nil)

	res, err := svc.Submit(testUserID, "  "+task.Code+"  ")
	require.NoError(t, err)
	assert.Equal(t, SubmitPending, res.Status)
	assert.Equal(t, task.Code, res.TaskCode)
}

func TestSubmit_TaskInactive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewCompletionService(db)
	task := createTask(t, db, nil)

	_, err := svc.Tasks.ArchiveTask(task.Code)
	require.NoError(t, err)

	res, err := svc.Submit(testUserID, task.Code)
	require.NoError(t, err)
	assert.Equal(t, SubmitTaskInactive, res.Status)
}

func TestSubmit_PendingOutcome(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewCompletionService(db)
	task := createTask(t, db, func(in *CreateTaskInput) { in.RewardXP = 250 })

	res, err := svc.Submit(testUserID, task.Code)
	require.NoError(t, err)
	assert.Equal(t, SubmitPending, res.Status)
	assert.NotEmpty(t, res.CompletionID)
	assert.Equal(t, int64(250), res.RewardXP)
	assert.Equal(t, 1, res.UsedCount)
	require.NotNil(t, res.MaxForUser)
	assert.Equal(t, 1, *res.MaxForUser)

	var comp models.Completion
	require.NoError(t, db.Where("id = ?", res.CompletionID).First(&comp).Error)
	assert.Equal(t, models.CompletionPending, comp.Status)
	assert.Equal(t, int64(250), comp.RewardXP, "reward is snapshotted at submission")
	assert.Equal(t, testUserID, comp.TelegramUserID)
}

func TestSubmit_SingleLimitReached(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewCompletionService(db)
	task := createTask(t, db, nil)

	first, err := svc.Submit(testUserID, task.Code)
	require.NoError(t, err)
	require.Equal(t, SubmitPending, first.Status)

	second, err := svc.Submit(testUserID, task.Code)
	require.NoError(t, err)
	assert.Equal(t, SubmitLimitReached, second.Status)
	assert.Equal(t, 1, second.UsedCount)
	assert.Equal(t, 1, *second.MaxForUser)

	var count int64
	db.Model(&models.Completion{}).Where("task_id = ?", task.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestSubmit_RejectedFreesQuota(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewCompletionService(db)
	task := createTask(t, db, nil)

	first, err := svc.Submit(testUserID, task.Code)
	require.NoError(t, err)
	_, err = svc.Reject(first.CompletionID, nil)
	require.NoError(t, err)

	second, err := svc.Submit(testUserID, task.Code)
	require.NoError(t, err)
	assert.Equal(t, SubmitPending, second.Status)
}

func TestSubmit_DailyResetsAtMidnight(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewCompletionService(db)
	task := createTask(t, db, func(in *CreateTaskInput) {
		in.TaskType = models.TaskTypeDaily
	})

	yesterday := StartOfDay(time.Now()).Add(-2 * time.Hour)
	require.NoError(t, db.Create(&models.Completion{
		ID:             uuid.NewString(),
		TaskID:         task.ID,
		TelegramUserID: testUserID,
		Status:         models.CompletionApproved,
		RewardXP:       task.RewardXP,
		CreatedAt:      yesterday,
	}).Error)

	res, err := svc.Submit(testUserID, task.Code)
	require.NoError(t, err)
	assert.Equal(t, SubmitPending, res.Status, "yesterday's completion must not block today")

	again, err := svc.Submit(testUserID, task.Code)
	require.NoError(t, err)
	assert.Equal(t, SubmitLimitReached, again.Status)
}

func TestSubmit_MultiUnbounded(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewCompletionService(db)
	task := createTask(t, db, func(in *CreateTaskInput) {
		in.TaskType = models.TaskTypeMulti
	})

	for i := 0; i < 5; i++ {
		res, err := svc.Submit(testUserID, task.Code)
		require.NoError(t, err)
		assert.Equal(t, SubmitPending, res.Status)
		assert.Nil(t, res.MaxForUser)
	}
}

func TestSubmit_QuotaIsPerUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewCompletionService(db)
	task := createTask(t, db, nil)

	res, err := svc.Submit(testUserID, task.Code)
	require.NoError(t, err)
	require.Equal(t, SubmitPending, res.Status)

	other, err := svc.Submit(testUserID+1, task.Code)
	require.NoError(t, err)
	assert.Equal(t, SubmitPending, other.Status)
}

func TestApprove_FullScenario(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewCompletionService(db)
	require.NoError(t, svc.Trophies.SeedCatalog())

	task := createTask(t, db, func(in *CreateTaskInput) { in.RewardXP = 600 })
	sub, err := svc.Submit(testUserID, task.Code)
	require.NoError(t, err)

	adminID := int64(424242)
	result, err := svc.Approve(sub.CompletionID, &adminID)
	require.NoError(t, err)

	assert.Equal(t, int64(600), result.RewardXP)
	require.NotNil(t, result.Profile)
	assert.Equal(t, int64(600), result.Profile.TotalXP)
	assert.Equal(t, 2, result.Profile.Level)
	assert.Equal(t, int64(100), result.Profile.CurrentXP)
	assert.Equal(t, int64(1000), result.Profile.NextLevelXP)

	// profile consistency invariant
	stats := ComputeLevelStats(result.Profile.TotalXP)
	assert.Equal(t, stats.Level, result.Profile.Level)
	assert.Equal(t, stats.CurrentXP, result.Profile.CurrentXP)
	assert.Equal(t, stats.NextLevelXP, result.Profile.NextLevelXP)

	var comp models.Completion
	require.NoError(t, db.Where("id = ?", sub.CompletionID).First(&comp).Error)
	assert.Equal(t, models.CompletionApproved, comp.Status)
	require.NotNil(t, comp.DecidedBy)
	assert.Equal(t, adminID, *comp.DecidedBy)
	assert.NotNil(t, comp.DecidedAt)

	var event models.XPEvent
	require.NoError(t, db.Where("telegram_user_id = ? AND type = ?", testUserID, models.EventTaskCompleted).First(&event).Error)
	require.NotNil(t, event.Amount)
	assert.Equal(t, int64(600), *event.Amount)
	require.NotNil(t, event.LevelFrom)
	assert.Equal(t, 1, *event.LevelFrom)
	require.NotNil(t, event.LevelTo)
	assert.Equal(t, 2, *event.LevelTo)
	require.NotNil(t, event.Source)
	assert.Equal(t, "task", *event.Source)

	var unlocks []models.TrophyUnlock
	require.NoError(t, db.Where("telegram_user_id = ?", testUserID).Find(&unlocks).Error)
	codes := make(map[string]bool)
	for _, u := range unlocks {
		codes[u.TrophyCode] = true
	}
	assert.True(t, codes["awakening"], "first XP gain unlocks awakening")
	assert.True(t, codes["contours_open"], "reaching level 2 unlocks contours_open")
	assert.True(t, codes["inner_pulse"], "first approved task unlocks inner_pulse")
	assert.False(t, codes["flame_bearer"], "1000 XP not reached yet")
}

func TestApprove_Terminality(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewCompletionService(db)
	task := createTask(t, db, nil)

	sub, err := svc.Submit(testUserID, task.Code)
	require.NoError(t, err)
	_, err = svc.Approve(sub.CompletionID, nil)
	require.NoError(t, err)

	_, err = svc.Approve(sub.CompletionID, nil)
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, err = svc.Reject(sub.CompletionID, nil)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	// second decision performed no writes
	var prof models.Profile
	require.NoError(t, db.Where("telegram_user_id = ?", testUserID).First(&prof).Error)
	assert.Equal(t, task.RewardXP, prof.TotalXP, "XP must be awarded exactly once")
}

func TestApprove_CompletionNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewCompletionService(db)

	_, err := svc.Approve(uuid.NewString(), nil)
	assert.ErrorIs(t, err, ErrCompletionNotFound)
}

func TestReject_NoSideEffects(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewCompletionService(db)
	task := createTask(t, db, nil)

	sub, err := svc.Submit(testUserID, task.Code)
	require.NoError(t, err)

	adminID := int64(424242)
	comp, err := svc.Reject(sub.CompletionID, &adminID)
	require.NoError(t, err)
	assert.Equal(t, models.CompletionRejected, comp.Status)

	var profiles, events, unlocks int64
	db.Model(&models.Profile{}).Count(&profiles)
	db.Model(&models.XPEvent{}).Count(&events)
	db.Model(&models.TrophyUnlock{}).Count(&unlocks)
	assert.Zero(t, profiles, "reject must not touch the profile")
	assert.Zero(t, events, "reject must not log XP events")
	assert.Zero(t, unlocks, "reject must not evaluate trophies")

	_, err = svc.Reject(sub.CompletionID, &adminID)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestApprove_AccumulatesAcrossCompletions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewCompletionService(db)
	task := createTask(t, db, func(in *CreateTaskInput) {
		in.TaskType = models.TaskTypeMulti
		in.RewardXP = 300
	})

	for i := 0; i < 3; i++ {
		sub, err := svc.Submit(testUserID, task.Code)
		require.NoError(t, err)
		_, err = svc.Approve(sub.CompletionID, nil)
		require.NoError(t, err)
	}

	var prof models.Profile
	require.NoError(t, db.Where("telegram_user_id = ?", testUserID).First(&prof).Error)
	assert.Equal(t, int64(900), prof.TotalXP)
	assert.Equal(t, 2, prof.Level)
	assert.Equal(t, int64(400), prof.CurrentXP)
}

func TestListPending_OldestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewCompletionService(db)
	task := createTask(t, db, func(in *CreateTaskInput) {
		in.TaskType = models.TaskTypeMulti
	})

	base := time.Now().Add(-time.Hour)
	var ids []string
	for i := 0; i < 3; i++ {
		id := uuid.NewString()
		require.NoError(t, db.Create(&models.Completion{
			ID:             id,
			TaskID:         task.ID,
			TelegramUserID: testUserID,
			Status:         models.CompletionPending,
			RewardXP:       task.RewardXP,
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}).Error)
		ids = append(ids, id)
	}

	items, err := svc.ListPending(0)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, ids[0], items[0].ID, "oldest submission reviews first")
	assert.Equal(t, task.Code, items[0].TaskCode)
	assert.Equal(t, task.Title, items[0].TaskTitle)
}

func TestListPending_LimitClamped(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewCompletionService(db)
	task := createTask(t, db, func(in *CreateTaskInput) {
		in.TaskType = models.TaskTypeMulti
	})

	for i := 0; i < 60; i++ {
		require.NoError(t, db.Create(&models.Completion{
			ID:             uuid.NewString(),
			TaskID:         task.ID,
			TelegramUserID: testUserID + int64(i),
			Status:         models.CompletionPending,
			RewardXP:       task.RewardXP,
			CreatedAt:      time.Now().Add(-time.Duration(60-i) * time.Second),
		}).Error)
	}

	items, err := svc.ListPending(0)
	require.NoError(t, err)
	assert.Len(t, items, 50, "default limit")

	items, err = svc.ListPending(10)
	require.NoError(t, err)
	assert.Len(t, items, 10)
}
