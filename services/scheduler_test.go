package services

import (
	"testing"
	"time"

	"lifeos-xp-service/models"
	"lifeos-xp-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockExpiredTasks(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewTaskService(db)

	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	expired, err := svc.CreateTask(CreateTaskInput{Title: "expired", RewardXP: 10, DeadlineAt: &past})
	require.NoError(t, err)
	upcoming, err := svc.CreateTask(CreateTaskInput{Title: "upcoming", RewardXP: 10, DeadlineAt: &future})
	require.NoError(t, err)
	open, err := svc.CreateTask(CreateTaskInput{Title: "no deadline", RewardXP: 10})
	require.NoError(t, err)

	locked := svc.LockExpiredTasks(now)
	assert.Equal(t, 1, locked)

	got, err := svc.GetByCode(expired.Code)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusLocked, got.Status)
	assert.False(t, got.IsActive)
	assert.False(t, got.Available())

	for _, code := range []string{upcoming.Code, open.Code} {
		got, err := svc.GetByCode(code)
		require.NoError(t, err)
		assert.Equal(t, models.TaskStatusActive, got.Status)
		assert.True(t, got.IsActive)
	}

	// already locked tasks are not touched again
	assert.Equal(t, 0, svc.LockExpiredTasks(now))
}
