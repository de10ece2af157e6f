package services

import (
	"testing"
	"time"

	"lifeos-xp-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func TestEvaluateLimit_SingleDefaultCap(t *testing.T) {
	now := time.Now()
	prior := []CompletionStamp{{CreatedAt: now.Add(-time.Hour), Status: models.CompletionApproved}}

	d := EvaluateLimit(models.TaskTypeSingle, nil, prior, now)
	assert.False(t, d.Allowed)
	assert.Equal(t, 1, d.UsedCount)
	require.NotNil(t, d.MaxForUser)
	assert.Equal(t, 1, *d.MaxForUser)
}

func TestEvaluateLimit_SingleConfiguredCap(t *testing.T) {
	now := time.Now()
	prior := []CompletionStamp{
		{CreatedAt: now.Add(-2 * time.Hour), Status: models.CompletionApproved},
		{CreatedAt: now.Add(-time.Hour), Status: models.CompletionPending},
	}

	d := EvaluateLimit(models.TaskTypeSingle, intPtr(3), prior, now)
	assert.True(t, d.Allowed)
	assert.Equal(t, 2, d.UsedCount)
	assert.Equal(t, 3, *d.MaxForUser)
}

func TestEvaluateLimit_RejectedNeverConsumesQuota(t *testing.T) {
	now := time.Now()
	prior := []CompletionStamp{
		{CreatedAt: now.Add(-time.Hour), Status: models.CompletionRejected},
		{CreatedAt: now.Add(-2 * time.Hour), Status: models.CompletionRejected},
	}

	d := EvaluateLimit(models.TaskTypeSingle, nil, prior, now)
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.UsedCount)
}

func TestEvaluateLimit_DailyResets(t *testing.T) {
	now := time.Now()
	yesterday := StartOfDay(now).Add(-time.Hour)
	prior := []CompletionStamp{{CreatedAt: yesterday, Status: models.CompletionApproved}}

	d := EvaluateLimit(models.TaskTypeDaily, intPtr(1), prior, now)
	assert.True(t, d.Allowed, "yesterday's completion must not count today")
	assert.Equal(t, 0, d.UsedCount)
}

func TestEvaluateLimit_DailyCountsToday(t *testing.T) {
	now := time.Now()
	prior := []CompletionStamp{
		{CreatedAt: StartOfDay(now).Add(-time.Hour), Status: models.CompletionApproved}, // yesterday
		{CreatedAt: now.Add(-time.Minute), Status: models.CompletionPending},            // today
	}

	d := EvaluateLimit(models.TaskTypeDaily, nil, prior, now)
	assert.False(t, d.Allowed)
	assert.Equal(t, 1, d.UsedCount)
	assert.Equal(t, 1, *d.MaxForUser)
}

func TestEvaluateLimit_MultiUnbounded(t *testing.T) {
	now := time.Now()
	prior := make([]CompletionStamp, 500)
	for i := range prior {
		prior[i] = CompletionStamp{CreatedAt: now.Add(-time.Duration(i) * time.Minute), Status: models.CompletionApproved}
	}

	d := EvaluateLimit(models.TaskTypeMulti, nil, prior, now)
	assert.True(t, d.Allowed)
	assert.Equal(t, 500, d.UsedCount)
	assert.Nil(t, d.MaxForUser)
}

func TestEvaluateLimit_MultiBounded(t *testing.T) {
	now := time.Now()
	prior := []CompletionStamp{
		{CreatedAt: now.Add(-48 * time.Hour), Status: models.CompletionApproved},
		{CreatedAt: now.Add(-time.Hour), Status: models.CompletionApproved},
	}

	d := EvaluateLimit(models.TaskTypeMulti, intPtr(2), prior, now)
	assert.False(t, d.Allowed)
	assert.Equal(t, 2, d.UsedCount)
	assert.Equal(t, 2, *d.MaxForUser)
}

func TestEvaluateLimit_ZeroConfiguredCapFallsBackToDefault(t *testing.T) {
	now := time.Now()

	// 0 means "not configured": single defaults to 1, multi to unbounded
	single := EvaluateLimit(models.TaskTypeSingle, intPtr(0), nil, now)
	require.NotNil(t, single.MaxForUser)
	assert.Equal(t, 1, *single.MaxForUser)

	multi := EvaluateLimit(models.TaskTypeMulti, intPtr(0), nil, now)
	assert.Nil(t, multi.MaxForUser)
}
