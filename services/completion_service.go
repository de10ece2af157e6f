package services

import (
	"errors"
	"log"
	"time"

	"lifeos-xp-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrCompletionNotFound = errors.New("task completion not found")
	ErrInvalidStatus      = errors.New("completion is not pending")
)

// SubmitStatus discriminates the expected business outcomes of a submission.
// None of these are errors: the client branches on the status, not on failure.
type SubmitStatus string

const (
	SubmitPending      SubmitStatus = "pending"
	SubmitTaskNotFound SubmitStatus = "task_not_found"
	SubmitTaskInactive SubmitStatus = "task_inactive"
	SubmitLimitReached SubmitStatus = "limit_reached"
)

// SubmitResult is the submission state machine outcome.
type SubmitResult struct {
	Status       SubmitStatus    `json:"status"`
	CompletionID string          `json:"completion_id,omitempty"`
	TaskCode     string          `json:"task_code,omitempty"`
	TaskType     models.TaskType `json:"task_type,omitempty"`
	RewardXP     int64           `json:"reward_xp,omitempty"`
	UsedCount    int             `json:"used_count"`
	MaxForUser   *int            `json:"max_for_user"`
}

// ApprovalResult is returned to the admin after a successful approval.
type ApprovalResult struct {
	CompletionID string          `json:"completion_id"`
	RewardXP     int64           `json:"reward_xp"`
	Profile      *models.Profile `json:"profile"`
}

type CompletionService struct {
	DB       *gorm.DB
	Tasks    *TaskService
	Profiles *ProfileService
	Events   *EventService
	Trophies *TrophyService
}

func NewCompletionService(db *gorm.DB) *CompletionService {
	return &CompletionService{
		DB:       db,
		Tasks:    NewTaskService(db),
		Profiles: NewProfileService(db),
		Events:   NewEventService(db),
		Trophies: NewTrophyService(db),
	}
}

// Submit runs the submission state machine for (user, taskCode):
// resolve task → active check → limit check → persist a pending completion.
// No XP moves here; XP is awarded only on approval.
func (s *CompletionService) Submit(userID int64, taskCode string) (*SubmitResult, error) {
	task, err := s.Tasks.GetByCode(taskCode)
	if err == ErrTaskNotFound {
		return &SubmitResult{Status: SubmitTaskNotFound}, nil
	}
	if err != nil {
		return nil, err
	}
	if !task.Available() {
		return &SubmitResult{Status: SubmitTaskInactive, TaskCode: task.Code, TaskType: task.TaskType}, nil
	}

	now := time.Now()
	decision, err := s.evaluateTaskLimit(task, userID, now)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return s.limitReached(task, decision), nil
	}

	completionID := uuid.NewString()
	inserted, err := s.insertPending(task, userID, completionID, decision.MaxForUser, now)
	if err != nil {
		return nil, err
	}
	if !inserted {
		// A concurrent submission consumed the last slot between the limit
		// check and the insert; re-read for accurate counts.
		decision, err = s.evaluateTaskLimit(task, userID, now)
		if err != nil {
			return nil, err
		}
		return s.limitReached(task, decision), nil
	}

	return &SubmitResult{
		Status:       SubmitPending,
		CompletionID: completionID,
		TaskCode:     task.Code,
		TaskType:     task.TaskType,
		RewardXP:     task.RewardXP,
		UsedCount:    decision.UsedCount + 1,
		MaxForUser:   decision.MaxForUser,
	}, nil
}

func (s *CompletionService) limitReached(task *models.Task, decision LimitDecision) *SubmitResult {
	return &SubmitResult{
		Status:     SubmitLimitReached,
		TaskCode:   task.Code,
		TaskType:   task.TaskType,
		UsedCount:  decision.UsedCount,
		MaxForUser: decision.MaxForUser,
	}
}

func (s *CompletionService) evaluateTaskLimit(task *models.Task, userID int64, now time.Time) (LimitDecision, error) {
	var prior []models.Completion
	err := s.DB.
		Where("task_id = ? AND telegram_user_id = ? AND status IN ?",
			task.ID, userID,
			[]models.CompletionStatus{models.CompletionPending, models.CompletionApproved}).
		Find(&prior).Error
	if err != nil {
		return LimitDecision{}, err
	}

	stamps := make([]CompletionStamp, 0, len(prior))
	for _, c := range prior {
		stamps = append(stamps, CompletionStamp{CreatedAt: c.CreatedAt, Status: c.Status})
	}
	return EvaluateLimit(task.TaskType, task.MaxUserCompletions, stamps, now), nil
}

// insertPending persists the pending completion with the reward snapshotted
// from the task. For bounded tasks the insert carries its own count guard in
// a single statement, closing the check-then-act race between two concurrent
// submissions for the same (task, user).
func (s *CompletionService) insertPending(task *models.Task, userID int64, completionID string, maxForUser *int, now time.Time) (bool, error) {
	if maxForUser == nil {
		comp := models.Completion{
			ID:             completionID,
			TaskID:         task.ID,
			TelegramUserID: userID,
			Status:         models.CompletionPending,
			RewardXP:       task.RewardXP,
			CreatedAt:      now,
		}
		if err := s.DB.Create(&comp).Error; err != nil {
			return false, err
		}
		return true, nil
	}

	args := []interface{}{
		completionID, task.ID, userID, string(models.CompletionPending), task.RewardXP, now,
		task.ID, userID,
		string(models.CompletionPending), string(models.CompletionApproved),
	}
	guard := `SELECT COUNT(*) FROM xp_task_completions
		WHERE task_id = ? AND telegram_user_id = ? AND status IN (?, ?)`
	if task.TaskType == models.TaskTypeDaily {
		guard += ` AND created_at >= ?`
		args = append(args, StartOfDay(now))
	}
	args = append(args, *maxForUser)

	res := s.DB.Exec(`INSERT INTO xp_task_completions
		(id, task_id, telegram_user_id, status, reward_xp, created_at)
		SELECT ?, ?, ?, ?, ?, ?
		WHERE (`+guard+`) < ?`, args...)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// transition performs the single conditional pending → terminal update. Two
// concurrent decisions on the same completion cannot both succeed: the loser
// sees zero affected rows and gets ErrInvalidStatus.
func (s *CompletionService) transition(completionID string, to models.CompletionStatus, adminID *int64) (*models.Completion, error) {
	var comp models.Completion
	err := s.DB.Where("id = ?", completionID).First(&comp).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrCompletionNotFound
	}
	if err != nil {
		return nil, err
	}

	now := time.Now()
	res := s.DB.Model(&models.Completion{}).
		Where("id = ? AND status = ?", completionID, models.CompletionPending).
		Updates(map[string]interface{}{
			"status":     to,
			"decided_at": now,
			"decided_by": adminID,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrInvalidStatus
	}

	comp.Status = to
	comp.DecidedAt = &now
	comp.DecidedBy = adminID
	return &comp, nil
}

// Approve transitions the completion to approved and awards its XP:
// profile update first, then the best-effort audit steps (event append,
// trophy evaluation) which are logged and swallowed on failure.
func (s *CompletionService) Approve(completionID string, adminID *int64) (*ApprovalResult, error) {
	comp, err := s.transition(completionID, models.CompletionApproved, adminID)
	if err != nil {
		return nil, err
	}

	rewardXP := comp.RewardXP
	if rewardXP == 0 {
		// pre-snapshot rows: fall back to the task's current reward
		var task models.Task
		if err := s.DB.Where("id = ?", comp.TaskID).First(&task).Error; err == nil {
			rewardXP = task.RewardXP
		}
	}

	prevTotal, profile, err := s.Profiles.AwardXP(comp.TelegramUserID, rewardXP)
	if err != nil {
		return nil, err
	}
	prevLevel := ComputeLevelStats(prevTotal).Level

	source := "task"
	event := models.XPEvent{
		TelegramUserID: comp.TelegramUserID,
		Type:           models.EventTaskCompleted,
		Amount:         &rewardXP,
		Source:         &source,
		TaskID:         &comp.TaskID,
		LevelFrom:      &prevLevel,
		LevelTo:        &profile.Level,
	}
	if err := s.Events.Append(&event); err != nil {
		log.Printf("[XP] event append failed for completion %s: %v", completionID, err)
	}

	s.Trophies.Evaluate(comp.TelegramUserID, prevTotal, profile.TotalXP, prevLevel, profile.Level, 1)

	return &ApprovalResult{
		CompletionID: completionID,
		RewardXP:     rewardXP,
		Profile:      profile,
	}, nil
}

// Reject is terminal: no XP, no profile change, no trophy evaluation.
func (s *CompletionService) Reject(completionID string, adminID *int64) (*models.Completion, error) {
	return s.transition(completionID, models.CompletionRejected, adminID)
}

// PendingItem is one admin review-queue entry with its task context joined in.
type PendingItem struct {
	ID             string    `json:"id"`
	TaskID         string    `json:"task_id"`
	TaskCode       string    `json:"task_code"`
	TaskTitle      string    `json:"task_title"`
	TelegramUserID int64     `json:"telegram_user_id"`
	Status         string    `json:"status"`
	RewardXP       int64     `json:"reward_xp"`
	CreatedAt      time.Time `json:"created_at"`
}

const (
	pendingDefaultLimit = 50
	pendingMaxLimit     = 200
)

// ListPending returns the admin review queue, oldest first so early
// submissions are never starved behind new ones.
func (s *CompletionService) ListPending(limit int) ([]PendingItem, error) {
	if limit <= 0 {
		limit = pendingDefaultLimit
	}
	if limit > pendingMaxLimit {
		limit = pendingMaxLimit
	}

	var items []PendingItem
	err := s.DB.Raw(`
		SELECT c.id, c.task_id, t.code AS task_code, t.title AS task_title,
		       c.telegram_user_id, c.status, c.reward_xp, c.created_at
		FROM xp_task_completions c
		INNER JOIN xp_tasks t ON t.id = c.task_id
		WHERE c.status = ?
		ORDER BY c.created_at ASC
		LIMIT ?
	`, models.CompletionPending, limit).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
