package services

import (
	"errors"
	"strings"
	"time"

	"lifeos-xp-service/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound  = errors.New("task not found")
	ErrTitleRequired = errors.New("title is required")
	ErrInvalidReward = errors.New("reward XP must be a positive integer")
)

type TaskService struct {
	DB *gorm.DB
}

func NewTaskService(db *gorm.DB) *TaskService {
	return &TaskService{DB: db}
}

// GenerateTaskCode derives a stable external code from the task title:
// slugified title (max 12 chars), uppercased, plus a random suffix so two
// tasks with the same title never collide.
func GenerateTaskCode(title string) string {
	base := strings.ToUpper(strings.ReplaceAll(slug.Make(title), "-", "_"))
	if len(base) > 12 {
		base = base[:12]
	}
	base = strings.Trim(base, "_")
	if base == "" {
		base = "TASK"
	}
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:4])
	return base + "_" + suffix
}

// CreateTaskInput is the validated admin request for a new task.
type CreateTaskInput struct {
	Title              string
	Description        string
	Category           string
	RewardXP           int64
	TaskType           models.TaskType
	MaxUserCompletions *int
	DeadlineAt         *time.Time
	CreatedBy          *int64
}

func (s *TaskService) CreateTask(in CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if in.RewardXP <= 0 {
		return nil, ErrInvalidReward
	}

	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = "general"
	}

	taskType := in.TaskType
	switch taskType {
	case models.TaskTypeSingle, models.TaskTypeDaily, models.TaskTypeMulti:
	default:
		taskType = models.TaskTypeSingle
	}

	maxCompletions := in.MaxUserCompletions
	if maxCompletions != nil && *maxCompletions < 0 {
		maxCompletions = nil
	}

	task := &models.Task{
		ID:                 uuid.NewString(),
		Code:               GenerateTaskCode(title),
		Title:              title,
		Description:        strings.TrimSpace(in.Description),
		Category:           category,
		RewardXP:           in.RewardXP,
		TaskType:           taskType,
		MaxUserCompletions: maxCompletions,
		DeadlineAt:         in.DeadlineAt,
		IsActive:           true,
		Status:             models.TaskStatusActive,
		CreatedBy:          in.CreatedBy,
	}
	if err := s.DB.Create(task).Error; err != nil {
		return nil, err
	}
	return task, nil
}

// GetByCode resolves a task by its normalized external code.
func (s *TaskService) GetByCode(code string) (*models.Task, error) {
	var task models.Task
	err := s.DB.Where("code = ?", NormalizeTaskCode(code)).First(&task).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// NormalizeTaskCode applies the canonical form used everywhere a client
// supplies a code: trimmed and uppercased.
func NormalizeTaskCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ArchiveTask soft-disables a task. Completions referencing it stay intact.
// Idempotent: archiving an archived task reports alreadyArchived.
func (s *TaskService) ArchiveTask(code string) (bool, error) {
	task, err := s.GetByCode(code)
	if err != nil {
		return false, err
	}
	if task.Status == models.TaskStatusArchived {
		return true, nil
	}
	err = s.DB.Model(task).Updates(map[string]interface{}{
		"status":    models.TaskStatusArchived,
		"is_active": false,
	}).Error
	return false, err
}

// SetIconURL stores the uploaded icon location on the task.
func (s *TaskService) SetIconURL(code, url string) (*models.Task, error) {
	task, err := s.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if err := s.DB.Model(task).Update("icon_url", url).Error; err != nil {
		return nil, err
	}
	task.IconURL = url
	return task, nil
}

// TaskView is a task annotated with the requesting user's quota standing.
type TaskView struct {
	models.Task
	UsedCount  *int `json:"used_count,omitempty"`
	MaxForUser *int `json:"max_for_user,omitempty"`
}

// ListTasksOptions filters the task listing. When ForUser is set each task is
// annotated with usedCount/maxForUser and tasks whose quota the user already
// exhausted are dropped from the result.
type ListTasksOptions struct {
	IncludeInactive bool
	Category        string
	ForUser         *int64
}

func (s *TaskService) ListTasks(opts ListTasksOptions) ([]TaskView, error) {
	query := s.DB.Model(&models.Task{}).Order("created_at ASC")
	if !opts.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}
	if opts.Category != "" {
		query = query.Where("category = ?", opts.Category)
	}

	var tasks []models.Task
	if err := query.Find(&tasks).Error; err != nil {
		return nil, err
	}

	if opts.ForUser == nil || len(tasks) == 0 {
		views := make([]TaskView, 0, len(tasks))
		for _, t := range tasks {
			views = append(views, TaskView{Task: t})
		}
		return views, nil
	}

	taskIDs := make([]string, 0, len(tasks))
	for _, t := range tasks {
		taskIDs = append(taskIDs, t.ID)
	}

	var completions []models.Completion
	err := s.DB.
		Where("telegram_user_id = ? AND task_id IN ? AND status IN ?",
			*opts.ForUser, taskIDs,
			[]models.CompletionStatus{models.CompletionPending, models.CompletionApproved}).
		Find(&completions).Error
	if err != nil {
		return nil, err
	}

	byTask := make(map[string][]CompletionStamp)
	for _, c := range completions {
		byTask[c.TaskID] = append(byTask[c.TaskID], CompletionStamp{CreatedAt: c.CreatedAt, Status: c.Status})
	}

	now := time.Now()
	views := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		decision := EvaluateLimit(t.TaskType, t.MaxUserCompletions, byTask[t.ID], now)
		if !decision.Allowed {
			continue
		}
		used := decision.UsedCount
		views = append(views, TaskView{
			Task:       t,
			UsedCount:  &used,
			MaxForUser: decision.MaxForUser,
		})
	}
	return views, nil
}
