// handlers/task_routes.go
package handlers

import (
	"log"
	"time"

	"lifeos-xp-service/middleware"
	"lifeos-xp-service/models"
	"lifeos-xp-service/services"
	"lifeos-xp-service/utils"

	"github.com/gofiber/fiber/v2"
)

func SetupTaskRoutes(app *fiber.App, taskService *services.TaskService, completionService *services.CompletionService) {
	// User routes: identity comes from the verified Telegram initData
	userGroup := app.Group("/api/xp/tasks", middleware.TelegramAuthMiddleware())

	userGroup.Post("/submit", func(c *fiber.Ctx) error {
		userID := middleware.UserID(c)

		var req struct {
			TaskCode string `json:"taskCode"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "INVALID_BODY", "message": "invalid JSON",
			})
		}
		if services.NormalizeTaskCode(req.TaskCode) == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "INVALID_BODY", "message": "taskCode is required",
			})
		}

		result, err := completionService.Submit(userID, req.TaskCode)
		if err != nil {
			log.Printf("[XP] submit error for user %d: %v", userID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "DB_ERROR", "message": err.Error(),
			})
		}

		// Expected business outcomes (not found, inactive, limit reached) are
		// successful responses with a status discriminator, not errors.
		resp := fiber.Map{
			"ok":         true,
			"status":     result.Status,
			"usedCount":  result.UsedCount,
			"maxForUser": result.MaxForUser,
		}
		if result.TaskCode != "" {
			resp["taskCode"] = result.TaskCode
			resp["taskType"] = result.TaskType
		}
		if result.Status == services.SubmitPending {
			resp["completionId"] = result.CompletionID
			resp["rewardXp"] = result.RewardXP
		}
		return c.JSON(resp)
	})

	userGroup.Post("/list", func(c *fiber.Ctx) error {
		userID := middleware.UserID(c)

		var req struct {
			IncludeInactive bool   `json:"includeInactive"`
			Category        string `json:"category"`
			ForUser         bool   `json:"forUser"`
		}
		_ = c.BodyParser(&req) // empty body = defaults

		opts := services.ListTasksOptions{
			IncludeInactive: req.IncludeInactive,
			Category:        req.Category,
		}
		if req.ForUser {
			opts.ForUser = &userID
		}

		tasks, err := taskService.ListTasks(opts)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "DB_ERROR", "message": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"ok": true, "tasks": tasks})
	})

	// Admin routes: shared admin token
	adminGroup := app.Group("/api/xp/admin/tasks", middleware.AdminAuthMiddleware())

	adminGroup.Post("/create", func(c *fiber.Ctx) error {
		var req struct {
			Title              string     `json:"title"`
			Description        string     `json:"description"`
			Category           string     `json:"category"`
			RewardXP           int64      `json:"rewardXp"`
			TaskType           string     `json:"taskType"`
			MaxUserCompletions *int       `json:"maxUserCompletions"`
			DeadlineAt         *time.Time `json:"deadlineAt"`
			CreatedBy          *int64     `json:"createdBy"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "INVALID_BODY", "message": "invalid JSON",
			})
		}

		task, err := taskService.CreateTask(services.CreateTaskInput{
			Title:              req.Title,
			Description:        req.Description,
			Category:           req.Category,
			RewardXP:           req.RewardXP,
			TaskType:           models.TaskType(req.TaskType),
			MaxUserCompletions: req.MaxUserCompletions,
			DeadlineAt:         req.DeadlineAt,
			CreatedBy:          req.CreatedBy,
		})
		if err == services.ErrTitleRequired || err == services.ErrInvalidReward {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "INVALID_BODY", "message": err.Error(),
			})
		}
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "DB_ERROR", "message": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"ok": true, "task": task})
	})

	adminGroup.Post("/delete", func(c *fiber.Ctx) error {
		var req struct {
			TaskCode string `json:"taskCode"`
		}
		if err := c.BodyParser(&req); err != nil || services.NormalizeTaskCode(req.TaskCode) == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "INVALID_BODY", "message": "taskCode is required",
			})
		}

		alreadyArchived, err := taskService.ArchiveTask(req.TaskCode)
		if err == services.ErrTaskNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "TASK_NOT_FOUND", "message": "task not found",
			})
		}
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "DB_ERROR", "message": err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"ok":              true,
			"taskCode":        services.NormalizeTaskCode(req.TaskCode),
			"status":          models.TaskStatusArchived,
			"alreadyArchived": alreadyArchived,
		})
	})

	adminGroup.Post("/approve", func(c *fiber.Ctx) error {
		var req struct {
			CompletionID string `json:"completionId"`
			AdminID      *int64 `json:"adminId"`
		}
		if err := c.BodyParser(&req); err != nil || req.CompletionID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "INVALID_BODY", "message": "completionId is required",
			})
		}

		result, err := completionService.Approve(req.CompletionID, req.AdminID)
		if err != nil {
			return decisionError(c, err)
		}
		return c.JSON(fiber.Map{
			"ok":           true,
			"completionId": result.CompletionID,
			"rewardXp":     result.RewardXP,
			"profile":      normalizeProfile(result.Profile),
		})
	})

	adminGroup.Post("/reject", func(c *fiber.Ctx) error {
		var req struct {
			CompletionID string `json:"completionId"`
			AdminID      *int64 `json:"adminId"`
		}
		if err := c.BodyParser(&req); err != nil || req.CompletionID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "INVALID_BODY", "message": "completionId is required",
			})
		}

		comp, err := completionService.Reject(req.CompletionID, req.AdminID)
		if err != nil {
			return decisionError(c, err)
		}
		return c.JSON(fiber.Map{
			"ok":           true,
			"completionId": comp.ID,
			"status":       comp.Status,
		})
	})

	adminGroup.Post("/pending", func(c *fiber.Ctx) error {
		var req struct {
			Limit int `json:"limit"`
		}
		_ = c.BodyParser(&req)

		items, err := completionService.ListPending(req.Limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "DB_ERROR", "message": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"ok": true, "items": items})
	})

	adminGroup.Post("/icon", func(c *fiber.Ctx) error {
		if !utils.R2Enabled() {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "UPLOADS_DISABLED", "message": "icon storage is not configured",
			})
		}

		taskCode := c.FormValue("taskCode")
		if services.NormalizeTaskCode(taskCode) == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "INVALID_BODY", "message": "taskCode is required",
			})
		}
		fileHeader, err := c.FormFile("icon")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "INVALID_BODY", "message": "icon file is required",
			})
		}

		url, err := utils.UploadTaskIcon(fileHeader, services.NormalizeTaskCode(taskCode))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "UPLOAD_FAILED", "message": err.Error(),
			})
		}

		task, err := taskService.SetIconURL(taskCode, url)
		if err == services.ErrTaskNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "TASK_NOT_FOUND", "message": "task not found",
			})
		}
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "DB_ERROR", "message": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"ok": true, "task": task})
	})
}

// decisionError maps the approval/rejection sentinel errors to HTTP codes.
func decisionError(c *fiber.Ctx, err error) error {
	switch err {
	case services.ErrCompletionNotFound:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "COMPLETION_NOT_FOUND", "message": "task completion not found",
		})
	case services.ErrInvalidStatus:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "INVALID_STATUS", "message": "completion is not pending",
		})
	default:
		log.Printf("[XP] decision error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "DB_ERROR", "message": err.Error(),
		})
	}
}

func normalizeProfile(p *models.Profile) fiber.Map {
	return fiber.Map{
		"telegramUserId": p.TelegramUserID,
		"stats": fiber.Map{
			"totalXp":     p.TotalXP,
			"level":       p.Level,
			"currentXp":   p.CurrentXP,
			"nextLevelXp": p.NextLevelXP,
		},
	}
}
