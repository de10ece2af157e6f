// handlers/profile_routes.go
package handlers

import (
	"log"

	"lifeos-xp-service/middleware"
	"lifeos-xp-service/models"
	"lifeos-xp-service/services"

	"github.com/gofiber/fiber/v2"
)

func SetupProfileRoutes(app *fiber.App, profileService *services.ProfileService, eventService *services.EventService, trophyService *services.TrophyService) {
	// Telegram auth is scoped to the concrete user paths. A prefix-wide group
	// on /api/xp would also swallow /api/xp/admin, which must only ever see
	// the admin token check.
	telegramAuth := middleware.TelegramAuthMiddleware()

	profileGroup := app.Group("/api/xp/profile", telegramAuth)

	profileGroup.Get("/", func(c *fiber.Ctx) error {
		userID := middleware.UserID(c)

		profile, isNew, err := profileService.GetProfile(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "DB_ERROR", "message": err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"ok":      true,
			"isNew":   isNew,
			"profile": normalizeProfile(profile),
		})
	})

	profileGroup.Post("/sync", func(c *fiber.Ctx) error {
		userID := middleware.UserID(c)

		var req struct {
			TotalXP *int64 `json:"totalXp"`
		}
		if err := c.BodyParser(&req); err != nil || req.TotalXP == nil || *req.TotalXP < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "INVALID_BODY", "message": "totalXp (non-negative) is required",
			})
		}

		// Level/currentXp/nextLevelXp are always recomputed from totalXp
		// server-side, so a client can never push drifted stats.
		profile, err := profileService.SyncProfile(userID, *req.TotalXP)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "DB_ERROR", "message": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"ok": true, "profile": normalizeProfile(profile)})
	})

	app.Get("/api/xp/feed", telegramAuth, func(c *fiber.Ctx) error {
		userID := middleware.UserID(c)

		events, err := eventService.Feed(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "DB_ERROR", "message": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"ok": true, "events": events})
	})

	app.Post("/api/xp/events", telegramAuth, func(c *fiber.Ctx) error {
		userID := middleware.UserID(c)

		var req struct {
			Type      string  `json:"type"`
			Amount    *int64  `json:"amount"`
			Source    *string `json:"source"`
			TaskID    *string `json:"taskId"`
			LevelFrom *int    `json:"levelFrom"`
			LevelTo   *int    `json:"levelTo"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "INVALID_BODY", "message": "invalid JSON",
			})
		}

		event := models.XPEvent{
			TelegramUserID: userID,
			Type:           req.Type,
			Amount:         req.Amount,
			Source:         req.Source,
			TaskID:         req.TaskID,
			LevelFrom:      req.LevelFrom,
			LevelTo:        req.LevelTo,
		}
		if err := eventService.Append(&event); err != nil {
			if err == services.ErrEventTypeRequired {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "INVALID_BODY", "message": err.Error(),
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "DB_ERROR", "message": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"ok": true})
	})

	// Admin XP grant: manual award outside the task flow, audited the same way
	adminGroup := app.Group("/api/xp/admin", middleware.AdminAuthMiddleware())

	adminGroup.Post("/xp/grant", func(c *fiber.Ctx) error {
		var req struct {
			UserID int64  `json:"userId"`
			XP     int64  `json:"xp"`
			Reason string `json:"reason"`
		}
		if err := c.BodyParser(&req); err != nil || req.UserID <= 0 || req.XP <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "INVALID_BODY", "message": "userId and positive xp are required",
			})
		}

		prevTotal, profile, err := profileService.AwardXP(req.UserID, req.XP)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "DB_ERROR", "message": err.Error(),
			})
		}
		prevLevel := services.ComputeLevelStats(prevTotal).Level

		source := req.Reason
		if source == "" {
			source = "admin_grant"
		}
		event := models.XPEvent{
			TelegramUserID: req.UserID,
			Type:           models.EventXPGain,
			Amount:         &req.XP,
			Source:         &source,
			LevelFrom:      &prevLevel,
			LevelTo:        &profile.Level,
		}
		if err := eventService.Append(&event); err != nil {
			log.Printf("[XP] grant event append failed for user %d: %v", req.UserID, err)
		}

		trophyService.Evaluate(req.UserID, prevTotal, profile.TotalXP, prevLevel, profile.Level, 0)

		return c.JSON(fiber.Map{"ok": true, "profile": normalizeProfile(profile)})
	})
}
