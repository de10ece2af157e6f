// handlers/trophy_routes.go
package handlers

import (
	"lifeos-xp-service/middleware"
	"lifeos-xp-service/services"

	"github.com/gofiber/fiber/v2"
)

func SetupTrophyRoutes(app *fiber.App, trophyService *services.TrophyService) {
	userGroup := app.Group("/api/xp/trophies", middleware.TelegramAuthMiddleware())

	userGroup.Get("/", func(c *fiber.Ctx) error {
		userID := middleware.UserID(c)

		trophies, err := trophyService.List(&userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "DB_ERROR", "message": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"ok": true, "trophies": trophies})
	})
}
