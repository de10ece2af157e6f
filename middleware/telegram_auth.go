// middleware/telegram_auth.go
package middleware

import (
	"log"
	"os"

	"lifeos-xp-service/utils"

	"github.com/gofiber/fiber/v2"
)

// InitDataHeader carries the raw Telegram WebApp initData blob.
const InitDataHeader = "X-Telegram-Init-Data"

// TelegramAuthMiddleware authenticates every user-facing route: the client
// must send its WebApp initData, the signature must verify against the bot
// token, and the user id is taken from the verified blob: never from the
// request body.
func TelegramAuthMiddleware() fiber.Handler {
	botToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	if botToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN is not set: cannot verify Telegram init data")
	}

	return func(c *fiber.Ctx) error {
		initData := c.Get(InitDataHeader)
		if initData == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "UNAUTHORIZED",
				"message": "missing " + InitDataHeader + " header",
			})
		}

		if !utils.VerifyTelegramInitData(initData, botToken) {
			log.Printf("[AUTH] invalid initData signature for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "UNAUTHORIZED",
				"message": "invalid init data signature",
			})
		}

		user, err := utils.ParseInitDataUser(initData)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "UNAUTHORIZED",
				"message": "init data carries no valid user",
			})
		}

		c.Locals("user_id", user.ID)
		c.Locals("username", user.Username)
		return c.Next()
	}
}

// UserID reads the authenticated Telegram user id set by the middleware.
func UserID(c *fiber.Ctx) int64 {
	id, _ := c.Locals("user_id").(int64)
	return id
}
