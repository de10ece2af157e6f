package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"lifeos-xp-service/handlers"
	"lifeos-xp-service/models"
	"lifeos-xp-service/services"
	"lifeos-xp-service/utils"
	"lifeos-xp-service/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // icons only, keep uploads small
	})

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		log.Println("ALLOWED_ORIGINS not set, using default: http://localhost:3000")
		allowedOrigins = "http://localhost:3000"
	}
	origins := strings.Split(allowedOrigins, ",")
	for i, origin := range origins {
		origins[i] = strings.TrimSpace(origin)
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(origins, ","),
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Telegram-Init-Data",
		MaxAge:       86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Task{},
		&models.Completion{},
		&models.Profile{},
		&models.XPEvent{},
		&models.Trophy{},
		&models.TrophyUnlock{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if err := utils.InitR2(); err != nil {
		log.Printf("R2 uploads disabled: %v", err)
	}

	taskService := services.NewTaskService(db)
	completionService := services.NewCompletionService(db)
	profileService := services.NewProfileService(db)
	eventService := services.NewEventService(db)
	trophyService := services.NewTrophyService(db)

	if err := trophyService.SeedCatalog(); err != nil {
		log.Fatal("failed to seed trophy catalog:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	alertClient := workers.NewPendingAlertClient(db)
	go workers.PollPendingCompletions(ctx, alertClient, 5*time.Minute)

	taskService.StartDeadlineScheduler()

	handlers.SetupTaskRoutes(app, taskService, completionService)
	handlers.SetupProfileRoutes(app, profileService, eventService, trophyService)
	handlers.SetupTrophyRoutes(app, trophyService)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ XP service running on http://localhost:%s", port)
	log.Println("✅ Deadline scheduler running (every 1m)")
	log.Println("✅ Pending review alert polling running (every 5m)")

	<-ctx.Done()
	log.Println("Shutting down server...")
	_ = app.Shutdown()
}
