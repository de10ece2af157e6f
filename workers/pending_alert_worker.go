package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"lifeos-xp-service/models"
	"lifeos-xp-service/utils"

	"gorm.io/gorm"
)

// PendingAlertClient notifies the admin chat through the Telegram Bot API
// when the review queue needs attention.
type PendingAlertClient struct {
	BotToken    string
	AdminChatID string
	HTTPClient  *http.Client
	DB          *gorm.DB

	lastNotified int64 // pending count at the time of the last alert
}

// NewPendingAlertClient returns nil when ADMIN_CHAT_ID is not configured;
// callers treat that as "alerts disabled".
func NewPendingAlertClient(db *gorm.DB) *PendingAlertClient {
	botToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	chatID := os.Getenv("ADMIN_CHAT_ID")
	if botToken == "" || chatID == "" {
		return nil
	}

	return &PendingAlertClient{
		BotToken:    botToken,
		AdminChatID: chatID,
		DB:          db,
		HTTPClient:  utils.HTTPClient,
	}
}

func (c *PendingAlertClient) sendMessage(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]string{
		"chat_id": c.AdminChatID,
		"text":    text,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal sendMessage payload: %w", err)
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", c.BotToken)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call Telegram API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("Telegram API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// checkOnce alerts when the pending count grew since the last alert. A
// shrinking queue resets the watermark silently.
func (c *PendingAlertClient) checkOnce(ctx context.Context) {
	var pending int64
	err := c.DB.Model(&models.Completion{}).
		Where("status = ?", models.CompletionPending).
		Count(&pending).Error
	if err != nil {
		log.Printf("[PendingAlert] count error: %v", err)
		return
	}

	if pending <= c.lastNotified {
		c.lastNotified = pending
		return
	}

	text := fmt.Sprintf("XP review queue: %d completion(s) waiting for a decision", pending)
	if err := c.sendMessage(ctx, text); err != nil {
		log.Printf("[PendingAlert] notify failed: %v", err)
		return
	}
	c.lastNotified = pending
}

// PollPendingCompletions runs the alert loop until ctx is cancelled.
func PollPendingCompletions(ctx context.Context, client *PendingAlertClient, pollInterval time.Duration) {
	if client == nil {
		log.Println("[PendingAlert] ADMIN_CHAT_ID not set, alerts disabled")
		return
	}
	log.Println("Starting pending completion alert polling...")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[PendingAlert] stopped")
			return
		case <-ticker.C:
			client.checkOnce(ctx)
		}
	}
}
