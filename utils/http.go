// utils/http.go
package utils

import (
	"net/http"
	"time"
)

// HTTPClient is shared by the workers for outbound calls (Telegram Bot API).
var HTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}
