// utils/telegram.go
package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"sort"
	"strings"
)

// TelegramUser is the subset of the WebApp user payload the service needs.
type TelegramUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

// VerifyTelegramInitData checks the Telegram WebApp initData signature.
// Per the Bot API: secret = HMAC_SHA256(key="WebAppData", msg=botToken),
// expected hash = hex(HMAC_SHA256(key=secret, msg=data-check-string)) where
// the data-check-string is every "key=value" pair except hash, sorted and
// joined with newlines.
func VerifyTelegramInitData(initData, botToken string) bool {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return false
	}
	hash := values.Get("hash")
	if hash == "" {
		return false
	}

	pairs := make([]string, 0, len(values))
	for key := range values {
		if key == "hash" {
			continue
		}
		pairs = append(pairs, key+"="+values.Get(key))
	}
	sort.Strings(pairs)
	dataCheckString := strings.Join(pairs, "\n")

	secretMac := hmac.New(sha256.New, []byte("WebAppData"))
	secretMac.Write([]byte(botToken))
	secret := secretMac.Sum(nil)

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(dataCheckString))
	calculated := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(calculated), []byte(hash))
}

// ParseInitDataUser extracts the authenticated user from a verified initData
// blob. Call VerifyTelegramInitData first; this does no signature checking.
func ParseInitDataUser(initData string) (*TelegramUser, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, err
	}
	userJSON := values.Get("user")
	if userJSON == "" {
		return nil, errors.New("initData has no user field")
	}
	var user TelegramUser
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		return nil, err
	}
	if user.ID <= 0 {
		return nil, errors.New("initData user has no valid id")
	}
	return &user, nil
}
