package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// TelegramUser — пользователь из поля user в initData.
type TelegramUser struct {
	ID           int64  `json:"id"`
	Username     string `json:"username,omitempty"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

// ValidateInitData проверяет подпись initData Telegram Mini App и возвращает
// пользователя из поля user. maxAge ограничивает возраст auth_date; ноль
// отключает проверку.
func ValidateInitData(initData, botToken string, maxAge time.Duration, now time.Time) (*TelegramUser, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	data := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			data[k] = v[0]
		}
	}

	receivedHash := data["hash"]
	if receivedHash == "" {
		return nil, fmt.Errorf("%w: hash", ErrMissingField)
	}

	authDateStr := data["auth_date"]
	if authDateStr == "" {
		return nil, fmt.Errorf("%w: auth_date", ErrMissingField)
	}
	authDate, err := strconv.ParseInt(authDateStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad auth_date %q", ErrMalformedPayload, authDateStr)
	}
	if maxAge > 0 && now.Sub(time.Unix(authDate, 0)) > maxAge {
		return nil, fmt.Errorf("%w: auth_date older than %s", ErrStalePayload, maxAge)
	}

	if err := verifyHash(data, receivedHash, botToken); err != nil {
		return nil, err
	}

	userJSON := data["user"]
	if userJSON == "" {
		return nil, fmt.Errorf("%w: user", ErrMissingField)
	}
	var user TelegramUser
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		return nil, fmt.Errorf("%w: bad user field: %v", ErrMalformedPayload, err)
	}
	if user.ID == 0 {
		return nil, fmt.Errorf("%w: user id is required", ErrMalformedPayload)
	}

	return &user, nil
}

func verifyHash(data map[string]string, receivedHash, botToken string) error {
	keys := make([]string, 0, len(data))
	for k := range data {
		if k != "hash" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+data[k])
	}
	dataCheckString := strings.Join(pairs, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(dataCheckString))
	expected := mac.Sum(nil)

	received, err := hex.DecodeString(receivedHash)
	if err != nil {
		return fmt.Errorf("%w: hash is not hex", ErrInvalidSignature)
	}
	// hmac.Equal — сравнение за константное время.
	if !hmac.Equal(received, expected) {
		return ErrInvalidSignature
	}
	return nil
}
