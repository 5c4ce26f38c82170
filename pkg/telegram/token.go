package telegram

import (
	"strconv"
	"strings"
)

// ValidateToken checks the "<bot id>:<secret>" shape of a bot token without
// calling the API.
func ValidateToken(token string) error {
	if token == "" || strings.ContainsAny(token, " \t\r\n") {
		return ErrInvalidToken
	}
	id, secret, ok := strings.Cut(token, ":")
	if !ok || secret == "" {
		return ErrInvalidToken
	}
	if n, err := strconv.ParseInt(id, 10, 64); err != nil || n <= 0 {
		return ErrInvalidToken
	}
	return nil
}

// BotID returns the numeric bot id prefix of a token, or 0.
func BotID(token string) int64 {
	id, _, _ := strings.Cut(token, ":")
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
