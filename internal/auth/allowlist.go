package auth

import (
	"fmt"
	"strings"
)

// AllowList — множество разрешённых username в нижнем регистре. Загружается
// один раз при старте и не меняется.
type AllowList map[string]struct{}

func NewAllowList(usernames []string) AllowList {
	list := make(AllowList, len(usernames))
	for _, u := range usernames {
		u = strings.ToLower(strings.TrimSpace(u))
		if u != "" {
			list[u] = struct{}{}
		}
	}
	return list
}

func (a AllowList) Contains(username string) bool {
	_, ok := a[strings.ToLower(username)]
	return ok
}

// Authorize возвращает каноничный (нижний регистр) username пользователя,
// если тот есть в списке. Пустой username всегда отклоняется.
func (a AllowList) Authorize(user *TelegramUser) (string, error) {
	if user == nil || user.Username == "" {
		return "", fmt.Errorf("%w: empty username", ErrAccessDenied)
	}
	username := strings.ToLower(user.Username)
	if _, ok := a[username]; !ok {
		return "", fmt.Errorf("%w: %s", ErrAccessDenied, username)
	}
	return username, nil
}
