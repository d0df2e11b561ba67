package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
)

// ReplayGuard отмечает уже использованные initData. Повторная подача того же
// payload в пределах окна свежести отклоняется.
type ReplayGuard interface {
	// Seen возвращает true, если payload с таким дайджестом уже предъявляли.
	Seen(ctx context.Context, digest string, ttl time.Duration) (bool, error)
}

// PayloadDigest — ключ replay-guard по сырой строке initData.
func PayloadDigest(initData string) string {
	sum := sha256.Sum256([]byte(initData))
	return hex.EncodeToString(sum[:])
}

type RedisReplayGuard struct {
	client *redis.Client
}

func NewRedisReplayGuard(client *redis.Client) *RedisReplayGuard {
	return &RedisReplayGuard{client: client}
}

func (g *RedisReplayGuard) Seen(ctx context.Context, digest string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	fresh, err := g.client.SetNX(ctx, "auth:initdata:"+digest, 1, ttl).Result()
	if err != nil {
		return false, err
	}
	return !fresh, nil
}

// NoopReplayGuard используется, когда Redis не настроен.
type NoopReplayGuard struct{}

func (NoopReplayGuard) Seen(context.Context, string, time.Duration) (bool, error) {
	return false, nil
}
