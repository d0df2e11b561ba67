// config/redis.go
package config

import (
	"github.com/redis/go-redis/v9"
)

// NewRedisClient возвращает клиент Redis или nil, если REDIS_ADDR не задан.
// Redis опционален: без него отключаются replay-guard и кэш транскриптов.
func NewRedisClient(cfg *Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}
