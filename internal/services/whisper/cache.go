package whisper

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"
)

// Cache хранит результаты транскрипции в Redis, чтобы повторная загрузка
// того же файла с теми же параметрами не обращалась к платному API.
// Все методы безопасны при nil-кэше.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Cache{client: client, ttl: ttl}
}

// Key — content-addressed ключ: дайджест файла и влияющих на результат параметров.
func Key(audio []byte, p Params) string {
	h, _ := blake2b.New256(nil)
	h.Write(audio)
	h.Write([]byte{0})
	h.Write([]byte(strings.Join([]string{
		p.Language,
		p.Prompt,
		strconv.FormatBool(p.SpeakerLabels),
		strconv.FormatBool(p.Translate),
		strings.Join(p.TimestampGranularities, ","),
		strconv.Itoa(p.MinSpeakers),
		strconv.Itoa(p.MaxSpeakers),
	}, "|")))
	return "whisper:result:" + hex.EncodeToString(h.Sum(nil))
}

func (c *Cache) Get(ctx context.Context, key string) (*Result, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false
	}
	return &result, true
}

func (c *Cache) Put(ctx context.Context, key string, result *Result) {
	if c == nil || result == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		log.Printf("Failed to cache transcription result: %v", err)
	}
}
