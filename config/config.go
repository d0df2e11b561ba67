package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config хранит все конфигурации приложения. Создаётся один раз при старте
// и дальше только читается.
type Config struct {
	Env        string
	ServerPort string

	// Telegram Mini App auth
	BotToken         string
	AllowedUsernames []string
	DevUsername      string
	AuthMaxAge       time.Duration

	// Session tokens
	JwtSecret         string
	JwtAlgorithm      string
	JwtExpiresMinutes int

	// Whisper API
	WhisperAPIKey string
	WhisperAPIURL string

	// Storage
	DatabaseDSN   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Optional Google Sheets history log
	GoogleSheetsID        string
	GoogleCredentialsFile string

	// Transcription defaults
	DefaultLanguage      string
	DefaultOutputFormat  string
	DefaultMinSpeakers   int
	DefaultMaxSpeakers   int
	DefaultSpeakerLabels bool
	DefaultTranslate     bool
}

const EnvProd = "prod"

// NewConfig создает и возвращает новый экземпляр Config.
func NewConfig() *Config {
	// .env.local имеет приоритет над .env; оба файла опциональны.
	godotenv.Load(".env.local")
	godotenv.Load()

	return &Config{
		Env:        strings.ToLower(getEnv("ENV", "dev")),
		ServerPort: getEnv("SERVER_PORT", "8080"),

		BotToken:         os.Getenv("BOT_TOKEN"),
		AllowedUsernames: splitUsernames(os.Getenv("ALLOWED_USERNAMES")),
		DevUsername:      os.Getenv("DEV_USERNAME"),
		AuthMaxAge:       time.Duration(getEnvInt("AUTH_MAX_AGE_HOURS", 24)) * time.Hour,

		JwtSecret:         os.Getenv("JWT_SECRET_KEY"),
		JwtAlgorithm:      getEnv("JWT_ALGORITHM", "HS256"),
		JwtExpiresMinutes: getEnvInt("JWT_EXPIRES_MINUTES", 30),

		WhisperAPIKey: os.Getenv("WHISPER_API_KEY"),
		WhisperAPIURL: os.Getenv("WHISPER_API_URL"),

		DatabaseDSN:   getEnv("DATABASE_URL", "postgres://localhost/whisperapi?sslmode=disable"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		GoogleSheetsID:        os.Getenv("GOOGLE_SHEETS_ID"),
		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", "credentials.json"),

		DefaultLanguage:      getEnv("DEFAULT_LANGUAGE", "english"),
		DefaultOutputFormat:  getEnv("DEFAULT_OUTPUT_FORMAT", "markdown"),
		DefaultMinSpeakers:   getEnvInt("DEFAULT_MIN_SPEAKERS", 1),
		DefaultMaxSpeakers:   getEnvInt("DEFAULT_MAX_SPEAKERS", 8),
		DefaultSpeakerLabels: getEnvBool("DEFAULT_SPEAKER_LABELS", true),
		DefaultTranslate:     getEnvBool("DEFAULT_TRANSLATE", false),
	}
}

// Validate проверяет обязательные секреты. В prod любой отсутствующий секрет
// фатален: сервис без ключа подписи не сможет выдать ни одного валидного
// токена, поэтому это ошибка старта, а не запроса.
func (c *Config) Validate() error {
	if c.Env != EnvProd {
		return nil
	}
	for name, value := range map[string]string{
		"JWT_SECRET_KEY":  c.JwtSecret,
		"BOT_TOKEN":       c.BotToken,
		"WHISPER_API_KEY": c.WhisperAPIKey,
		"WHISPER_API_URL": c.WhisperAPIURL,
	} {
		if value == "" {
			return fmt.Errorf("%s is missing in environment variables", name)
		}
	}
	return nil
}

func splitUsernames(raw string) []string {
	var usernames []string
	for _, u := range strings.Split(raw, ",") {
		u = strings.ToLower(strings.TrimSpace(u))
		if u != "" {
			usernames = append(usernames, u)
		}
	}
	return usernames
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		switch strings.ToLower(value) {
		case "1", "true", "t", "yes", "on":
			return true
		case "0", "false", "f", "no", "off":
			return false
		}
	}
	return fallback
}
