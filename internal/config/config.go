package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

type Config struct {
	AppHost  string
	HTTPPort string
	AppEnv   string
	LogLevel string

	// SessionStore selects the snapshot backend: memory, postgres or redis.
	SessionStore     string
	SessionKeyPrefix string
	SessionTTL       time.Duration
	// SessionIdleTimeout drops in-memory conversations after inactivity; 0 keeps them.
	SessionIdleTimeout time.Duration

	TypingDelay   time.Duration
	DirectoryFile string
	UploadDir     string
	AssistantName string

	DB struct {
		Host     string
		Port     string
		User     string
		Password string
		Database string
		SSLMode  string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	Kafka struct {
		Brokers     string
		TopicTicket string
	}
}

func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	cfg := &Config{
		AppHost:          getEnv("APP_HOST", "0.0.0.0"),
		HTTPPort:         firstEnv("APP_PORT", "HTTP_PORT", "8098"),
		AppEnv:           getEnv("APP_ENV", "development"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		SessionStore:     strings.ToLower(getEnv("SESSION_STORE", StoreMemory)),
		SessionKeyPrefix: getEnv("SESSION_KEY_PREFIX", "support_chat:session:"),
		DirectoryFile:    getEnv("DIRECTORY_FILE", ""),
		UploadDir:        getEnv("UPLOAD_DIR", "uploads"),
		AssistantName:    getEnv("ASSISTANT_NAME", "Zazu"),
	}

	var err error
	if cfg.SessionTTL, err = durationEnv("SESSION_TTL", 0); err != nil {
		return nil, err
	}
	if cfg.SessionIdleTimeout, err = durationEnv("SESSION_IDLE_TIMEOUT", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.TypingDelay, err = durationEnv("TYPING_DELAY", 1200*time.Millisecond); err != nil {
		return nil, err
	}

	cfg.DB.Host = getEnv("DB_HOST", "localhost")
	cfg.DB.Port = getEnv("DB_PORT", "5432")
	cfg.DB.User = getEnv("DB_USER", "postgres")
	cfg.DB.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.DB.Database = getEnv("DB_DATABASE", "support_chat")
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	if cfg.Redis.DB, err = strconv.Atoi(getEnv("REDIS_DB", "0")); err != nil {
		return nil, fmt.Errorf("config: REDIS_DB: %w", err)
	}

	cfg.Kafka.Brokers = getEnv("KAFKA_BROKERS", "")
	cfg.Kafka.TopicTicket = getEnv("KAFKA_TOPIC_TICKET", "support.tickets")
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.SessionStore {
	case StoreMemory:
	case StorePostgres:
		if c.DB.Host == "" || c.DB.Database == "" {
			return errors.New("config: DB_HOST and DB_DATABASE are required for the postgres session store")
		}
		if c.AppEnv == "production" && c.DB.Password == "" {
			return errors.New("config: in production DB_PASSWORD is required")
		}
	case StoreRedis:
		if c.Redis.Addr == "" {
			return errors.New("config: REDIS_ADDR is required for the redis session store")
		}
	default:
		return fmt.Errorf("config: SESSION_STORE must be memory, postgres or redis, got %q", c.SessionStore)
	}
	if c.TypingDelay < 0 {
		return errors.New("config: TYPING_DELAY must not be negative")
	}
	if c.SessionTTL < 0 {
		return errors.New("config: SESSION_TTL must not be negative")
	}
	if c.SessionIdleTimeout < 0 {
		return errors.New("config: SESSION_IDLE_TIMEOUT must not be negative")
	}
	return nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Database, c.DB.SSLMode)
}

func (c *Config) DatabaseURL() string {
	pass := url.QueryEscape(c.DB.Password)
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DB.User, pass, c.DB.Host, c.DB.Port, c.DB.Database, c.DB.SSLMode)
}

func (c *Config) Addr() string {
	return c.AppHost + ":" + c.HTTPPort
}

// SlogLevel maps LOG_LEVEL to a slog level; unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}

func firstEnv(keysAndDef ...string) string {
	if len(keysAndDef) == 0 {
		return ""
	}
	def := keysAndDef[len(keysAndDef)-1]
	for _, k := range keysAndDef[:len(keysAndDef)-1] {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
