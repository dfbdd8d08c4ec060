// Package config loads service settings from the environment. An optional
// .env file is read first; variables already set in the process win.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Shivanand-hulikatti/unihub-events/internal/database"
)

// Store drivers.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Embedding providers.
const (
	EmbedderOpenAI = "openai"
	EmbedderHash   = "hash"
)

// Notification drivers.
const (
	NotifySMTP  = "smtp"
	NotifyRedis = "redis"
	NotifyLog   = "log"
)

type Config struct {
	Server struct {
		Port            string
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		IdleTimeout     time.Duration
		ShutdownTimeout time.Duration
		AllowedOrigins  []string
	}

	StoreDriver string
	DB          database.Config
	// SeedUsers is a comma separated list of email:first:last entries
	// inserted at startup when the memory store is used.
	SeedUsers string

	Embedder string
	OpenAI   struct {
		APIKey  string
		BaseURL string
		Model   string
		Timeout time.Duration
		Retries int
	}

	Redis struct {
		URL          string
		EmbeddingTTL time.Duration
		Channel      string
	}

	Notify struct {
		Driver  string
		From    string
		Timeout time.Duration
		SMTP    struct {
			Host     string
			Port     int
			Username string
			Password string
		}
	}

	LogLevel string
	AppEnv   string
}

// Load reads the given .env files (".env" when none is named) and then the
// process environment.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	cfg := &Config{}

	cfg.Server.Port = getEnv("PORT", "8080")
	cfg.Server.ReadTimeout = getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	cfg.Server.WriteTimeout = getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	cfg.Server.IdleTimeout = getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)
	cfg.Server.ShutdownTimeout = getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second)
	cfg.Server.AllowedOrigins = getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"})

	cfg.StoreDriver = getEnv("STORE_DRIVER", StorePostgres)
	cfg.DB = database.Config{
		URL:             getEnv("DATABASE_URL", ""),
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnv("DB_PORT", "5432"),
		User:            getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", "postgres"),
		DBName:          getEnv("DB_NAME", "unihub"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxConns:        int32(getEnvAsInt("DB_MAX_CONNS", 20)),
		MinConns:        int32(getEnvAsInt("DB_MIN_CONNS", 2)),
		ConnectAttempts: getEnvAsInt("DB_CONNECT_ATTEMPTS", 5),
	}
	cfg.SeedUsers = getEnv("SEED_USERS", "")

	cfg.Embedder = getEnv("EMBEDDER", EmbedderOpenAI)
	cfg.OpenAI.APIKey = getEnv("OPENAI_API_KEY", "")
	cfg.OpenAI.BaseURL = getEnv("OPENAI_BASE_URL", "https://api.openai.com")
	cfg.OpenAI.Model = getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-ada-002")
	cfg.OpenAI.Timeout = getEnvAsDuration("OPENAI_TIMEOUT", 10*time.Second)
	cfg.OpenAI.Retries = getEnvAsInt("OPENAI_RETRIES", 2)

	cfg.Redis.URL = getEnv("REDIS_URL", "")
	cfg.Redis.EmbeddingTTL = getEnvAsDuration("EMBEDDING_CACHE_TTL", 24*time.Hour)
	cfg.Redis.Channel = getEnv("NOTIFY_CHANNEL", "unihub.notifications")

	cfg.Notify.Driver = getEnv("NOTIFY_DRIVER", NotifyLog)
	cfg.Notify.From = getEnv("NOTIFY_FROM", "no-reply@unihub.local")
	cfg.Notify.Timeout = getEnvAsDuration("NOTIFY_TIMEOUT", 10*time.Second)
	cfg.Notify.SMTP.Host = getEnv("SMTP_HOST", "localhost")
	cfg.Notify.SMTP.Port = getEnvAsInt("SMTP_PORT", 587)
	cfg.Notify.SMTP.Username = getEnv("SMTP_USERNAME", "")
	cfg.Notify.SMTP.Password = getEnv("SMTP_PASSWORD", "")

	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.AppEnv = getEnv("APP_ENV", "production")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks driver names and the settings each driver needs.
func (c *Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case StorePostgres, StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER: unknown driver %q", c.StoreDriver))
	}

	switch c.Embedder {
	case EmbedderOpenAI:
		if c.OpenAI.APIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for the openai embedder"))
		}
	case EmbedderHash:
	default:
		errs = append(errs, fmt.Errorf("EMBEDDER: unknown provider %q", c.Embedder))
	}

	switch c.Notify.Driver {
	case NotifySMTP, NotifyLog:
	case NotifyRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for the redis notifier"))
		}
	default:
		errs = append(errs, fmt.Errorf("NOTIFY_DRIVER: unknown driver %q", c.Notify.Driver))
	}

	return errors.Join(errs...)
}

// Development reports whether the service runs outside production.
func (c *Config) Development() bool {
	return c.AppEnv == "development" || c.AppEnv == "dev"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return d
}

func getEnvAsInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvAsList(key string, fallback []string) []string {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
