package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/templui/tutordesk/internal/validation"
)

// Store drivers selectable with STORE_DRIVER.
const (
	DriverSQLite = "sqlite"
	DriverPgx    = "pgx"
	DriverRedis  = "redis"
	DriverS3     = "s3"
	DriverFile   = "file"
	DriverMemory = "memory"
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	AppURL  string
	Port    string

	// Goal store
	StoreDriver         string
	StoreNamespace      string
	DBConnection        string
	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	StoreDir            string
	DefaultSoundEnabled bool

	// Storage (S3-compatible: MinIO, AWS S3, Cloudflare R2, etc.)
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Endpoint  string // Optional: for S3-compatible services

	// Observability (optional)
	SentryDSN string

	// Email (optional; completion mails and the daily digest)
	EmailFrom    string
	ResendAPIKey string
	NotifyEmail  string

	// API access
	APITokenSecret     string // Empty disables bearer auth
	APITokenExpiry     time.Duration
	CORSAllowedOrigins []string

	// Scheduler
	SchedulerEnabled    bool
	ResumeSweepInterval time.Duration
	DigestTime          string
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName: envString("APP_NAME", "Tutordesk"),
		AppEnv:  envString("APP_ENV", "development"),
		AppURL:  envString("APP_URL", "http://localhost:8090"),
		Port:    envString("PORT", "8090"),

		// Goal store
		StoreDriver:         envString("STORE_DRIVER", DriverSQLite),
		StoreNamespace:      envString("STORE_NAMESPACE", "tutordesk"),
		DBConnection:        envString("DB_CONNECTION", "./data/tutordesk.db?_pragma=journal_mode(WAL)"),
		RedisAddr:           envString("REDIS_ADDR", "localhost:6379"),
		RedisPassword:       envString("REDIS_PASSWORD", ""),
		RedisDB:             envInt("REDIS_DB", 0),
		StoreDir:            envString("STORE_DIR", "./data/goals"),
		DefaultSoundEnabled: envBool("DEFAULT_SOUND_ENABLED", true),

		// Storage
		S3Region:    envString("S3_REGION", "us-east-1"),
		S3Bucket:    envString("S3_BUCKET", ""),
		S3AccessKey: envString("S3_ACCESS_KEY", ""),
		S3SecretKey: envString("S3_SECRET_KEY", ""),
		S3Endpoint:  envString("S3_ENDPOINT", ""),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		// Email
		EmailFrom:    envString("EMAIL_FROM", "noreply@example.com"),
		ResendAPIKey: envString("RESEND_API_KEY", ""),
		NotifyEmail:  envString("NOTIFY_EMAIL", ""),

		// API access
		APITokenSecret:     envString("API_TOKEN_SECRET", ""),
		APITokenExpiry:     envDuration("API_TOKEN_EXPIRY", 720*time.Hour), // 30 days
		CORSAllowedOrigins: envList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:8090"}),

		// Scheduler
		SchedulerEnabled:    envBool("SCHEDULER_ENABLED", true),
		ResumeSweepInterval: envDuration("RESUME_SWEEP_INTERVAL", time.Minute),
		DigestTime:          envString("DIGEST_TIME", "08:00"),
	}

	if cfg.StoreDriver == DriverS3 {
		cfg.S3Bucket = envRequired("S3_BUCKET")
	}

	if cfg.NotifyEmail != "" {
		if err := validation.ValidateEmail(cfg.NotifyEmail); err != nil {
			slog.Warn("ignoring NOTIFY_EMAIL", "error", err)
			cfg.NotifyEmail = ""
		}
	}

	// Production: validate required services
	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction refuses to start a production server that anyone could write to.
func validateProduction(cfg *Config) {
	if cfg.APITokenSecret == "" {
		slog.Error("production deployment requires API_TOKEN_SECRET",
			"hint", "set APP_ENV=development for local testing without auth")
		os.Exit(1)
	}
	if cfg.NotifyEmail != "" && cfg.ResendAPIKey == "" {
		slog.Error("NOTIFY_EMAIL requires RESEND_API_KEY in production",
			"hint", "set APP_ENV=development for local testing with email log mode")
		os.Exit(1)
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return i
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

// envList splits a comma separated value, dropping blanks.
func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// EmailEnabled reports whether completion mails and digests have a recipient.
func (c *Config) EmailEnabled() bool {
	return c.NotifyEmail != "" && (c.ResendAPIKey != "" || c.IsDevelopment())
}

// Sanitized returns a copy of the config with only public/safe fields.
// All secrets, credentials, and sensitive data are excluded.
// Safe to expose in ctx and client-facing responses.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName:             c.AppName,
		AppEnv:              c.AppEnv,
		AppURL:              c.AppURL,
		Port:                c.Port,
		StoreDriver:         c.StoreDriver,
		StoreNamespace:      c.StoreNamespace,
		DefaultSoundEnabled: c.DefaultSoundEnabled,
		EmailFrom:           c.EmailFrom,
		CORSAllowedOrigins:  c.CORSAllowedOrigins,
		SchedulerEnabled:    c.SchedulerEnabled,
		DigestTime:          c.DigestTime,
	}
}
