package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Session  SessionConfig
	Uploads  UploadConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	MaxBodyBytes          int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level        string
	AuditLogPath string
}

// AuthConfig defines password hashing and login throttle parameters.
type AuthConfig struct {
	// Argon2id cost parameters. Each produced hash embeds the values it
	// was created with, so verification keeps working after these change.
	ArgonTime    uint32
	ArgonMemory  uint32
	ArgonThreads uint8
	ArgonKeyLen  uint32
	ArgonSaltLen uint32

	MinPasswordLength  int
	LoginMaxAttempts   int
	LoginWindowMinutes int
}

// SessionConfig defines signed session cookie parameters.
type SessionConfig struct {
	Secret          string
	LifetimeMinutes int
	CookieName      string
	CookieSecure    bool
}

// UploadConfig constrains report image uploads.
type UploadConfig struct {
	Dir            string
	MaxBytes       int64
	MaxPixelWidth  int
	MaxPixelHeight int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	env := getEnv("APP_ENV", "development")

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "secureleak-report-service"),
			Env:                   env,
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			MaxBodyBytes:          getEnvAsInt("HTTP_MAX_BODY_BYTES", 3*1024*1024),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level:        getEnv("LOG_LEVEL", "info"),
			AuditLogPath: getEnv("AUDIT_LOG_PATH", "audit.log"),
		},
		Auth: AuthConfig{
			ArgonTime:          uint32(getEnvAsInt("AUTH_ARGON_TIME", 3)),
			ArgonMemory:        uint32(getEnvAsInt("AUTH_ARGON_MEMORY_KIB", 65536)),
			ArgonThreads:       uint8(getEnvAsInt("AUTH_ARGON_THREADS", 2)),
			ArgonKeyLen:        uint32(getEnvAsInt("AUTH_ARGON_KEY_LEN", 32)),
			ArgonSaltLen:       uint32(getEnvAsInt("AUTH_ARGON_SALT_LEN", 16)),
			MinPasswordLength:  getEnvAsInt("AUTH_MIN_PASSWORD_LENGTH", 10),
			LoginMaxAttempts:   getEnvAsInt("AUTH_LOGIN_MAX_ATTEMPTS", 10),
			LoginWindowMinutes: getEnvAsInt("AUTH_LOGIN_WINDOW_MINUTES", 5),
		},
		Session: SessionConfig{
			Secret:          getEnv("SESSION_SECRET", "dev-insecure-secret"),
			LifetimeMinutes: getEnvAsInt("SESSION_LIFETIME_MINUTES", 30),
			CookieName:      getEnv("SESSION_COOKIE_NAME", "session"),
			CookieSecure:    env != "development",
		},
		Uploads: UploadConfig{
			Dir:            getEnv("UPLOADS_DIR", "uploads"),
			MaxBytes:       int64(getEnvAsInt("UPLOAD_MAX_BYTES", 2*1024*1024)),
			MaxPixelWidth:  getEnvAsInt("UPLOAD_MAX_PIXEL_WIDTH", 2048),
			MaxPixelHeight: getEnvAsInt("UPLOAD_MAX_PIXEL_HEIGHT", 2048),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Lifetime returns the session lifetime duration.
func (s SessionConfig) Lifetime() time.Duration {
	if s.LifetimeMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(s.LifetimeMinutes) * time.Minute
}

// LoginWindow returns the throttle counting window.
func (a AuthConfig) LoginWindow() time.Duration {
	if a.LoginWindowMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(a.LoginWindowMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
