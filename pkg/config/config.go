package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Redis   RedisConfig
	JWT     JWTConfig
	CORS    CORSConfig
	Log     LogConfig
	Sync    SyncConfig
	Overdue OverdueConfig
	Export  ExportConfig
	Seed    SeedConfig
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SyncConfig tunes the change-signal watcher shared by all views.
type SyncConfig struct {
	PollInterval time.Duration
	Channel      string
}

// OverdueConfig controls the SLA scan over pending queries.
type OverdueConfig struct {
	Enabled      bool
	Threshold    time.Duration
	ScanInterval time.Duration
}

// ExportConfig toggles the report download endpoints.
type ExportConfig struct {
	Enabled bool
}

// SeedConfig provides the bootstrap allow-list accounts.
type SeedConfig struct {
	AdminEmail      string
	AdminPassword   string
	StudentEmail    string
	StudentPassword string
	StudentID       string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Sync = SyncConfig{
		PollInterval: parseDuration(v.GetString("SYNC_POLL_INTERVAL"), 3*time.Second),
		Channel:      v.GetString("SYNC_CHANNEL"),
	}

	cfg.Overdue = OverdueConfig{
		Enabled:      v.GetBool("ENABLE_OVERDUE_SCAN"),
		Threshold:    parseDuration(v.GetString("OVERDUE_THRESHOLD"), 72*time.Hour),
		ScanInterval: parseDuration(v.GetString("OVERDUE_SCAN_INTERVAL"), time.Minute),
	}

	cfg.Export = ExportConfig{
		Enabled: v.GetBool("ENABLE_EXPORTS"),
	}

	cfg.Seed = SeedConfig{
		AdminEmail:      v.GetString("SEED_ADMIN_EMAIL"),
		AdminPassword:   v.GetString("SEED_ADMIN_PASSWORD"),
		StudentEmail:    v.GetString("SEED_STUDENT_EMAIL"),
		StudentPassword: v.GetString("SEED_STUDENT_PASSWORD"),
		StudentID:       v.GetString("SEED_STUDENT_ID"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SYNC_POLL_INTERVAL", "3s")
	v.SetDefault("SYNC_CHANNEL", "campusq:changes")

	v.SetDefault("ENABLE_OVERDUE_SCAN", true)
	v.SetDefault("OVERDUE_THRESHOLD", "72h")
	v.SetDefault("OVERDUE_SCAN_INTERVAL", "1m")

	v.SetDefault("ENABLE_EXPORTS", true)

	v.SetDefault("SEED_ADMIN_EMAIL", "admin@campusq.com")
	v.SetDefault("SEED_ADMIN_PASSWORD", "admin123")
	v.SetDefault("SEED_STUDENT_EMAIL", "johndoe@campusq.com")
	v.SetDefault("SEED_STUDENT_PASSWORD", "student123")
	v.SetDefault("SEED_STUDENT_ID", "S001")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
