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

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	FCM      FCMConfig
	Jobs     JobsConfig
	Sync     SyncConfig
	Reports  ReportsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
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
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// FCMConfig configures the push delivery client.
type FCMConfig struct {
	CredentialsFile string
	ProjectID       string
	DryRun          bool
}

// JobsConfig drives the scheduled attendance jobs. Times are wall-clock
// HH:MM values evaluated in Timezone.
type JobsConfig struct {
	Enabled              bool
	Timezone             string
	DailyLockAt          string
	LowAttendanceAt      string
	MonthlySummaryAt     string
	MonthlySummaryDay    int
	LowAttendanceFloor   float64
	ConsecutiveWindow    int
	ConsecutiveThreshold int
	ContactCacheTTL      time.Duration
}

// SyncConfig gates the master-data sync endpoint.
type SyncConfig struct {
	Enabled bool
}

// ReportsConfig gates summary export endpoints.
type ReportsConfig struct {
	Enabled bool
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

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.FCM = FCMConfig{
		CredentialsFile: v.GetString("FCM_CREDENTIALS_FILE"),
		ProjectID:       v.GetString("FCM_PROJECT_ID"),
		DryRun:          v.GetBool("FCM_DRY_RUN"),
	}

	cfg.Jobs = JobsConfig{
		Enabled:              v.GetBool("ENABLE_JOBS"),
		Timezone:             v.GetString("JOBS_TIMEZONE"),
		DailyLockAt:          v.GetString("JOBS_DAILY_LOCK_AT"),
		LowAttendanceAt:      v.GetString("JOBS_LOW_ATTENDANCE_AT"),
		MonthlySummaryAt:     v.GetString("JOBS_MONTHLY_SUMMARY_AT"),
		MonthlySummaryDay:    v.GetInt("JOBS_MONTHLY_SUMMARY_DAY"),
		LowAttendanceFloor:   v.GetFloat64("JOBS_LOW_ATTENDANCE_FLOOR"),
		ConsecutiveWindow:    v.GetInt("JOBS_CONSECUTIVE_WINDOW"),
		ConsecutiveThreshold: v.GetInt("JOBS_CONSECUTIVE_THRESHOLD"),
		ContactCacheTTL:      parseDuration(v.GetString("JOBS_CONTACT_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Sync = SyncConfig{Enabled: v.GetBool("ENABLE_SYNC")}
	cfg.Reports = ReportsConfig{Enabled: v.GetBool("ENABLE_REPORTS")}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "attendance")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "attendance-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("FCM_CREDENTIALS_FILE", "")
	v.SetDefault("FCM_PROJECT_ID", "")
	v.SetDefault("FCM_DRY_RUN", false)

	v.SetDefault("ENABLE_JOBS", true)
	v.SetDefault("JOBS_TIMEZONE", "Asia/Kolkata")
	v.SetDefault("JOBS_DAILY_LOCK_AT", "16:00")
	v.SetDefault("JOBS_LOW_ATTENDANCE_AT", "20:00")
	v.SetDefault("JOBS_MONTHLY_SUMMARY_AT", "01:00")
	v.SetDefault("JOBS_MONTHLY_SUMMARY_DAY", 1)
	v.SetDefault("JOBS_LOW_ATTENDANCE_FLOOR", 75.0)
	v.SetDefault("JOBS_CONSECUTIVE_WINDOW", 5)
	v.SetDefault("JOBS_CONSECUTIVE_THRESHOLD", 3)
	v.SetDefault("JOBS_CONTACT_CACHE_TTL", "10m")

	v.SetDefault("ENABLE_SYNC", true)
	v.SetDefault("ENABLE_REPORTS", true)
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
