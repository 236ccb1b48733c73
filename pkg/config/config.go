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
	Calendar CalendarConfig
	Export   ExportConfig
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
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CalendarConfig tunes event materialization and the past-date grace window.
type CalendarConfig struct {
	WeeksBefore      int
	WeeksAfter       int
	PastGraceDays    int
	WeekViewCacheTTL time.Duration
}

// ExportConfig governs timetable export generation and background jobs.
type ExportConfig struct {
	Enabled     bool
	MaxRows     int
	PDFTitle    string
	Dir         string
	Workers         int
	DownloadTTL     time.Duration
	FileTTL         time.Duration
	CleanupInterval time.Duration
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
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Calendar = CalendarConfig{
		WeeksBefore:      v.GetInt("CALENDAR_WEEKS_BEFORE"),
		WeeksAfter:       v.GetInt("CALENDAR_WEEKS_AFTER"),
		PastGraceDays:    v.GetInt("CALENDAR_PAST_GRACE_DAYS"),
		WeekViewCacheTTL: parseDuration(v.GetString("CALENDAR_WEEK_CACHE_TTL"), 2*time.Minute),
	}

	cfg.Export = ExportConfig{
		Enabled:         v.GetBool("ENABLE_EXPORTS"),
		MaxRows:         v.GetInt("EXPORT_MAX_ROWS"),
		PDFTitle:        v.GetString("EXPORT_PDF_TITLE"),
		Dir:             v.GetString("EXPORT_DIR"),
		Workers:         v.GetInt("EXPORT_WORKERS"),
		DownloadTTL:     parseDuration(v.GetString("EXPORT_DOWNLOAD_TTL"), 24*time.Hour),
		FileTTL:         parseDuration(v.GetString("EXPORT_FILE_TTL"), 24*time.Hour),
		CleanupInterval: parseDuration(v.GetString("EXPORT_CLEANUP_INTERVAL"), time.Hour),
	}

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
	v.SetDefault("DB_NAME", "deptdesk")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CALENDAR_WEEKS_BEFORE", 4)
	v.SetDefault("CALENDAR_WEEKS_AFTER", 3)
	v.SetDefault("CALENDAR_PAST_GRACE_DAYS", 30)
	v.SetDefault("CALENDAR_WEEK_CACHE_TTL", "2m")

	v.SetDefault("ENABLE_EXPORTS", true)
	v.SetDefault("EXPORT_MAX_ROWS", 2000)
	v.SetDefault("EXPORT_PDF_TITLE", "Department Timetable")
	v.SetDefault("EXPORT_DIR", "./exports")
	v.SetDefault("EXPORT_WORKERS", 2)
	v.SetDefault("EXPORT_DOWNLOAD_TTL", "24h")
	v.SetDefault("EXPORT_FILE_TTL", "24h")
	v.SetDefault("EXPORT_CLEANUP_INTERVAL", "1h")
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
