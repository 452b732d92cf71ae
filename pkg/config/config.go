package config

import (
	"errors"
	"io/fs"
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
	Env         string
	Port        int
	APIPrefix   string
	FrontendURL string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	OAuth     OAuthConfig
	Mail      MailConfig
	Exports   ExportsConfig
	Timetable TimetableConfig
	Dashboard DashboardConfig
	Tests     CodingTestConfig
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
	CookieSecure      bool
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// OAuthConfig holds social login client credentials.
type OAuthConfig struct {
	RedirectBase       string
	GoogleClientID     string
	GoogleClientSecret string
	GitHubClientID     string
	GitHubClientSecret string
	StateTTL           time.Duration
}

// MailConfig selects the outbound mail transport.
type MailConfig struct {
	Provider       string
	SendGridAPIKey string
	FromName       string
	FromAddress    string
	OTPTTL         time.Duration
	Workers        int
	Retries        int
}

// ExportsConfig controls seat chart storage and download links.
type ExportsConfig struct {
	StorageDir       string
	SignedURLSecret  string
	SignedURLTTL     time.Duration
	CleanupInterval  time.Duration
	RetentionTTL     time.Duration
	MaxUploadBytes   int64
	AllowedMIMETypes []string
}

// TimetableConfig tunes timetable listing cache.
type TimetableConfig struct {
	CacheTTL time.Duration
}

// DashboardConfig governs dashboard cache tuning.
type DashboardConfig struct {
	CacheTTL time.Duration
}

// CodingTestConfig configures the timed coding test and the execution engine.
type CodingTestConfig struct {
	Duration         time.Duration
	Reattempts       int
	RunnerURL        string
	RunnerTimeout    time.Duration
	MaxCodeSizeBytes int
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.FrontendURL = strings.TrimRight(v.GetString("FRONTEND_URL"), "/")

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
		CookieSecure:      cfg.Env == EnvProduction,
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.OAuth = OAuthConfig{
		RedirectBase:       strings.TrimRight(v.GetString("OAUTH_REDIRECT_BASE"), "/"),
		GoogleClientID:     v.GetString("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
		GitHubClientID:     v.GetString("GITHUB_CLIENT_ID"),
		GitHubClientSecret: v.GetString("GITHUB_CLIENT_SECRET"),
		StateTTL:           parseDuration(v.GetString("OAUTH_STATE_TTL"), 10*time.Minute),
	}

	cfg.Mail = MailConfig{
		Provider:       strings.ToLower(v.GetString("MAIL_PROVIDER")),
		SendGridAPIKey: v.GetString("SENDGRID_API_KEY"),
		FromName:       v.GetString("MAIL_FROM_NAME"),
		FromAddress:    v.GetString("MAIL_FROM_ADDRESS"),
		OTPTTL:         parseDuration(v.GetString("OTP_TTL"), 10*time.Minute),
		Workers:        v.GetInt("MAIL_WORKERS"),
		Retries:        v.GetInt("MAIL_RETRIES"),
	}

	maxUpload := v.GetInt64("EXPORTS_MAX_UPLOAD_SIZE")
	if maxUpload <= 0 {
		maxUpload = 10 * 1024 * 1024
	}
	cfg.Exports = ExportsConfig{
		StorageDir:       v.GetString("EXPORTS_STORAGE_DIR"),
		SignedURLSecret:  v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:     parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval:  parseDuration(v.GetString("EXPORTS_CLEANUP_INTERVAL"), time.Hour),
		RetentionTTL:     parseDuration(v.GetString("EXPORTS_RETENTION_TTL"), 30*24*time.Hour),
		MaxUploadBytes:   maxUpload,
		AllowedMIMETypes: splitAndTrim(v.GetString("EXPORTS_ALLOWED_MIME_TYPES")),
	}

	cfg.Timetable = TimetableConfig{
		CacheTTL: parseDuration(v.GetString("TIMETABLE_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Dashboard = DashboardConfig{
		CacheTTL: parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), 2*time.Minute),
	}

	cfg.Tests = CodingTestConfig{
		Duration:         parseDuration(v.GetString("CODING_TEST_DURATION"), time.Hour),
		Reattempts:       v.GetInt("CODING_TEST_REATTEMPTS"),
		RunnerURL:        v.GetString("CODE_RUNNER_URL"),
		RunnerTimeout:    parseDuration(v.GetString("CODE_RUNNER_TIMEOUT"), 15*time.Second),
		MaxCodeSizeBytes: v.GetInt("CODING_TEST_MAX_CODE_SIZE"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("FRONTEND_URL", "http://localhost:3003")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "eduvita")
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

	v.SetDefault("OAUTH_REDIRECT_BASE", "http://localhost:8080")
	v.SetDefault("GOOGLE_CLIENT_ID", "")
	v.SetDefault("GOOGLE_CLIENT_SECRET", "")
	v.SetDefault("GITHUB_CLIENT_ID", "")
	v.SetDefault("GITHUB_CLIENT_SECRET", "")
	v.SetDefault("OAUTH_STATE_TTL", "10m")

	v.SetDefault("MAIL_PROVIDER", "console")
	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("MAIL_FROM_NAME", "EDUVITA Platform")
	v.SetDefault("MAIL_FROM_ADDRESS", "no-reply@eduvita.local")
	v.SetDefault("OTP_TTL", "10m")
	v.SetDefault("MAIL_WORKERS", 2)
	v.SetDefault("MAIL_RETRIES", 3)

	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("EXPORTS_CLEANUP_INTERVAL", "1h")
	v.SetDefault("EXPORTS_RETENTION_TTL", "720h")
	v.SetDefault("EXPORTS_MAX_UPLOAD_SIZE", 10*1024*1024)
	v.SetDefault("EXPORTS_ALLOWED_MIME_TYPES", "application/pdf")

	v.SetDefault("TIMETABLE_CACHE_TTL", "5m")
	v.SetDefault("DASHBOARD_CACHE_TTL", "2m")

	v.SetDefault("CODING_TEST_DURATION", "1h")
	v.SetDefault("CODING_TEST_REATTEMPTS", 1)
	v.SetDefault("CODE_RUNNER_URL", "https://emkc.org/api/v2/piston")
	v.SetDefault("CODE_RUNNER_TIMEOUT", "15s")
	v.SetDefault("CODING_TEST_MAX_CODE_SIZE", 64*1024)
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
