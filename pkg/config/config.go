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

	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	CORS      CORSConfig
	Log       LogConfig
	Geocoding GeocodingConfig
	Search    SearchConfig
	Avatars   AvatarConfig
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

// AuthConfig describes how identity-provider session tokens are verified.
type AuthConfig struct {
	TokenSecret string
	Issuer      string
	Leeway      time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// GeocodingConfig points at the external geocoding API.
type GeocodingConfig struct {
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// SearchConfig tunes teacher discovery queries.
type SearchConfig struct {
	CacheTTL        time.Duration
	DefaultRadiusKM float64
	MaxRadiusKM     float64
	MaxHourDiff     int
}

// AvatarConfig controls avatar upload storage and validation.
type AvatarConfig struct {
	StorageDir       string
	PublicBaseURL    string
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
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

	cfg.Auth = AuthConfig{
		TokenSecret: v.GetString("AUTH_TOKEN_SECRET"),
		Issuer:      v.GetString("AUTH_ISSUER"),
		Leeway:      parseDuration(v.GetString("AUTH_LEEWAY"), 30*time.Second),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Geocoding = GeocodingConfig{
		BaseURL:  v.GetString("GEOCODING_BASE_URL"),
		APIKey:   v.GetString("GEOCODING_API_KEY"),
		Timeout:  parseDuration(v.GetString("GEOCODING_TIMEOUT"), 5*time.Second),
		CacheTTL: parseDuration(v.GetString("GEOCODING_CACHE_TTL"), 24*time.Hour),
	}

	cfg.Search = SearchConfig{
		CacheTTL:        parseDuration(v.GetString("SEARCH_CACHE_TTL"), 2*time.Minute),
		DefaultRadiusKM: v.GetFloat64("SEARCH_DEFAULT_RADIUS_KM"),
		MaxRadiusKM:     v.GetFloat64("SEARCH_MAX_RADIUS_KM"),
		MaxHourDiff:     v.GetInt("SEARCH_MAX_HOUR_DIFF"),
	}

	maxAvatarSize := v.GetInt64("AVATARS_MAX_FILE_SIZE")
	if maxAvatarSize <= 0 {
		maxAvatarSize = 5 * 1024 * 1024
	}
	cfg.Avatars = AvatarConfig{
		StorageDir:       v.GetString("AVATARS_STORAGE_DIR"),
		PublicBaseURL:    v.GetString("AVATARS_PUBLIC_BASE_URL"),
		MaxFileSizeBytes: maxAvatarSize,
		AllowedMIMEs:     splitAndTrim(v.GetString("AVATARS_ALLOWED_MIME_TYPES")),
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
	v.SetDefault("DB_NAME", "metronome")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("AUTH_TOKEN_SECRET", "dev_secret")
	v.SetDefault("AUTH_ISSUER", "")
	v.SetDefault("AUTH_LEEWAY", "30s")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("GEOCODING_BASE_URL", "https://nominatim.openstreetmap.org/search")
	v.SetDefault("GEOCODING_API_KEY", "")
	v.SetDefault("GEOCODING_TIMEOUT", "5s")
	v.SetDefault("GEOCODING_CACHE_TTL", "24h")

	v.SetDefault("SEARCH_CACHE_TTL", "2m")
	v.SetDefault("SEARCH_DEFAULT_RADIUS_KM", 25)
	v.SetDefault("SEARCH_MAX_RADIUS_KM", 150)
	v.SetDefault("SEARCH_MAX_HOUR_DIFF", 12)

	v.SetDefault("AVATARS_STORAGE_DIR", "./avatars")
	v.SetDefault("AVATARS_PUBLIC_BASE_URL", "/avatars")
	v.SetDefault("AVATARS_MAX_FILE_SIZE", 5*1024*1024)
	v.SetDefault("AVATARS_ALLOWED_MIME_TYPES", "image/png,image/jpeg,image/webp")
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
