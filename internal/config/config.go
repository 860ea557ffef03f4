package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/mpetrov/anisync/internal/titlematch"
)

type Config struct {
	Environment string
	AppName     string
	Port        string
	LogLevel    slog.Level

	SQLitePath     string
	MigrationsPath string

	SonarrURL    string
	SonarrAPIKey string

	MALClientID     string
	MALClientSecret string
	MALRedirectURI  string

	DefaultStatus    string
	MinScore         float64
	SearchLimit      int
	MutationPace     time.Duration
	RateLimitBackoff time.Duration
	MatchWeights     titlematch.Weights
	MappingRulesPath string

	AuthCallbackTimeout time.Duration
	ProgressWebhookURL  string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Environment:      getEnv("APP_ENV", "development"),
		AppName:          getEnv("APP_NAME", "anisync"),
		Port:             getEnv("APP_PORT", "8080"),
		SQLitePath:       getEnv("SQLITE_PATH", "./data/app.sqlite"),
		MigrationsPath:   getEnv("MIGRATIONS_PATH", "./migrations"),
		SonarrURL:        getEnv("SONARR_URL", "http://localhost:8989"),
		SonarrAPIKey:     getEnv("SONARR_API_KEY", ""),
		MALClientID:      getEnv("MAL_CLIENT_ID", ""),
		MALClientSecret:  getEnv("MAL_CLIENT_SECRET", ""),
		MALRedirectURI:   getEnv("MAL_REDIRECT_URI", "http://localhost:8080/callback"),
		DefaultStatus:    getEnv("SYNC_DEFAULT_STATUS", "completed"),
		MinScore:         getEnvAsFloat("SYNC_MIN_SCORE", 75),
		SearchLimit:      getEnvAsInt("SYNC_SEARCH_LIMIT", 10),
		MutationPace:     time.Duration(getEnvAsInt("SYNC_PACE_SECONDS", 1)) * time.Second,
		RateLimitBackoff: time.Duration(getEnvAsInt("SYNC_RATE_LIMIT_BACKOFF_SECONDS", 5)) * time.Second,
		MappingRulesPath: getEnv("MAPPING_RULES_PATH", ""),
		MatchWeights: titlematch.Weights{
			Ratio:     getEnvAsFloat("MATCH_WEIGHT_RATIO", 0.3),
			Partial:   getEnvAsFloat("MATCH_WEIGHT_PARTIAL", 0.3),
			TokenSort: getEnvAsFloat("MATCH_WEIGHT_TOKEN_SORT", 0.4),
		},
		AuthCallbackTimeout: time.Duration(getEnvAsInt("AUTH_CALLBACK_TIMEOUT_SECONDS", 30)) * time.Second,
		ProgressWebhookURL:  getEnv("PROGRESS_WEBHOOK_URL", ""),
	}

	if cfg.MinScore < 0 || cfg.MinScore > 100 {
		cfg.MinScore = 75
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = 10
	}
	if cfg.MutationPace <= 0 {
		cfg.MutationPace = time.Second
	}
	if cfg.RateLimitBackoff <= 0 {
		cfg.RateLimitBackoff = 5 * time.Second
	}
	if cfg.AuthCallbackTimeout <= 0 {
		cfg.AuthCallbackTimeout = 30 * time.Second
	}

	level, err := parseLogLevel(getEnv("LOG_LEVEL", "INFO"))
	if err != nil {
		return Config{}, err
	}
	cfg.LogLevel = level

	return cfg, nil
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch raw {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO":
		return slog.LevelInfo, nil
	case "WARN":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q, expected DEBUG|INFO|WARN|ERROR", raw)
	}
}

func getEnv(key string, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvAsInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
