package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/mentorhub/booking/internal/model"
)

type Config struct {
	Environment string
	HTTPAddr    string
	LogPath     string

	// DBDSN selects the Postgres-backed ledger; empty runs fully in memory.
	DBDSN          string
	MigrationsPath string

	GranularityMinutes int
	DayStart           model.TimeOfDay
	DayEnd             model.TimeOfDay
	CancelCutoff       time.Duration
	AutoApprove        bool
	SweepInterval      time.Duration

	TelegramToken  string
	TelegramChatID int64
}

func Load() (*Config, error) {
	// .env is optional; environment variables win either way.
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Environment:    getEnv("ENV", "development"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		LogPath:        getEnv("LOG_PATH", "stdout"),
		DBDSN:          os.Getenv("DB_DSN"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
	}

	var err error
	if cfg.GranularityMinutes, err = getEnvInt("SLOT_GRANULARITY_MINUTES", 30); err != nil {
		return nil, err
	}
	if cfg.GranularityMinutes <= 0 || cfg.GranularityMinutes > 60 {
		return nil, fmt.Errorf("SLOT_GRANULARITY_MINUTES must be in 1..60, got %d", cfg.GranularityMinutes)
	}

	if cfg.DayStart, err = getEnvTime("DAY_START", "09:00"); err != nil {
		return nil, err
	}
	if cfg.DayEnd, err = getEnvTime("DAY_END", "17:30"); err != nil {
		return nil, err
	}
	if cfg.DayEnd < cfg.DayStart {
		return nil, fmt.Errorf("DAY_END %s is before DAY_START %s", cfg.DayEnd, cfg.DayStart)
	}

	cutoffHours, err := getEnvInt("CANCEL_CUTOFF_HOURS", 24)
	if err != nil {
		return nil, err
	}
	cfg.CancelCutoff = time.Duration(cutoffHours) * time.Hour

	sweepMinutes, err := getEnvInt("SWEEP_INTERVAL_MINUTES", 5)
	if err != nil {
		return nil, err
	}
	cfg.SweepInterval = time.Duration(sweepMinutes) * time.Minute

	cfg.AutoApprove = os.Getenv("AUTO_APPROVE") == "true"

	if cfg.TelegramToken != "" {
		if cfg.TelegramChatID, err = getEnvInt64("TELEGRAM_CHAT_ID", 0); err != nil {
			return nil, err
		}
		if cfg.TelegramChatID == 0 {
			return nil, fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_TOKEN is set")
		}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvTime(key, fallback string) (model.TimeOfDay, error) {
	v := getEnv(key, fallback)
	t, err := model.ParseTimeOfDay(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return t, nil
}
