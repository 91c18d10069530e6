package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the planner.
type Config struct {
	TelegramToken string
	DatabaseURL   string
	LogLevel      string
	GeneratorHour int // local hour on Monday when weeks are seeded
}

// Load reads configuration from a local .env (if present) and environment
// variables, with sane defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		TelegramToken: strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		LogLevel:      strings.TrimSpace(os.Getenv("LOG_LEVEL")),
		GeneratorHour: parseHour(strings.TrimSpace(os.Getenv("GENERATOR_HOUR"))),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "focus_planner.db"
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	return cfg, nil
}

func parseHour(raw string) int {
	if raw == "" {
		return 4
	}
	hour, err := strconv.Atoi(raw)
	if err != nil || hour < 0 || hour > 23 {
		return 4
	}
	return hour
}
