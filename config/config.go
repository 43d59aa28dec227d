// Package config loads server configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds application configuration
type Config struct {
	Port          string
	DBPath        string
	LogLevel      string
	PeriodDays    int
	SchedulerSpec string
	UserID        string
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		DBPath:        getEnv("DB_PATH", "./data/budget.db"),
		LogLevel:      getEnv("LOG_LEVEL", "INFO"),
		SchedulerSpec: getEnv("SCHEDULER_SPEC", "@hourly"),
		UserID:        getEnv("USER_ID", "default"),
	}

	days, err := strconv.Atoi(getEnv("PERIOD_DAYS", "30"))
	if err != nil {
		return nil, fmt.Errorf("PERIOD_DAYS must be an integer: %w", err)
	}
	if days < 1 {
		return nil, fmt.Errorf("PERIOD_DAYS must be positive, got %d", days)
	}
	cfg.PeriodDays = days

	if cfg.DBPath == "" {
		return nil, fmt.Errorf("DB_PATH is required")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
