package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port            string
	Env             string
	StorageDir      string
	StatsDBPath     string
	MaxFileSize     int64
	RetentionWindow time.Duration
	SweepInterval   time.Duration
	WorkerCount     int
}

func Load() *Config {
	return &Config{
		Port:            getEnv("SERVICE_PORT", "8080"),
		Env:             getEnv("ENV", "development"),
		StorageDir:      getEnv("STORAGE_DIR", "./temp"),
		StatsDBPath:     getEnv("STATS_DB_PATH", "./stats.db"),
		MaxFileSize:     getEnvAsInt64("MAX_FILE_SIZE", 50*1024*1024),
		RetentionWindow: getEnvAsDuration("RETENTION_WINDOW", time.Hour),
		SweepInterval:   getEnvAsDuration("SWEEP_INTERVAL", 5*time.Minute),
		WorkerCount:     getEnvAsInt("WORKER_COUNT", 4),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
