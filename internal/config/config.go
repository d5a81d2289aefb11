package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type DBConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     string
	SSLMode  string
}

type Config struct {
	Env     string // "development" | "production"
	Port    string
	LogFile string

	DB          DBConfig
	RedisAddr   string
	KafkaBroker string

	// Reporting timezone used to decide which calendar day an entry belongs to.
	Location *time.Location

	SweepInterval      time.Duration
	OutboxPollInterval time.Duration

	// Sent outbox rows older than this are deleted; 0 keeps them.
	OutboxRetention time.Duration
}

// Load reads .env (if present) and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	loc, err := time.LoadLocation(getenvDefault("ATTENDANCE_TIMEZONE", "UTC"))
	if err != nil {
		return Config{}, err
	}

	env := strings.ToLower(getenvDefault("APP_ENV", "development"))
	if env != "development" && env != "production" {
		env = "development"
	}

	return Config{
		Env:     env,
		Port:    getenvDefault("PORT", "3000"),
		LogFile: os.Getenv("LOG_FILE"),
		DB: DBConfig{
			Host:     getenvDefault("DB_HOST", "localhost"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
			Port:     getenvDefault("DB_PORT", "5432"),
			SSLMode:  getenvDefault("DB_SSLMODE", "disable"),
		},
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		KafkaBroker:        os.Getenv("KAFKA_BROKER"),
		Location:           loc,
		SweepInterval:      getenvDuration("SWEEP_INTERVAL", time.Minute),
		OutboxPollInterval: getenvDuration("OUTBOX_POLL_INTERVAL", 3*time.Second),
		OutboxRetention:    getenvDuration("OUTBOX_RETENTION", 7*24*time.Hour),
	}, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// getenvDuration accepts Go durations ("90s") or plain seconds ("90").
func getenvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return def
}
