package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	ServerPort  int
	Environment string
	LogLevel    string

	Database DatabaseConfig
	Auth     AuthConfig

	CORSAllowedOrigins  []string
	MaintenanceSchedule string // cron expression, empty disables the job
}

// DatabaseConfig describes how to reach the relational store.
type DatabaseConfig struct {
	Driver   string // "sqlite" or "postgres"
	Path     string // sqlite file
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSL      bool
	MaxConns int
}

// AuthConfig holds token, hashing and rate limit settings.
type AuthConfig struct {
	JWTSecret      string
	TokenLifetime  time.Duration
	BcryptCost     int
	RateLimitRPS   float64
	RateLimitBurst int
}

// IsProduction reports whether the process runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load loads configuration from environment variables, an optional config file
// named by CONFIG_FILE, or defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", 8080)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_PATH", "./notes.db")
	v.SetDefault("NOTES_DATABASE_HOST", "localhost")
	v.SetDefault("NOTES_DATABASE_PORT", 5432)
	v.SetDefault("NOTES_DATABASE_USER", "notes")
	v.SetDefault("NOTES_DATABASE_PASSWORD", "")
	v.SetDefault("NOTES_DATABASE_NAME", "notes")
	v.SetDefault("NOTES_DATABASE_SSL", false)
	v.SetDefault("NOTES_DATABASE_MAX_CONNS", 10)

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_EXPIRES_IN", "1d")
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("AUTH_RATE_LIMIT_RPS", 5)
	v.SetDefault("AUTH_RATE_LIMIT_BURST", 10)

	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("MAINTENANCE_SCHEDULE", "@daily")

	if path := v.GetString("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	lifetime, err := ParseLifetime(v.GetString("JWT_EXPIRES_IN"))
	if err != nil {
		return nil, fmt.Errorf("parsing JWT_EXPIRES_IN: %w", err)
	}

	driver := strings.ToLower(v.GetString("DATABASE_DRIVER"))
	if driver != "sqlite" && driver != "postgres" {
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", driver)
	}

	cfg := &Config{
		ServerPort:  v.GetInt("PORT"),
		Environment: v.GetString("APP_ENV"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		Database: DatabaseConfig{
			Driver:   driver,
			Path:     v.GetString("DATABASE_PATH"),
			Host:     v.GetString("NOTES_DATABASE_HOST"),
			Port:     v.GetInt("NOTES_DATABASE_PORT"),
			User:     v.GetString("NOTES_DATABASE_USER"),
			Password: v.GetString("NOTES_DATABASE_PASSWORD"),
			Name:     v.GetString("NOTES_DATABASE_NAME"),
			SSL:      v.GetBool("NOTES_DATABASE_SSL"),
			MaxConns: v.GetInt("NOTES_DATABASE_MAX_CONNS"),
		},
		Auth: AuthConfig{
			JWTSecret:      v.GetString("JWT_SECRET"),
			TokenLifetime:  lifetime,
			BcryptCost:     v.GetInt("BCRYPT_COST"),
			RateLimitRPS:   v.GetFloat64("AUTH_RATE_LIMIT_RPS"),
			RateLimitBurst: v.GetInt("AUTH_RATE_LIMIT_BURST"),
		},
		CORSAllowedOrigins:  splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		MaintenanceSchedule: strings.TrimSpace(v.GetString("MAINTENANCE_SCHEDULE")),
	}

	// Viper treats an empty variable as unset, so "off" is the explicit way to disable.
	if strings.EqualFold(cfg.MaintenanceSchedule, "off") {
		cfg.MaintenanceSchedule = ""
	}

	if cfg.ServerPort <= 0 {
		return nil, fmt.Errorf("invalid PORT %d", cfg.ServerPort)
	}

	return cfg, nil
}

// ParseLifetime parses a token lifetime. It accepts Go durations ("36h"),
// a whole number of days ("1d"), or a bare number of seconds ("3600").
func ParseLifetime(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty lifetime")
	}

	var d time.Duration
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid day count %q", s)
		}
		d = time.Duration(n) * 24 * time.Hour
	} else if secs, err := strconv.Atoi(s); err == nil {
		d = time.Duration(secs) * time.Second
	} else {
		d, err = time.ParseDuration(s)
		if err != nil {
			return 0, err
		}
	}

	if d <= 0 {
		return 0, fmt.Errorf("lifetime must be positive, got %q", s)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
