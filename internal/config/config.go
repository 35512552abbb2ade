// Package config loads runtime settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Default allowed origins for development
var defaultOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

type Config struct {
	Port     string `env:"PORT" envDefault:"3000"`
	GinMode  string `env:"GIN_MODE" envDefault:"release"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DatabaseDriver string `env:"DB_DRIVER" envDefault:"postgres"`
	DatabaseURL    string `env:"DATABASE_URL,required,notEmpty"`

	JWTSecret string        `env:"JWT_SECRET,required,notEmpty"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"168h"`
	Domain    string        `env:"DOMAIN"`

	ClientURL      string   `env:"CLIENT_URL"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	S3Bucket       string `env:"S3_BUCKET"`
	S3Region       string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Endpoint     string `env:"S3_ENDPOINT"`
	S3AccessKey    string `env:"S3_ACCESS_KEY"`
	S3SecretKey    string `env:"S3_SECRET_KEY"`
	S3PublicURL    string `env:"S3_PUBLIC_URL"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES" envDefault:"5242880"`

	BirthdayReminderDays  []int         `env:"BIRTHDAY_REMINDER_DAYS" envSeparator:"," envDefault:"0,1,7"`
	BirthdayCheckInterval time.Duration `env:"BIRTHDAY_CHECK_INTERVAL" envDefault:"1h"`

	EnableTestEndpoints bool `env:"ENABLE_TEST_ENDPOINTS" envDefault:"false"`
}

// Load reads .env when it exists and parses the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	return parse(env.Options{})
}

// LoadFrom parses settings from the given variables only.
func LoadFrom(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	cfg.AllowedOrigins = mergeOrigins(cfg.ClientURL, cfg.AllowedOrigins)

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER: unsupported driver %q", c.DatabaseDriver)
	}

	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL: must be positive")
	}

	if c.BirthdayCheckInterval <= 0 {
		return fmt.Errorf("BIRTHDAY_CHECK_INTERVAL: must be positive")
	}

	for _, d := range c.BirthdayReminderDays {
		if d < 0 || d > 366 {
			return fmt.Errorf("BIRTHDAY_REMINDER_DAYS: offset %d out of range", d)
		}
	}

	return nil
}

// ImageUploadsEnabled reports whether enough S3 settings are present to
// accept uploads.
func (c *Config) ImageUploadsEnabled() bool {
	return c.S3Bucket != ""
}

func mergeOrigins(clientURL string, extra []string) []string {
	origins := make([]string, len(defaultOrigins))
	copy(origins, defaultOrigins)

	if clientURL != "" {
		origins = append(origins, clientURL)
	}

	for _, origin := range extra {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			origins = append(origins, trimmed)
		}
	}

	return origins
}
