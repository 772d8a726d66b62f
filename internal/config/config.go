// Package config loads server configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all runtime settings for the modbot server.
type Config struct {
	// Port the web server listens on.
	Port string `env:"PORT" envDefault:"8080"`

	// BackupPath is the JSON file holding the durable store state.
	BackupPath string `env:"MODBOT_BACKUP_PATH" envDefault:"backup.json"`

	// TemplatePath is the HTML page template rendered by the front-end.
	TemplatePath string `env:"MODBOT_TEMPLATE_PATH" envDefault:"template.html"`

	// RedditHost is the remote server all outbound requests go to.
	RedditHost string `env:"MODBOT_REDDIT_HOST" envDefault:"www.reddit.com:80"`

	// ValidStatusCodes are the HTTP status codes treated as a successful
	// response from the remote. Reddit is known to serve retrievable
	// content under more than one code, so this stays configurable.
	ValidStatusCodes []int `env:"MODBOT_VALID_STATUS" envDefault:"200,502"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// LogFormat selects "json" output or pretty console logs.
	LogFormat string `env:"LOG_FORMAT" envDefault:""`
}

// Load reads an optional .env file and parses the environment into a Config.
func Load() (*Config, error) {
	// A missing .env file is fine; real environment variables still apply.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return &cfg, nil
}
