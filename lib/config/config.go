// Package config loads the server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/pthm/geoform"
	"github.com/sirupsen/logrus"
)

// Config is the server configuration.
type Config struct {
	BaseURL string `env:"BASE_URL,required"`
	APIKey  string `env:"API_KEY,required"`

	ListenAddr string `env:"LISTEN_ADDR,default=:8080"`
	// PropsKey signs component props. A random key is used when empty, which
	// invalidates component URLs across restarts.
	PropsKey string `env:"PROPS_KEY"`

	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT,default=10s"`
	RateLimitRPS   float64       `env:"RATE_LIMIT_RPS,default=10"`
	RateLimitBurst int           `env:"RATE_LIMIT_BURST,default=20"`
	SessionIdleTTL time.Duration `env:"SESSION_IDLE_TTL,default=30m"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=text"`
}

var required = []string{"BASE_URL", "API_KEY"}

// Load reads the given dotenv files (".env" when none are named), then
// decodes the environment. Missing files are skipped; variables already set
// in the environment win over file values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var missing []string
	for _, name := range required {
		if strings.TrimSpace(os.Getenv(name)) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &geoform.ConfigurationError{Missing: missing}
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, &geoform.ConfigurationError{Err: err}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.RequestTimeout <= 0:
		return &geoform.ConfigurationError{Err: fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)}
	case c.RateLimitRPS < 0:
		return &geoform.ConfigurationError{Err: fmt.Errorf("RATE_LIMIT_RPS must not be negative, got %g", c.RateLimitRPS)}
	case c.SessionIdleTTL <= 0:
		return &geoform.ConfigurationError{Err: fmt.Errorf("SESSION_IDLE_TTL must be positive, got %s", c.SessionIdleTTL)}
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return &geoform.ConfigurationError{Err: err}
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return &geoform.ConfigurationError{Err: fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)}
	}
	return nil
}

// NewLogger builds the process logger from the configured level and format.
func (c *Config) NewLogger(out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	if lvl, err := logrus.ParseLevel(c.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	if c.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}
