// Package config provides configuration management for the coffee shop binaries
package config

import (
	"net"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	CORS     CORSConfig     `yaml:"cors"`
}

type ServerConfig struct {
	Host            string        `env:"COFFEESHOP_HOST"    yaml:"host"`
	Port            int           `env:"COFFEESHOP_PORT"    yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Address returns the listen address in host:port format.
func (c *ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

type DatabaseConfig struct {
	Path  string `env:"COFFEESHOP_DB_PATH" yaml:"path"`
	// Reset drops and recreates the drinks table on start-up.
	Reset bool   `env:"COFFEESHOP_DB_RESET" yaml:"reset"`
}

type LoggingConfig struct {
	Level       string `env:"LOG_LEVEL" yaml:"level"`
	// Development is nil when unset so the environment's production flag
	// can decide.
	Development *bool  `yaml:"development"`
}

type CORSConfig struct {
	// AllowedOrigins defaults to the environment's Auth0 callback URL.
	AllowedOrigins []string      `env:"COFFEESHOP_CORS_ORIGINS" yaml:"allowed_origins"`
	MaxAge         time.Duration `yaml:"max_age"`
}

const (
	defaultHost            = "127.0.0.1"
	defaultPort            = 5000
	defaultServerTimeout   = 10 * time.Second
	defaultShutdownTimeout = 5 * time.Second
	defaultDatabasePath    = "database.db"
	defaultLogLevel        = "info"
	defaultCORSMaxAge      = 12 * time.Hour
)

// SetDefaults fills every unset field.
func (c *Config) SetDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = defaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = defaultServerTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = defaultServerTimeout
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = defaultShutdownTimeout
	}
	if c.Database.Path == "" {
		c.Database.Path = defaultDatabasePath
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.CORS.MaxAge == 0 {
		c.CORS.MaxAge = defaultCORSMaxAge
	}
}

// Validate checks the server-side settings.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return &ValidationError{Field: "server.port", Message: "must be between 1 and 65535"}
	}
	if c.Database.Path == "" {
		return &ValidationError{Field: "database.path", Message: "is required"}
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Field: "logging.level", Message: "must be one of: debug, info, warn, error"}
	}
	for _, origin := range c.CORS.AllowedOrigins {
		if err := validateOrigin(origin); err != nil {
			return err
		}
	}
	return nil
}

// IsDevelopment reports whether logging should run in development mode.
func (c *LoggingConfig) IsDevelopment(production bool) bool {
	if c.Development != nil {
		return *c.Development
	}
	return !production
}
