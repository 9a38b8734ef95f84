// Package config loads server configuration from flags, the environment and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Server    ServerConfig
	Raid      RaidConfig
	Gyms      GymsConfig
	RateLimit RateLimitConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string `env:"ENV" envDefault:"development"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        `env:"SERVER_PORT" envDefault:"8080"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
	// CORSOrigins lists allowed browser origins; empty allows any.
	CORSOrigins []string `env:"SERVER_CORS_ORIGINS" envSeparator:","`
}

// RaidConfig holds raid lifecycle tuning.
type RaidConfig struct {
	SweepInterval   time.Duration `env:"RAID_SWEEP_INTERVAL" envDefault:"60s"`
	AmbiguityWindow time.Duration `env:"RAID_AMBIGUITY_WINDOW" envDefault:"3h"`
	// Duration is the hatch-to-end length of a raid.
	Duration time.Duration `env:"RAID_DURATION" envDefault:"45m"`
	TimeZone string        `env:"RAID_TIMEZONE" envDefault:"UTC"`
	// IconRoles maps role IDs to icon hints, e.g. "123:valor,456:mystic".
	IconRoles map[string]string `env:"RAID_ICON_ROLES" envSeparator:"," envKeyValSeparator:":"`
}

// Location loads the configured time zone.
func (r RaidConfig) Location() (*time.Location, error) {
	return time.LoadLocation(r.TimeZone)
}

// GymsConfig holds the gym directory source.
type GymsConfig struct {
	// Path is an optional JSON file of gyms.
	Path  string `env:"GYMS_PATH"`
	Watch bool   `env:"GYMS_WATCH" envDefault:"true"`
}

// RateLimitConfig limits requests per acting member.
type RateLimitConfig struct {
	RPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"5"`
	Burst int     `env:"RATE_LIMIT_BURST" envDefault:"10"`
}

// TelemetryConfig holds OTLP tracing configuration. Tracing is off without an endpoint.
type TelemetryConfig struct {
	Endpoint    string `env:"OTEL_ENDPOINT"`
	Enabled     bool   `env:"OTEL_ENABLED" envDefault:"true"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"raidboard"`
}

// flagKeys maps each command-line flag to the environment key it overrides.
var flagKeys = []struct {
	name, key, usage string
}{
	{"env", "ENV", "Environment (development, staging, production)"},
	{"log-level", "LOG_LEVEL", "Log level (debug, info, warn, error)"},
	{"port", "SERVER_PORT", "Server port (default: 8080)"},
	{"read-timeout", "SERVER_READ_TIMEOUT", "HTTP read timeout (default: 15s)"},
	{"write-timeout", "SERVER_WRITE_TIMEOUT", "HTTP write timeout (default: 15s)"},
	{"idle-timeout", "SERVER_IDLE_TIMEOUT", "HTTP idle timeout (default: 60s)"},
	{"cors-origins", "SERVER_CORS_ORIGINS", "Comma separated allowed origins"},
	{"sweep-interval", "RAID_SWEEP_INTERVAL", "Raid eviction interval (default: 60s)"},
	{"ambiguity-window", "RAID_AMBIGUITY_WINDOW", "Look-ahead for times without am/pm (default: 3h)"},
	{"raid-duration", "RAID_DURATION", "Hatch-to-end length of a raid (default: 45m)"},
	{"timezone", "RAID_TIMEZONE", "IANA time zone for raid times (default: UTC)"},
	{"icon-roles", "RAID_ICON_ROLES", "roleID:icon pairs, comma separated"},
	{"gyms-path", "GYMS_PATH", "JSON file of gyms"},
	{"gyms-watch", "GYMS_WATCH", "Reload the gyms file on change (default: true)"},
	{"otel-endpoint", "OTEL_ENDPOINT", "OTLP/HTTP trace endpoint URL"},
}

// LoadConfig loads configuration from the process arguments with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:], os.Environ())
}

// Load is LoadConfig with explicit arguments and environment.
func Load(args, environ []string) (*Config, error) {
	fs := flag.NewFlagSet("raidboard", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	values := make(map[string]*string, len(flagKeys))
	for _, f := range flagKeys {
		values[f.name] = fs.String(f.name, "", f.usage)
	}
	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	environment := env.ToMap(environ)

	// Missing .env files are fine; malformed ones are not.
	if err := loadEnvFile(*envFile, environment); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	for _, f := range flagKeys {
		if v := *values[f.name]; v != "" {
			environment[f.key] = v
		}
	}

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environment}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all config values are usable.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Server.Port == "" {
		return errors.New("server port cannot be empty")
	}

	if c.Raid.SweepInterval <= 0 {
		return fmt.Errorf("raid sweep interval must be positive, got %s", c.Raid.SweepInterval)
	}
	if c.Raid.AmbiguityWindow <= 0 {
		return fmt.Errorf("raid ambiguity window must be positive, got %s", c.Raid.AmbiguityWindow)
	}
	if c.Raid.Duration <= 0 {
		return fmt.Errorf("raid duration must be positive, got %s", c.Raid.Duration)
	}
	if _, err := c.Raid.Location(); err != nil {
		return fmt.Errorf("invalid raid time zone %q: %w", c.Raid.TimeZone, err)
	}

	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return errors.New("rate limit rps and burst must be positive")
	}

	return nil
}

// loadEnvFile reads KEY=value lines from path into environment, keeping keys
// that are already set.
func loadEnvFile(path string, environment map[string]string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if _, set := environment[key]; !set {
			environment[key] = value
		}
	}

	return scanner.Err()
}
