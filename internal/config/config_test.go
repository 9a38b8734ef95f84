package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnvFile(t *testing.T) string {
	t.Helper()
	return "--env-file=" + filepath.Join(t.TempDir(), "absent.env")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load([]string{noEnvFile(t)}, nil)
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.Raid.SweepInterval)
	assert.Equal(t, 3*time.Hour, cfg.Raid.AmbiguityWindow)
	assert.Equal(t, 45*time.Minute, cfg.Raid.Duration)
	assert.Equal(t, "UTC", cfg.Raid.TimeZone)
	assert.True(t, cfg.Gyms.Watch)
	assert.Empty(t, cfg.Telemetry.Endpoint)
	assert.Equal(t, "raidboard", cfg.Telemetry.ServiceName)
}

func TestLoad_Precedence(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(`
# comment
LOG_LEVEL=debug
SERVER_PORT="7000"
RAID_DURATION=30m
RAID_ICON_ROLES=111:valor,222:mystic
`), 0o644))

	cfg, err := Load(
		[]string{"--env-file=" + envFile, "--port=9000"},
		[]string{"SERVER_PORT=8500", "RAID_DURATION=20m", "SERVER_CORS_ORIGINS=https://a.example,https://b.example"},
	)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port, "flag beats environment")
	assert.Equal(t, 20*time.Minute, cfg.Raid.Duration, "environment beats .env")
	assert.Equal(t, "debug", cfg.Logger.Level, ".env beats default")
	assert.Equal(t, map[string]string{"111": "valor", "222": "mystic"}, cfg.Raid.IconRoles)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		environ []string
	}{
		{"unknown flag", []string{"--nope=1"}, nil},
		{"bad duration", nil, []string{"RAID_SWEEP_INTERVAL=soon"}},
		{"bad zone", []string{"--timezone=Mars/Olympus"}, nil},
		{"bad env", []string{"--env=test"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(append(tt.args, noEnvFile(t)), tt.environ)
			assert.Error(t, err)
		})
	}
}

func TestLoad_MalformedEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("JUSTAKEY\n"), 0o644))

	_, err := Load([]string{"--env-file=" + envFile}, nil)
	assert.Error(t, err)
}

func validConfig() *Config {
	return &Config{
		App:       AppConfig{Environment: "development"},
		Logger:    LoggerConfig{Level: "info"},
		Server:    ServerConfig{Port: "8080"},
		Raid:      RaidConfig{SweepInterval: time.Minute, AmbiguityWindow: 3 * time.Hour, Duration: 45 * time.Minute, TimeZone: "UTC"},
		RateLimit: RateLimitConfig{RPS: 5, Burst: 10},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"valid", func(*Config) {}, true},
		{"staging", func(c *Config) { c.App.Environment = "staging" }, true},
		{"uppercase env", func(c *Config) { c.App.Environment = "DEVELOPMENT" }, false},
		{"uppercase level", func(c *Config) { c.Logger.Level = "WARN" }, true},
		{"bad level", func(c *Config) { c.Logger.Level = "trace" }, false},
		{"no port", func(c *Config) { c.Server.Port = "" }, false},
		{"zero sweep", func(c *Config) { c.Raid.SweepInterval = 0 }, false},
		{"negative window", func(c *Config) { c.Raid.AmbiguityWindow = -time.Hour }, false},
		{"zero duration", func(c *Config) { c.Raid.Duration = 0 }, false},
		{"unknown zone", func(c *Config) { c.Raid.TimeZone = "Nowhere/Land" }, false},
		{"zero burst", func(c *Config) { c.RateLimit.Burst = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
