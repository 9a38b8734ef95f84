package providers

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raidboard/raidboard-server/internal/api"
	"github.com/raidboard/raidboard-server/internal/clock"
	"github.com/raidboard/raidboard-server/internal/config"
	"github.com/raidboard/raidboard-server/internal/domain"
	"github.com/raidboard/raidboard-server/internal/logger"
	"github.com/raidboard/raidboard-server/internal/service"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	gymsPath := filepath.Join(t.TempDir(), "gyms.json")
	require.NoError(t, os.WriteFile(gymsPath,
		[]byte(`[{"id":"g-fountain","name":"Town Hall Fountain","latitude":52.52,"longitude":13.40}]`), 0o644))

	return &config.Config{
		App:    config.AppConfig{Environment: "development"},
		Logger: config.LoggerConfig{Level: "debug"},
		Server: config.ServerConfig{Port: "0"},
		Raid: config.RaidConfig{
			SweepInterval:   time.Hour,
			AmbiguityWindow: 3 * time.Hour,
			Duration:        45 * time.Minute,
			TimeZone:        "Europe/Berlin",
			IconRoles:       map[string]string{"r-valor": "valor"},
		},
		Gyms:      config.GymsConfig{Path: gymsPath},
		RateLimit: config.RateLimitConfig{RPS: 5, Burst: 10},
		Telemetry: config.TelemetryConfig{ServiceName: "raidboard-test"},
	}
}

func setupInjector(t *testing.T, cfg *config.Config) (*do.RootScope, *bytes.Buffer) {
	t.Helper()

	var logs bytes.Buffer
	injector := do.New()
	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, logger.New(logger.Config{Writer: &logs, Format: "json", Level: logger.ParseLevel(cfg.Logger.Level)}))
	do.ProvideValue[clock.Clock](injector, clock.NewFake(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)))

	do.Provide(injector, ProvideTelemetry)
	do.Provide(injector, ProvideTimeResolver)
	do.Provide(injector, ProvideSSEManager)
	do.Provide(injector, ProvideGymDirectory)
	do.Provide(injector, ProvideRaidService)
	do.Provide(injector, ProvideSweeper)
	do.Provide(injector, ProvideRateLimiter)
	do.Provide(injector, ProvideAPIServer)

	return injector, &logs
}

func TestProviders_WireRaidGraph(t *testing.T) {
	cfg := testConfig(t)
	injector, logs := setupInjector(t, cfg)

	raids, err := do.Invoke[*service.RaidService](injector)
	require.NoError(t, err)

	ctx := context.Background()
	raid, err := raids.Create(ctx, "c-1", domain.Member{ID: "ash", DisplayName: "Ash"}, domain.Subject{Name: "lugia"})
	require.NoError(t, err)

	raid, err = raids.SetLocationRef(ctx, "c-1", raid.ID, "ash", "town hall")
	require.NoError(t, err, "gym directory is loaded from the configured file")
	assert.Equal(t, "g-fountain", raid.Location.ID)

	raid, err = raids.SetHatchTime(ctx, "c-1", raid.ID, "ash", "2:30 pm")
	require.NoError(t, err)
	require.NotNil(t, raid.HatchTime)
	assert.Equal(t, "Europe/Berlin", raid.HatchTime.Location().String(), "times resolve in the configured zone")

	_, err = do.Invoke[*SweeperHandle](injector)
	require.NoError(t, err)
	_, err = do.Invoke[*api.Server](injector)
	require.NoError(t, err)

	assert.Nil(t, injector.Shutdown())
	assert.Equal(t, 1, strings.Count(logs.String(), "raid sweeper started"), "sweeper start is logged once")
}

func TestProvideGymDirectory_WithoutPath(t *testing.T) {
	cfg := testConfig(t)
	cfg.Gyms.Path = ""
	injector, _ := setupInjector(t, cfg)

	gyms, err := do.Invoke[*GymDirectoryHandle](injector)
	require.NoError(t, err)
	assert.Zero(t, gyms.Len())
	assert.Nil(t, gyms.watcher)

	assert.Nil(t, injector.Shutdown())
}

func TestProvideGymDirectory_Watching(t *testing.T) {
	cfg := testConfig(t)
	cfg.Gyms.Watch = true
	injector, _ := setupInjector(t, cfg)

	gyms, err := do.Invoke[*GymDirectoryHandle](injector)
	require.NoError(t, err)
	require.NotNil(t, gyms.watcher)
	assert.Equal(t, 1, gyms.Len())

	assert.Nil(t, injector.Shutdown())
}

func TestProvideGymDirectory_BadFile(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.Gyms.Path, []byte(`{broken`), 0o644))
	injector, _ := setupInjector(t, cfg)

	_, err := do.Invoke[*GymDirectoryHandle](injector)
	assert.Error(t, err)
}
