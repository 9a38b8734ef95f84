// Package providers contains dependency injection providers for the raidboard server.
package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/raidboard/raidboard-server/internal/clock"
	"github.com/raidboard/raidboard-server/internal/config"
	"github.com/raidboard/raidboard-server/internal/logger"
	"github.com/raidboard/raidboard-server/internal/telemetry"
	"github.com/raidboard/raidboard-server/internal/timeparse"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting raidboard server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"timezone", cfg.Raid.TimeZone,
		"gyms_path", cfg.Gyms.Path,
	)

	return log, nil
}

// TelemetryHandle flushes the trace exporter on shutdown.
type TelemetryHandle struct {
	shutdown telemetry.ShutdownFunc
}

// Shutdown implements do.Shutdownable.
func (h *TelemetryHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.shutdown(ctx)
}

// ProvideTelemetry installs the global tracer provider.
func ProvideTelemetry(i do.Injector) (*TelemetryHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	shutdown, err := telemetry.Setup(context.Background(), cfg.Telemetry)
	if err != nil {
		return nil, err
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint != "" {
		log.Info("Tracing enabled", "endpoint", cfg.Telemetry.Endpoint, "service", cfg.Telemetry.ServiceName)
	}

	return &TelemetryHandle{shutdown: shutdown}, nil
}

// ProvideClock provides the wall clock.
func ProvideClock(i do.Injector) (clock.Clock, error) {
	return clock.System{}, nil
}

// ProvideTimeResolver provides the raid time resolver in the configured zone.
func ProvideTimeResolver(i do.Injector) (*timeparse.Resolver, error) {
	cfg := do.MustInvoke[*config.Config](i)
	clk := do.MustInvoke[clock.Clock](i)

	loc, err := cfg.Raid.Location()
	if err != nil {
		return nil, err
	}

	return timeparse.New(timeparse.Options{
		Clock:           clk,
		Location:        loc,
		AmbiguityWindow: cfg.Raid.AmbiguityWindow,
	}), nil
}
