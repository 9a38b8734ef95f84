// Package di provides dependency injection configuration for the raidboard server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/raidboard/raidboard-server/internal/api"
	"github.com/raidboard/raidboard-server/internal/config"
	"github.com/raidboard/raidboard-server/internal/di/providers"
	"github.com/raidboard/raidboard-server/internal/logger"
	"github.com/raidboard/raidboard-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideTelemetry)
	do.Provide(injector, providers.ProvideClock)
	do.Provide(injector, providers.ProvideTimeResolver)

	// Events and lookups
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideGymDirectory)

	// Raid lifecycle
	do.Provide(injector, providers.ProvideRaidService)
	do.Provide(injector, providers.ProvideSweeper)

	// Server
	do.Provide(injector, providers.ProvideRateLimiter)
	do.Provide(injector, providers.ProvideAPIServer)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns once the HTTP server is listening
// in the background. Tracing is installed before anything that starts spans.
func Bootstrap(injector do.Injector) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)

	for _, invoke := range []func(do.Injector) error{
		invokeAs[*providers.TelemetryHandle],
		invokeAs[*providers.SSEManagerHandle],
		invokeAs[*providers.GymDirectoryHandle],
		invokeAs[*service.RaidService],
		invokeAs[*providers.SweeperHandle],
		invokeAs[*providers.RateLimiterHandle],
		invokeAs[*api.Server],
		invokeAs[*providers.HTTPServerHandle],
	} {
		if err := invoke(injector); err != nil {
			return err
		}
	}

	return nil
}

func invokeAs[T any](i do.Injector) error {
	_, err := do.Invoke[T](i)
	return err
}
