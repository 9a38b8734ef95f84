package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/raidboard/raidboard-server/internal/clock"
	"github.com/raidboard/raidboard-server/internal/config"
	"github.com/raidboard/raidboard-server/internal/domain"
	"github.com/raidboard/raidboard-server/internal/logger"
	"github.com/raidboard/raidboard-server/internal/service"
	"github.com/raidboard/raidboard-server/internal/timeparse"
)

// ProvideRaidService provides the raid registry.
func ProvideRaidService(i do.Injector) (*service.RaidService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	clk := do.MustInvoke[clock.Clock](i)
	resolver := do.MustInvoke[*timeparse.Resolver](i)
	gyms := do.MustInvoke[*GymDirectoryHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	return service.NewRaidService(clk, resolver, gyms.Directory, sseHandle.Manager, service.RaidConfig{
		Duration: cfg.Raid.Duration,
		Display: domain.DisplayOptions{
			Location:  resolver.Location(),
			IconRoles: cfg.Raid.IconRoles,
		},
	}, log.Logger), nil
}

// SweeperHandle wraps the eviction sweeper with shutdown capability.
type SweeperHandle struct {
	*service.Sweeper
}

// Shutdown implements do.Shutdownable.
func (h *SweeperHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideSweeper provides the running raid eviction sweeper.
func ProvideSweeper(i do.Injector) (*SweeperHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	clk := do.MustInvoke[clock.Clock](i)
	raids := do.MustInvoke[*service.RaidService](i)

	sweeper := service.NewSweeper(raids, clk, cfg.Raid.SweepInterval, log.Logger)
	sweeper.Start(context.Background())

	return &SweeperHandle{Sweeper: sweeper}, nil
}
