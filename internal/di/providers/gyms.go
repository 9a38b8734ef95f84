package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/raidboard/raidboard-server/internal/config"
	"github.com/raidboard/raidboard-server/internal/gym"
	"github.com/raidboard/raidboard-server/internal/logger"
)

// GymDirectoryHandle owns the gym index and its optional file watcher.
type GymDirectoryHandle struct {
	*gym.Directory
	watcher *gym.Watcher
	cancel  context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *GymDirectoryHandle) Shutdown() error {
	if h.watcher != nil {
		h.cancel()
		if err := h.watcher.Stop(); err != nil {
			return err
		}
	}
	return h.Directory.Close()
}

// ProvideGymDirectory provides the searchable gym directory. Without a
// configured path the directory starts empty.
func ProvideGymDirectory(i do.Injector) (*GymDirectoryHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dir, err := gym.NewDirectory(log.Logger)
	if err != nil {
		return nil, err
	}
	handle := &GymDirectoryHandle{Directory: dir}

	if cfg.Gyms.Path == "" {
		log.Info("No gyms file configured, gym lookups disabled")
		return handle, nil
	}

	if err := dir.LoadFile(cfg.Gyms.Path); err != nil {
		_ = dir.Close()
		return nil, err
	}
	log.Info("Gym directory loaded", "path", cfg.Gyms.Path, "gyms", dir.Len())

	if !cfg.Gyms.Watch {
		return handle, nil
	}

	w, err := gym.NewWatcher(dir, cfg.Gyms.Path, gym.DefaultSettleDelay, log.Logger)
	if err != nil {
		_ = dir.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	handle.watcher = w
	handle.cancel = cancel

	log.Info("Watching gyms file", "path", cfg.Gyms.Path)

	return handle, nil
}
