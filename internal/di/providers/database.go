package providers

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/shelfrate/shelfrate-server/internal/config"
	"github.com/shelfrate/shelfrate-server/internal/store"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the database store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	db, err := store.New(cfg.Store.Path, log)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", cfg.Store.Path)

	return &StoreHandle{Store: db}, nil
}
