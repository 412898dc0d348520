package cli

import (
	"github.com/tavares/hospstock/internal/config"
	"github.com/tavares/hospstock/internal/entrypoint"
	"github.com/tavares/hospstock/internal/logging"
	"github.com/tavares/hospstock/internal/tenant"
)

// buildManager wires the tenant connection layer the same way the
// server does, so CLI commands operate on the exact databases the
// running service would use.
func buildManager() (*tenant.Manager, *config.Config, error) {
	cfg := config.NewConfig()

	log, err := logging.New(cfg.Global.Debug)
	if err != nil {
		return nil, nil, err
	}

	manager, err := entrypoint.BuildManager(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return manager, cfg, nil
}
