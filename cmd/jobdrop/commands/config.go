package commands

import (
	"github.com/joeg-ita/jobdrop/src/config"
	"github.com/joeg-ita/jobdrop/src/utils"
)

// loadConfig reads the configuration and sets up the global logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	utils.InitLogger(cfg.LogLevel)
	return cfg, nil
}
