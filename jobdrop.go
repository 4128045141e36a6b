package jobdrop

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joeg-ita/jobdrop/src/config"
	"github.com/joeg-ita/jobdrop/src/usecases"
	"github.com/joeg-ita/jobdrop/src/utils"
)

// Jobdrop starts the service and blocks until SIGINT or SIGTERM.
func Jobdrop(cfg *config.Config) error {
	log := utils.GetLogger()
	log.Infow("starting", "name", cfg.Name, "version", cfg.Version, "blobProvider", cfg.Blob.Provider)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	start, err := usecases.NewJobdropStart(ctx, cfg)
	if err != nil {
		return err
	}
	defer start.Stop()

	if err := start.Run(ctx); err != nil {
		return err
	}

	log.Infow("shutdown complete")
	return nil
}
