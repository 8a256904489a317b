package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/studiostory/studiostory-backend/internal/app"
	"github.com/studiostory/studiostory-backend/internal/platform/logger"
)

func main() {
	cfg := app.LoadConfig()

	logg, err := logger.New(cfg.Mode)
	if err != nil {
		os.Exit(1)
	}
	defer logg.Sync()

	a, err := app.New(cfg, logg)
	if err != nil {
		logg.Fatal("Failed to assemble application", "error", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- a.Run() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logg.Fatal("Server exited", "error", err)
		}
	case sig := <-stop:
		logg.Info("Signal received", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.Shutdown(ctx); err != nil {
		logg.Warn("Shutdown incomplete", "error", err)
	}
}
