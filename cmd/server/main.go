package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dgallion1/doctimeline/internal/app"
	"github.com/dgallion1/doctimeline/internal/config"
)

func main() {
	cfg, err := config.Load()
	log := app.NewLogger(cfg, os.Stdout, true)
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Serve(ctx, cfg, log); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
