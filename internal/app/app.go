// Package app wires configuration, the ingest pipeline and the HTTP server
// together for the command-line entry points.
package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dgallion1/doctimeline/internal/api"
	"github.com/dgallion1/doctimeline/internal/config"
	"github.com/dgallion1/doctimeline/internal/metrics"
	"github.com/dgallion1/doctimeline/internal/pipeline"
)

// NewLogger builds the process logger at the configured level: JSON for the
// server, text for interactive use.
func NewLogger(cfg config.Config, w io.Writer, json bool) *slog.Logger {
	level, err := cfg.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Serve runs the HTTP server until ctx is cancelled, then drains the
// pipeline and shuts the server down.
func Serve(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New()
	m.MustRegister(registry)

	// Initialize pipeline.
	project := pipeline.NewProject(log, cfg.Location, m)
	orch := pipeline.NewOrchestrator(cfg, project, m, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, metrics.Handler(registry), log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
		orch.Stop()
	}()

	log.Info("starting doctimeline", "port", cfg.Port, "timezone", cfg.Location.String())
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}
