package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/tocmerge/internal/api"
	"github.com/dgallion1/tocmerge/internal/config"
	"github.com/dgallion1/tocmerge/internal/merge"
	"github.com/dgallion1/tocmerge/internal/pipeline"
	"github.com/dgallion1/tocmerge/internal/render"
	"github.com/dgallion1/tocmerge/internal/session"
	"github.com/dgallion1/tocmerge/internal/stats"
	"github.com/dgallion1/tocmerge/internal/toc"
	"github.com/dgallion1/tocmerge/internal/version"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	merger := merge.NewMerger(toc.Options{FontPath: cfg.TOCFontPath}, cfg.RelaxedValidation, log)
	runner := pipeline.NewRunner(merger, render.Options{FontPath: cfg.TOCFontPath},
		cfg.MaxConcurrentMerges, stats.NewWindow(time.Hour), log)

	store := session.NewStore(cfg.SessionTTL)
	store.Start(ctx, time.Minute)

	srv := api.NewServer(runner, store, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		store.Stop()
	}()

	log.Info("starting tocmerge",
		"port", cfg.Port,
		"version", version.Version,
		"max_concurrent_merges", cfg.MaxConcurrentMerges,
		"session_ttl", cfg.SessionTTL.String(),
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
