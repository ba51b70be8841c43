// Command gtevents runs the training-events risk and capacity aggregation
// service: it periodically pulls events, orders, groups, and contacts from
// the upstream WordPress-family APIs, merges them into unified event
// records, classifies enrollment risk, and serves the result over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gtevents/internal/api"
	"gtevents/internal/config"
	"gtevents/internal/engine"
	"gtevents/internal/events"
	"gtevents/internal/fetch"
	"gtevents/internal/logging"
	"gtevents/internal/model"
	"gtevents/internal/snapshots"
	"gtevents/internal/storage"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config file (yaml or json); defaults apply when omitted")
	flag.Parse()

	var mgr *config.Manager
	if *configPath != "" {
		m, err := config.NewManager(config.ResolvePath(*configPath))
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
		mgr = m
	} else {
		mgr = config.NewStaticManager(config.DefaultConfig())
	}
	cfg := mgr.Get()
	logger := logging.NewLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.NewStore(cfg.Storage)
	if err != nil {
		logger.Error("storage init failed", "err", err)
		os.Exit(1)
	}
	if store != nil {
		if err := store.Init(ctx); err != nil {
			logger.Error("storage schema init failed", "err", err)
			os.Exit(1)
		}
		defer store.Close()
	}

	eventStore := events.NewStore(cfg.Events.StoreLimit)
	snapshotStore := snapshots.NewStore(cfg.Snapshots.StoreLimit)
	sources := fetch.NewSources(cfg, logging.Component(logger, "fetch"))
	eng := engine.NewEngine(cfg, sources, logging.Component(logger, "engine"), eventStore, snapshotStore, store)

	live := make(chan model.Order, 1024)
	fetch.StartFeed(ctx, mgr, live, logging.Component(logger, "feed"))
	eng.Start(ctx, live)

	// First pass up front so the dashboard has data before the first tick.
	if _, err := eng.Refresh(ctx); err != nil {
		logger.Warn("initial refresh failed", "err", err)
	}

	srv := api.Start(ctx, mgr, eventStore, snapshotStore, eng, logging.Component(logger, "api"), version)

	stop := make(chan struct{})
	if mgr.Path() != "" {
		go mgr.Watch(3*time.Second,
			func(c *config.Config) {
				eng.UpdateConfig(c)
				logger.Info("config reloaded", "path", mgr.Path())
			},
			func(err error) {
				logger.Warn("config reload failed", "err", err)
			},
			stop,
		)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	close(stop)
	cancel()
	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}
	logger.Info("stopped")
}
