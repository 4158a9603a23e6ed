package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/qepting91/hotfeed/internal/collector"
	"github.com/qepting91/hotfeed/internal/config"
	"github.com/qepting91/hotfeed/internal/dashboard"
	"github.com/qepting91/hotfeed/internal/domain"
	"github.com/qepting91/hotfeed/internal/engine"
	"github.com/qepting91/hotfeed/internal/storage"
)

func main() {
	// 1. Setup
	godotenv.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Error("Invalid configuration", "err", err)
		os.Exit(1)
	}

	var overrides config.PolicyOverrides
	if cfg.PolicyFile != "" {
		if overrides, err = config.LoadPolicies(cfg.PolicyFile); err != nil {
			logger.Error("Invalid policy file", "err", err)
			os.Exit(1)
		}
	}

	// 2. Event log
	var events domain.EventSink = domain.Discard
	var logWg sync.WaitGroup
	var eventLog *storage.EventLog
	if cfg.EventLog != "" {
		eventLog = storage.NewEventLog(cfg.EventLog, 1024)
		events = eventLog
		logWg.Add(1)
		go eventLog.Start(&logWg)
	}

	// 3. Providers and caches
	providers, err := collector.NewProviders(cfg, logger, events)
	if err != nil {
		logger.Error("Failed to initialize providers", "err", err)
		os.Exit(1)
	}
	logger.Info("Providers initialized", "mode", cfg.Mode, "count", len(providers))

	services := make([]*engine.Service, 0, len(providers))
	refreshers := make([]engine.Refresher, 0, len(providers))
	sources := make([]dashboard.Source, 0, len(providers))
	for _, p := range providers {
		svc := engine.NewService(p,
			engine.WithLogger(logger),
			engine.WithEvents(events),
			engine.WithPolicyOverrides(overrides[p.Name()]),
		)
		services = append(services, svc)
		refreshers = append(refreshers, svc)
		sources = append(sources, svc)
	}

	// 4. Warm-up and periodic refresh
	ctx, cancel := context.WithCancel(context.Background())
	sched := engine.NewScheduler(cfg.RefreshInterval, cfg.WarmPeriods, logger, refreshers...)
	sched.Start(ctx)

	// 5. Run Dashboard
	go func() {
		logger.Info("Starting Dashboard", "port", cfg.Port)
		if err := dashboard.StartServer(cfg.Port, sources...); err != nil {
			logger.Error("Dashboard failed", "err", err)
		}
	}()

	// 6. Graceful Shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("Shutdown signal received")

	cancel()
	sched.Stop()
	for _, svc := range services {
		svc.Close()
	}
	if eventLog != nil {
		eventLog.Close()
		logWg.Wait()
		logger.Info("Event log closed", "dropped", eventLog.Dropped())
	}
}
