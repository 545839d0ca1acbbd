package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/happycapy/capy-community-backend/internal/config"
	"github.com/happycapy/capy-community-backend/internal/db"
	"github.com/happycapy/capy-community-backend/internal/logger"
	"github.com/happycapy/capy-community-backend/internal/repos"
	"github.com/happycapy/capy-community-backend/internal/services"
)

// agentrunner sweeps every active capy agent on a schedule and runs one
// recommendation cycle per agent. It shares the store and services with the
// API server but runs as its own process.
func main() {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log = log.With("component", "agentrunner")

	cfg, err := config.Load(log)
	if err != nil {
		log.Error("Could not load config", "error", err)
		os.Exit(1)
	}

	storeService, err := db.NewStoreService(cfg.Store, log)
	if err != nil {
		log.Error("Store init failed", "error", err)
		os.Exit(1)
	}
	if err := storeService.AutoMigrateAll(); err != nil {
		log.Error("Store auto migration failed", "error", err)
		os.Exit(1)
	}
	theDB := storeService.DB()
	if storeService.Mode() == config.StoreModeMock {
		if err := db.SeedFixtures(theDB); err != nil {
			log.Error("Fixture seeding failed", "error", err)
			os.Exit(1)
		}
	}

	userRepo := repos.NewUserRepo(theDB, log)
	postRepo := repos.NewPostRepo(theDB, log)
	capyAgentRepo := repos.NewCapyAgentRepo(theDB, log)
	recRepo := repos.NewCapyRecommendationRepo(theDB, log)
	interactionRepo := repos.NewCapyInteractionRepo(theDB, log)
	aiCallLogRepo := repos.NewAICallLogRepo(theDB, log)

	aiClient, err := services.NewAIClient(cfg.Gateway, log)
	if err != nil {
		log.Error("Could not init AIClient", "error", err)
		os.Exit(1)
	}
	recService := services.NewRecommendationService(
		theDB,
		log,
		postRepo,
		userRepo,
		capyAgentRepo,
		recRepo,
		interactionRepo,
		aiCallLogRepo,
		aiClient,
		cfg.Runner.PostLimit,
	)

	parallelism := cfg.Runner.Parallelism
	if parallelism <= 0 {
		parallelism = 4
	}

	sweep := func() {
		ctx := context.Background()
		agents, err := capyAgentRepo.ListActive(ctx, nil)
		if err != nil {
			log.Error("Could not list active agents", "error", err)
			return
		}
		if len(agents) == 0 {
			log.Info("No active agents, nothing to do")
			return
		}
		log.Info("Starting agent sweep", "agents", len(agents))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(parallelism)
		for _, agent := range agents {
			agent := agent
			g.Go(func() error {
				if _, err := recService.RunCycle(gctx, agent); err != nil {
					// One bad cycle never stops the sweep.
					log.Warn("Agent cycle failed", "capy_id", agent.ID, "error", err)
				}
				return nil
			})
		}
		_ = g.Wait()
		log.Info("Agent sweep finished")
	}

	schedule := cfg.Runner.Schedule
	if schedule == "" {
		schedule = "@every 1h"
	}
	c := cron.New()
	if _, err := c.AddFunc(schedule, sweep); err != nil {
		log.Error("Invalid runner schedule", "schedule", schedule, "error", err)
		os.Exit(1)
	}

	log.Info("Agent runner started", "schedule", schedule, "parallelism", parallelism)
	c.Start()

	// One sweep up front so a fresh deploy doesn't wait a full interval.
	sweep()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down agent runner")
	<-c.Stop().Done()
}
