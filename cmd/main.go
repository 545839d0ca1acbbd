package main

import (
	"context"
	"fmt"
	"os"

	"github.com/happycapy/capy-community-backend/internal/config"
	"github.com/happycapy/capy-community-backend/internal/db"
	"github.com/happycapy/capy-community-backend/internal/handlers"
	"github.com/happycapy/capy-community-backend/internal/logger"
	"github.com/happycapy/capy-community-backend/internal/middleware"
	"github.com/happycapy/capy-community-backend/internal/observability"
	"github.com/happycapy/capy-community-backend/internal/repos"
	"github.com/happycapy/capy-community-backend/internal/server"
	"github.com/happycapy/capy-community-backend/internal/services"
)

func main() {
	// Logger
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

	// Config
	log.Info("Loading configuration from main...")
	cfg, err := config.Load(log)
	if err != nil {
		log.Error("Could not load config", "error", err)
		os.Exit(1)
	}

	// Tracing
	ctx := context.Background()
	shutdownTracing := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "capy-community-backend",
		Environment: cfg.LogMode,
	})
	if shutdownTracing != nil {
		defer func() { _ = shutdownTracing(ctx) }()
	}

	// Store
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
		log.Info("Mock store selected, seeding fixtures...")
		if err := db.SeedFixtures(theDB); err != nil {
			log.Error("Fixture seeding failed", "error", err)
			os.Exit(1)
		}
	}

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(theDB, log)
	profileRepo := repos.NewProfileRepo(theDB, log)
	postRepo := repos.NewPostRepo(theDB, log)
	commentRepo := repos.NewCommentRepo(theDB, log)
	capyAgentRepo := repos.NewCapyAgentRepo(theDB, log)
	recRepo := repos.NewCapyRecommendationRepo(theDB, log)
	interactionRepo := repos.NewCapyInteractionRepo(theDB, log)
	aiCallLogRepo := repos.NewAICallLogRepo(theDB, log)

	// Services
	log.Info("Setting up Services from main...")
	aiClient, err := services.NewAIClient(cfg.Gateway, log)
	if err != nil {
		log.Error("Could not init AIClient", "error", err)
		os.Exit(1)
	}
	avatarService, err := services.NewAvatarService(cfg.Media, log)
	if err != nil {
		log.Warn("Could not init AvatarService, capys get no avatars", "error", err)
		avatarService = nil
	}
	authService := services.NewAuthService(theDB, log, userRepo)
	userService := services.NewUserService(theDB, log, userRepo, profileRepo, avatarService)
	postService := services.NewPostService(theDB, log, postRepo, authService)
	commentService := services.NewCommentService(theDB, log, commentRepo, postRepo)
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
	capyService := services.NewCapyService(
		theDB,
		log,
		capyAgentRepo,
		recRepo,
		interactionRepo,
		avatarService,
		recService,
	)

	// Handlers
	log.Info("Setting up Handlers from main...")
	postHandler := handlers.NewPostHandler(postService)
	userHandler := handlers.NewUserHandler(userService)
	commentHandler := handlers.NewCommentHandler(commentService)
	capyHandler := handlers.NewCapyHandler(capyService)
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	router := server.NewRouter(server.RouterConfig{
		AuthMiddleware: authMiddleware,
		PostHandler:    postHandler,
		CommentHandler: commentHandler,
		CapyHandler:    capyHandler,
		UserHandler:    userHandler,
		MediaDir:       cfg.Media.Dir,
		TracingOn:      observability.Enabled(),
	})

	log.Info("Starting server", "port", cfg.Port, "store_mode", storeService.Mode())
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Error("Server exited", "error", err)
		os.Exit(1)
	}
}
